package scheduling

import "sort"

// PoolWrite is one atomic membership replacement for a single pool.
type PoolWrite struct {
	PoolID  int
	TeamIDs []int
}

// PlanReassignment diffs the previous and desired pool memberships and
// returns the ordered write passes that apply the change without ever
// recording a team in two pools at once. The persistence layer enforces
// that uniqueness; the plan exists to survive it mid-update.
//
// Any cross-pool movement (including symmetric swaps, which would still
// double-book a team for the span between the two writes) produces two
// passes: pass one rewrites each affected pool with only the teams it is
// keeping, pass two writes the final full memberships. A change confined
// to reordering within pools needs a single pass.
//
// Writes within a pass are ordered by pool id so concurrent readers
// observe a deterministic progression.
func PlanReassignment(before, after map[int][]int) [][]PoolWrite {
	changed := changedPools(before, after)
	if len(changed) == 0 {
		return nil
	}

	if !hasCrossPoolMove(before, after) {
		pass := make([]PoolWrite, 0, len(changed))
		for _, id := range changed {
			pass = append(pass, PoolWrite{PoolID: id, TeamIDs: copyIDs(after[id])})
		}
		return [][]PoolWrite{pass}
	}

	poolOf := membershipIndex(before)

	var passOne, passTwo []PoolWrite
	for _, id := range changed {
		keepers := make([]int, 0, len(after[id]))
		for _, t := range after[id] {
			if poolOf[t] == id {
				keepers = append(keepers, t)
			}
		}
		if !equalIDs(keepers, before[id]) {
			passOne = append(passOne, PoolWrite{PoolID: id, TeamIDs: keepers})
		}
		// Pools that only shed teams reach their final state in pass one.
		if !equalIDs(keepers, after[id]) {
			passTwo = append(passTwo, PoolWrite{PoolID: id, TeamIDs: copyIDs(after[id])})
		}
	}

	passes := [][]PoolWrite{}
	if len(passOne) > 0 {
		passes = append(passes, passOne)
	}
	if len(passTwo) > 0 {
		passes = append(passes, passTwo)
	}
	return passes
}

func changedPools(before, after map[int][]int) []int {
	var ids []int
	for id, want := range after {
		if !equalIDs(before[id], want) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func hasCrossPoolMove(before, after map[int][]int) bool {
	was := membershipIndex(before)
	for id, members := range after {
		for _, t := range members {
			if prev, ok := was[t]; ok && prev != id {
				return true
			}
		}
	}
	return false
}

func membershipIndex(pools map[int][]int) map[int]int {
	idx := make(map[int]int)
	for id, members := range pools {
		for _, t := range members {
			idx[t] = id
		}
	}
	return idx
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyIDs(a []int) []int {
	return append([]int(nil), a...)
}
