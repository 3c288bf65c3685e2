package scheduling

import (
	"fmt"

	"github.com/jacobneff/scorebugger/models"
)

// MatchSlot is one planned pool match: a pairing, its referee, and the
// round-block it occupies on the pool's home court.
type MatchSlot struct {
	TeamAID        int
	TeamBID        int
	RefereeTeamIDs []int
	RoundBlock     int
}

// RoundRobinPlan expands a fully populated pool into its n(n-1)/2
// pairings. Matches run sequentially on the pool's home court, one
// round-block each, starting at firstBlock; circle-method ordering keeps
// consecutive matches spread across the pool so no team plays twice in a
// row more than the pool size forces.
//
// Referee policy is off-team-same-pool: for a pool of three the sitting
// team referees, for larger pools referees rotate through non-playing
// members in pool order, keeping per-team referee counts within one of
// each other.
func RoundRobinPlan(teamIDs []int, firstBlock int) []MatchSlot {
	n := len(teamIDs)
	if n < 2 {
		return nil
	}

	pairs := roundRobinPairs(n)
	counts := make(map[int]int, n)
	slots := make([]MatchSlot, 0, len(pairs))
	for i, p := range pairs {
		slot := MatchSlot{
			TeamAID:    teamIDs[p[0]],
			TeamBID:    teamIDs[p[1]],
			RoundBlock: firstBlock + i,
		}
		if n >= 3 {
			ref := pickReferee(teamIDs, p, counts)
			slot.RefereeTeamIDs = []int{ref}
			counts[ref]++
		}
		slots = append(slots, slot)
	}
	return slots
}

// pickReferee chooses the non-playing pool member with the fewest
// assignments so far, ties broken by pool order.
func pickReferee(teamIDs []int, pair [2]int, counts map[int]int) int {
	best := -1
	for i, id := range teamIDs {
		if i == pair[0] || i == pair[1] {
			continue
		}
		if best == -1 || counts[id] < counts[best] {
			best = id
		}
	}
	return best
}

// roundRobinPairs enumerates all index pairs of an n-team round robin in
// circle-method order: a dummy index pads odd sizes, the first position
// stays fixed and the rest rotate each round.
func roundRobinPairs(n int) [][2]int {
	m := n
	if m%2 == 1 {
		m++
	}
	idx := make([]int, m)
	for i := range idx {
		idx[i] = i
	}

	var pairs [][2]int
	for r := 0; r < m-1; r++ {
		for i := 0; i < m/2; i++ {
			a, b := idx[i], idx[m-1-i]
			if a >= n || b >= n {
				continue // dummy slot, this is the round's bye
			}
			if a > b {
				a, b = b, a
			}
			pairs = append(pairs, [2]int{a, b})
		}
		rotated := make([]int, 0, m)
		rotated = append(rotated, idx[0], idx[m-1])
		rotated = append(rotated, idx[1:m-1]...)
		idx = rotated
	}
	return pairs
}

// CrossoverSlot is one planned crossover match with its court binding.
type CrossoverSlot struct {
	TeamAID    int
	TeamBID    int
	Court      models.Court
	RoundBlock int
}

// CrossoverPlan pairs the two source pools rank to rank (rank 1 of A
// against rank 1 of B, and so on) and distributes the matches over the
// given courts, filling every court before advancing the round-block so
// no team ever appears twice in one block.
func CrossoverPlan(ranksA, ranksB []int, courts []models.Court, firstBlock int) ([]CrossoverSlot, error) {
	if len(courts) == 0 {
		return nil, fmt.Errorf("crossover needs at least one court")
	}
	n := len(ranksA)
	if len(ranksB) < n {
		n = len(ranksB)
	}
	slots := make([]CrossoverSlot, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, CrossoverSlot{
			TeamAID:    ranksA[i],
			TeamBID:    ranksB[i],
			Court:      courts[i%len(courts)],
			RoundBlock: firstBlock + i/len(courts),
		})
	}
	return slots, nil
}

// CourtsInFacility narrows a court list to a single facility, preserving
// order. Crossover stages are confined to the facility of their bound
// court slot.
func CourtsInFacility(courts []models.Court, facility string) []models.Court {
	var out []models.Court
	for _, c := range courts {
		if c.Facility == facility {
			out = append(out, c)
		}
	}
	return out
}
