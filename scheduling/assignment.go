package scheduling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jacobneff/scorebugger/formats"
	"github.com/jacobneff/scorebugger/models"
)

// PairKey identifies an unordered team pair, normalized low id first.
type PairKey [2]int

func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{a, b}
}

// AssignmentInput carries everything pool assignment needs, already
// resolved from persistence so the engine itself stays pure.
type AssignmentInput struct {
	Stage formats.StageDefinition

	// SeedOrder is the overall ranking feeding this stage: team seeds for
	// a first stage, the prior stage's cumulative rank order otherwise.
	SeedOrder []int

	// SourceRanks maps each decided source pool to its ranked team ids.
	SourceRanks map[string][]int

	// PlayedPairs holds every pair that met in a finalized match of a
	// completed prior stage.
	PlayedPairs map[PairKey]bool
}

// AssignedPool is one populated destination pool with any residual
// rematch warnings the swap search could not eliminate.
type AssignedPool struct {
	Name     string
	TeamIDs  []int
	Warnings []models.RematchWarning
}

// MissingSourceError reports the slots whose source ranking is not yet
// decided, e.g. "B#2" (rank 2 of pool B) or "seed#13".
type MissingSourceError struct {
	Slots []string
}

func (e *MissingSourceError) Error() string {
	return "source standings not decided for: " + strings.Join(e.Slots, ", ")
}

// AssignPools populates the stage's destination pools from the canonical
// mapping, then resolves rematch conflicts by deterministic pairwise
// swaps. It never fails on a rematch: when no clean swap exists the
// minimal residual set is attached as warnings instead.
//
// The function is pure; identical inputs always produce identical output.
func AssignPools(in AssignmentInput) ([]AssignedPool, error) {
	stage := in.Stage
	if stage.Kind != formats.StagePoolPlay {
		return nil, fmt.Errorf("stage %q is not a pool-play stage", stage.Key)
	}

	pools, err := resolveCanonical(in)
	if err != nil {
		return nil, err
	}

	rank := make(map[int]int, len(in.SeedOrder))
	for i, id := range in.SeedOrder {
		rank[id] = i
	}

	resolveRematches(pools, rank, in.PlayedPairs)

	for i := range pools {
		pools[i].Warnings = poolWarnings(pools[i].TeamIDs, in.PlayedPairs)
	}
	return pools, nil
}

func resolveCanonical(in AssignmentInput) ([]AssignedPool, error) {
	var missing []string
	pools := make([]AssignedPool, 0, len(in.Stage.Pools))

	for _, shape := range in.Stage.Pools {
		slots, ok := in.Stage.Mapping[shape.Name]
		if !ok || len(slots) != shape.Size {
			return nil, fmt.Errorf("format mapping for pool %s does not cover its %d slots", shape.Name, shape.Size)
		}
		pool := AssignedPool{Name: shape.Name, TeamIDs: make([]int, 0, shape.Size)}
		for _, slot := range slots {
			var source []int
			label := fmt.Sprintf("seed#%d", slot.Rank)
			if slot.SourcePool == "" {
				source = in.SeedOrder
			} else {
				source = in.SourceRanks[slot.SourcePool]
				label = fmt.Sprintf("%s#%d", slot.SourcePool, slot.Rank)
			}
			if slot.Rank < 1 || slot.Rank > len(source) {
				missing = append(missing, label)
				continue
			}
			pool.TeamIDs = append(pool.TeamIDs, source[slot.Rank-1])
		}
		pools = append(pools, pool)
	}

	if len(missing) > 0 {
		return nil, &MissingSourceError{Slots: missing}
	}
	return pools, nil
}

// conflict is one rematch inside a candidate pool.
type conflict struct {
	poolIdx int
	pair    PairKey
}

func findConflicts(pools []AssignedPool, played map[PairKey]bool) []conflict {
	var out []conflict
	for pi, p := range pools {
		for i := 0; i < len(p.TeamIDs); i++ {
			for j := i + 1; j < len(p.TeamIDs); j++ {
				key := NewPairKey(p.TeamIDs[i], p.TeamIDs[j])
				if played[key] {
					out = append(out, conflict{poolIdx: pi, pair: key})
				}
			}
		}
	}
	return out
}

// resolveRematches runs the deterministic greedy swap search: walk the
// conflicted teams lowest-ranked first, find the first one with a swap
// partner that strictly reduces the conflict count, apply the best such
// swap, repeat. Trying every conflicted team matters: the preferred
// mover of a rematch pair can be stuck while moving its partner
// resolves everything cleanly. A swap is only taken when it strictly
// reduces the conflict count, so the loop terminates and residual
// conflicts become warnings.
//
// Among equally good swaps the tie-break is: partner in the same slot
// position first, then lexicographically smallest partner pool name,
// then smallest partner team id.
func resolveRematches(pools []AssignedPool, rank map[int]int, played map[PairKey]bool) {
	for iter := 0; iter < len(pools)*8; iter++ {
		conflicts := findConflicts(pools, played)
		if len(conflicts) == 0 {
			return
		}

		applied := false
		for _, m := range moverCandidates(pools, conflicts, rank) {
			if tryBestSwap(pools, m.poolIdx, m.slotIdx, len(conflicts), played) {
				applied = true
				break
			}
		}
		if !applied {
			return
		}
	}
}

type mover struct {
	poolIdx, slotIdx int
	teamID           int
}

// moverCandidates lists every team appearing in a conflict, ordered
// lowest-ranked first; ties fall to the smaller pool name, then the
// smaller team id.
func moverCandidates(pools []AssignedPool, conflicts []conflict, rank map[int]int) []mover {
	var cands []mover
	seen := make(map[int]bool)
	for _, c := range conflicts {
		for _, id := range []int{c.pair[0], c.pair[1]} {
			if seen[id] {
				continue
			}
			seen[id] = true
			p := pools[c.poolIdx]
			for si, t := range p.TeamIDs {
				if t == id {
					cands = append(cands, mover{poolIdx: c.poolIdx, slotIdx: si, teamID: id})
				}
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		ri, rj := rankOf(rank, cands[i].teamID), rankOf(rank, cands[j].teamID)
		if ri != rj {
			return ri > rj // lowest-ranked (largest index) first
		}
		if pools[cands[i].poolIdx].Name != pools[cands[j].poolIdx].Name {
			return pools[cands[i].poolIdx].Name < pools[cands[j].poolIdx].Name
		}
		return cands[i].teamID < cands[j].teamID
	})
	return cands
}

func rankOf(rank map[int]int, teamID int) int {
	if r, ok := rank[teamID]; ok {
		return r
	}
	return 1 << 30
}

type swapCandidate struct {
	residual         int
	sameSlot         bool
	partnerPool      string
	partnerTeamID    int
	poolIdx, slotIdx int
}

// tryBestSwap evaluates swapping the mover against every team of every
// other destination pool and applies the best strict improvement.
func tryBestSwap(pools []AssignedPool, moverPool, moverSlot, current int, played map[PairKey]bool) bool {
	var best *swapCandidate

	for pi := range pools {
		if pi == moverPool {
			continue
		}
		for si := range pools[pi].TeamIDs {
			doSwap(pools, moverPool, moverSlot, pi, si)
			residual := len(findConflicts(pools, played))
			doSwap(pools, moverPool, moverSlot, pi, si)

			if residual >= current {
				continue
			}
			cand := swapCandidate{
				residual:      residual,
				sameSlot:      si == moverSlot,
				partnerPool:   pools[pi].Name,
				partnerTeamID: pools[pi].TeamIDs[si],
				poolIdx:       pi,
				slotIdx:       si,
			}
			if best == nil || swapLess(cand, *best) {
				best = &cand
			}
		}
	}

	if best == nil {
		return false
	}
	doSwap(pools, moverPool, moverSlot, best.poolIdx, best.slotIdx)
	return true
}

func swapLess(a, b swapCandidate) bool {
	if a.residual != b.residual {
		return a.residual < b.residual
	}
	if a.sameSlot != b.sameSlot {
		return a.sameSlot
	}
	if a.partnerPool != b.partnerPool {
		return a.partnerPool < b.partnerPool
	}
	return a.partnerTeamID < b.partnerTeamID
}

func doSwap(pools []AssignedPool, p1, s1, p2, s2 int) {
	pools[p1].TeamIDs[s1], pools[p2].TeamIDs[s2] = pools[p2].TeamIDs[s2], pools[p1].TeamIDs[s1]
}

func poolWarnings(teamIDs []int, played map[PairKey]bool) []models.RematchWarning {
	var out []models.RematchWarning
	for i := 0; i < len(teamIDs); i++ {
		for j := i + 1; j < len(teamIDs); j++ {
			key := NewPairKey(teamIDs[i], teamIDs[j])
			if played[key] {
				out = append(out, models.RematchWarning{TeamAID: key[0], TeamBID: key[1]})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TeamAID != out[j].TeamAID {
			return out[i].TeamAID < out[j].TeamAID
		}
		return out[i].TeamBID < out[j].TeamBID
	})
	return out
}
