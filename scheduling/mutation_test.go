package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyAndCheck replays a write plan against the starting state and
// asserts that no intermediate state ever records a team in two pools.
func applyAndCheck(t *testing.T, before map[int][]int, passes [][]PoolWrite) map[int][]int {
	t.Helper()
	state := make(map[int][]int, len(before))
	for id, members := range before {
		state[id] = copyIDs(members)
	}
	for _, pass := range passes {
		for _, w := range pass {
			state[w.PoolID] = copyIDs(w.TeamIDs)

			owners := make(map[int]int)
			for pid, members := range state {
				for _, team := range members {
					prev, taken := owners[team]
					require.False(t, taken,
						"team %d in pools %d and %d after writing pool %d", team, prev, pid, w.PoolID)
					owners[team] = pid
				}
			}
		}
	}
	return state
}

func TestPlanReassignment_NoChanges(t *testing.T) {
	before := map[int][]int{1: {10, 11}, 2: {20, 21}}
	after := map[int][]int{1: {10, 11}, 2: {20, 21}}
	assert.Empty(t, PlanReassignment(before, after))
}

func TestPlanReassignment_PureReorderSinglePass(t *testing.T) {
	before := map[int][]int{1: {10, 11, 12}, 2: {20, 21}}
	after := map[int][]int{1: {12, 10, 11}, 2: {20, 21}}

	passes := PlanReassignment(before, after)
	require.Len(t, passes, 1)
	require.Len(t, passes[0], 1)
	assert.Equal(t, 1, passes[0][0].PoolID)
	assert.Equal(t, []int{12, 10, 11}, passes[0][0].TeamIDs)

	final := applyAndCheck(t, before, passes)
	assert.Equal(t, after, final)
}

func TestPlanReassignment_CrossPoolMoveTwoPasses(t *testing.T) {
	before := map[int][]int{1: {10, 11, 12}, 2: {20, 21}}
	after := map[int][]int{1: {10, 11}, 2: {20, 21, 12}}

	passes := PlanReassignment(before, after)
	require.Len(t, passes, 2)

	final := applyAndCheck(t, before, passes)
	assert.Equal(t, 2, len(final))
	assert.Equal(t, []int{10, 11}, final[1])
	assert.Equal(t, []int{20, 21, 12}, final[2])
}

func TestPlanReassignment_SwapStillTwoPasses(t *testing.T) {
	// A symmetric swap would double-book both teams between the two
	// writes of a single pass, so it also splits.
	before := map[int][]int{1: {10, 11, 12}, 2: {20, 21, 22}}
	after := map[int][]int{1: {10, 11, 22}, 2: {20, 21, 12}}

	passes := PlanReassignment(before, after)
	require.Len(t, passes, 2)

	final := applyAndCheck(t, before, passes)
	assert.Equal(t, []int{10, 11, 22}, final[1])
	assert.Equal(t, []int{20, 21, 12}, final[2])
}

func TestPlanReassignment_ShedOnlyPoolWrittenOnce(t *testing.T) {
	// Pool 1 only loses a team; its final state is already correct
	// after pass one, so pass two must not rewrite it.
	before := map[int][]int{1: {10, 11, 12}, 2: {20, 21}}
	after := map[int][]int{1: {10, 11}, 2: {20, 21, 12}}

	passes := PlanReassignment(before, after)
	require.Len(t, passes, 2)
	for _, w := range passes[1] {
		assert.NotEqual(t, 1, w.PoolID, "shed-only pool rewritten in pass two")
	}
}

func TestPlanReassignment_ThreeWayRotation(t *testing.T) {
	before := map[int][]int{1: {10, 11}, 2: {20, 21}, 3: {30, 31}}
	after := map[int][]int{1: {10, 21}, 2: {20, 31}, 3: {30, 11}}

	passes := PlanReassignment(before, after)
	require.Len(t, passes, 2)

	final := applyAndCheck(t, before, passes)
	assert.Equal(t, []int{10, 21}, final[1])
	assert.Equal(t, []int{20, 31}, final[2])
	assert.Equal(t, []int{30, 11}, final[3])
}

func TestPlanReassignment_WritesOrderedByPoolID(t *testing.T) {
	before := map[int][]int{3: {30}, 1: {10}, 2: {20}}
	after := map[int][]int{3: {10}, 1: {20}, 2: {30}}

	passes := PlanReassignment(before, after)
	for _, pass := range passes {
		for i := 1; i < len(pass); i++ {
			assert.Less(t, pass[i-1].PoolID, pass[i].PoolID)
		}
	}
}
