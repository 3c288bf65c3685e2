package scheduling

import (
	"testing"

	"github.com/jacobneff/scorebugger/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinPlan_MatchCount(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 7} {
		teams := make([]int, n)
		for i := range teams {
			teams[i] = 100 + i
		}
		slots := RoundRobinPlan(teams, 0)
		assert.Len(t, slots, n*(n-1)/2, "pool of %d", n)
	}
}

func TestRoundRobinPlan_EveryPairingOnce(t *testing.T) {
	teams := []int{10, 20, 30, 40, 50}
	slots := RoundRobinPlan(teams, 0)

	seen := make(map[PairKey]bool)
	for _, s := range slots {
		key := NewPairKey(s.TeamAID, s.TeamBID)
		assert.False(t, seen[key], "pairing %v generated twice", key)
		seen[key] = true
	}
	assert.Len(t, seen, 10)
}

func TestRoundRobinPlan_SequentialBlocks(t *testing.T) {
	slots := RoundRobinPlan([]int{1, 2, 3, 4}, 7)
	require.Len(t, slots, 6)
	for i, s := range slots {
		assert.Equal(t, 7+i, s.RoundBlock)
	}
}

func TestRoundRobinPlan_NoTeamTwicePerBlock(t *testing.T) {
	slots := RoundRobinPlan([]int{1, 2, 3, 4, 5}, 0)
	byBlock := make(map[int]map[int]bool)
	for _, s := range slots {
		if byBlock[s.RoundBlock] == nil {
			byBlock[s.RoundBlock] = make(map[int]bool)
		}
		for _, id := range []int{s.TeamAID, s.TeamBID} {
			assert.False(t, byBlock[s.RoundBlock][id], "team %d twice in block %d", id, s.RoundBlock)
			byBlock[s.RoundBlock][id] = true
		}
	}
}

func TestRoundRobinPlan_PoolOfThreeSittingTeamReferees(t *testing.T) {
	teams := []int{7, 8, 9}
	slots := RoundRobinPlan(teams, 0)
	require.Len(t, slots, 3)

	for _, s := range slots {
		require.Len(t, s.RefereeTeamIDs, 1)
		ref := s.RefereeTeamIDs[0]
		assert.NotEqual(t, s.TeamAID, ref)
		assert.NotEqual(t, s.TeamBID, ref)
	}
}

func TestRoundRobinPlan_RefereeLoadBalanced(t *testing.T) {
	for _, n := range []int{3, 4, 5} {
		teams := make([]int, n)
		for i := range teams {
			teams[i] = i + 1
		}
		counts := make(map[int]int)
		for _, s := range RoundRobinPlan(teams, 0) {
			require.Len(t, s.RefereeTeamIDs, 1, "pool of %d", n)
			assert.False(t, s.RefereeTeamIDs[0] == s.TeamAID || s.RefereeTeamIDs[0] == s.TeamBID)
			counts[s.RefereeTeamIDs[0]]++
		}
		min, max := 1<<30, 0
		for _, id := range teams {
			c := counts[id]
			if c < min {
				min = c
			}
			if c > max {
				max = c
			}
		}
		assert.LessOrEqual(t, max-min, 1, "referee load spread for pool of %d", n)
	}
}

func TestRoundRobinPlan_TwoTeamsNoReferee(t *testing.T) {
	slots := RoundRobinPlan([]int{1, 2}, 0)
	require.Len(t, slots, 1)
	assert.Empty(t, slots[0].RefereeTeamIDs)
}

func TestCrossoverPlan_RankToRank(t *testing.T) {
	ranksA := []int{1, 2, 3, 4, 5, 6, 7}
	ranksB := []int{11, 12, 13, 14, 15, 16, 17}
	courts := []models.Court{
		{ID: 1, Facility: "North Gym", Name: "Court 1", Position: 0},
		{ID: 2, Facility: "North Gym", Name: "Court 2", Position: 1},
	}

	slots, err := CrossoverPlan(ranksA, ranksB, courts, 0)
	require.NoError(t, err)
	require.Len(t, slots, 7)

	for i, s := range slots {
		assert.Equal(t, ranksA[i], s.TeamAID)
		assert.Equal(t, ranksB[i], s.TeamBID)
	}
}

func TestCrossoverPlan_SingleFacility(t *testing.T) {
	all := []models.Court{
		{ID: 1, Facility: "North Gym", Name: "Court 1"},
		{ID: 2, Facility: "South Gym", Name: "Court 1"},
		{ID: 3, Facility: "North Gym", Name: "Court 2"},
	}
	courts := CourtsInFacility(all, "North Gym")
	require.Len(t, courts, 2)

	ranksA := []int{1, 2, 3, 4, 5, 6, 7}
	ranksB := []int{11, 12, 13, 14, 15, 16, 17}
	slots, err := CrossoverPlan(ranksA, ranksB, courts, 0)
	require.NoError(t, err)

	for _, s := range slots {
		assert.Equal(t, "North Gym", s.Court.Facility)
	}
}

func TestCrossoverPlan_BlocksFillCourtsFirst(t *testing.T) {
	courts := []models.Court{
		{ID: 1, Facility: "Gym", Name: "1"},
		{ID: 2, Facility: "Gym", Name: "2"},
	}
	slots, err := CrossoverPlan([]int{1, 2, 3}, []int{4, 5, 6}, courts, 5)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, 5, slots[0].RoundBlock)
	assert.Equal(t, 5, slots[1].RoundBlock)
	assert.Equal(t, 6, slots[2].RoundBlock)

	// No team appears twice in the same block.
	byBlock := make(map[int]map[int]bool)
	for _, s := range slots {
		if byBlock[s.RoundBlock] == nil {
			byBlock[s.RoundBlock] = make(map[int]bool)
		}
		for _, id := range []int{s.TeamAID, s.TeamBID} {
			assert.False(t, byBlock[s.RoundBlock][id])
			byBlock[s.RoundBlock][id] = true
		}
	}
}

func TestCrossoverPlan_UnevenPools(t *testing.T) {
	courts := []models.Court{{ID: 1, Facility: "Gym", Name: "1"}}
	slots, err := CrossoverPlan([]int{1, 2, 3, 4}, []int{5, 6, 7}, courts, 0)
	require.NoError(t, err)
	// Rank 4 of the larger pool has no opposite number.
	assert.Len(t, slots, 3)
}
