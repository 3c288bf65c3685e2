package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobneff/scorebugger/models"
)

// The flow tests drive a seven-team tournament through the
// volley7-2pool-crossover format end to end against the in-memory
// repositories: format application, pool generation, match generation,
// crossover, playoffs, and the force and prerequisite guards along the
// way. Winners are forced deterministically (lower team id wins 2-0) so
// every ranking below is known in advance.

type flowEnv struct {
	store     *fakeStore
	stages    StageService
	matches   MatchService
	pools     PoolService
	playoffs  PlayoffService
	standings StandingsService
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()

	store := newFakeStore(&models.Tournament{
		ID:     1,
		Name:   "Spring Open",
		Status: models.TournamentSetup,
	})
	for i := 1; i <= 7; i++ {
		seed := i
		store.teams = append(store.teams, &models.Team{
			ID:           100 + i,
			TournamentID: 1,
			Name:         "Team " + string(rune('A'+i-1)),
			Seed:         &seed,
		})
	}
	store.courts = []*models.Court{
		{ID: 11, Facility: "Main Gym", Name: "Court 1", Enabled: true, Position: 1},
		{ID: 12, Facility: "Main Gym", Name: "Court 2", Enabled: true, Position: 2},
	}

	tournaments := &fakeTournamentRepo{s: store}
	teams := &fakeTeamRepo{s: store}
	poolRepo := &fakePoolRepo{s: store}
	matchRepo := &fakeMatchRepo{s: store}
	boards := &fakeScoreboardRepo{s: store}
	venues := &fakeVenueRepo{s: store}
	locks := NewTournamentLocks()

	return &flowEnv{
		store:     store,
		stages:    NewStageService(tournaments, teams, poolRepo, matchRepo, boards, venues, locks),
		matches:   NewMatchService(tournaments, poolRepo, matchRepo, boards, venues, locks),
		pools:     NewPoolService(tournaments, teams, poolRepo, matchRepo, locks),
		playoffs:  NewPlayoffService(tournaments, teams, poolRepo, matchRepo, boards, venues, locks),
		standings: NewStandingsService(tournaments, teams, poolRepo, matchRepo),
	}
}

// finalizeMatch stamps a match as final with the lower team id winning
// two sets to none.
func finalizeMatch(m *models.Match) {
	winner, loser := m.TeamAID, *m.TeamBID
	aWins := winner < loser
	if !aWins {
		winner, loser = loser, winner
	}
	result := &models.MatchResult{WinnerTeamID: winner, LoserTeamID: loser}
	if aWins {
		result.SetsWonA, result.SetsWonB = 2, 0
		result.PointsA, result.PointsB = 50, 30
	} else {
		result.SetsWonA, result.SetsWonB = 0, 2
		result.PointsA, result.PointsB = 30, 50
	}
	m.Status = models.MatchFinal
	m.Result = result
}

func (e *flowEnv) finalizeStage(stageKey string) {
	for _, m := range e.store.matches {
		if m.StageKey != stageKey || m.Status == models.MatchFinal {
			continue
		}
		finalizeMatch(m)
	}
}

func (e *flowEnv) poolByName(stageKey, name string) *models.Pool {
	for _, p := range e.store.pools {
		if p.StageKey == stageKey && p.Name == name {
			return p
		}
	}
	return nil
}

func TestApplyFormatCreatesSkeletonPools(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	tournament, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)
	require.NotNil(t, tournament.FormatID)
	assert.Equal(t, "volley7-2pool-crossover", *tournament.FormatID)
	assert.Equal(t, []int{11, 12}, tournament.ActiveCourtIDs)

	poolA := env.poolByName("phase1", "A")
	require.NotNil(t, poolA)
	assert.Equal(t, 4, poolA.RequiredSize)
	assert.Equal(t, "Court 1", *poolA.Court)
	assert.Empty(t, poolA.TeamIDs)

	poolB := env.poolByName("phase1", "B")
	require.NotNil(t, poolB)
	assert.Equal(t, 3, poolB.RequiredSize)
	assert.Equal(t, "Court 2", *poolB.Court)
}

func TestApplyFormatRejections(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 99, "volley7-2pool-crossover", []int{11, 12}, false)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = env.stages.ApplyFormat(ctx, 1, "no-such-format", []int{11, 12}, false)
	assert.ErrorIs(t, err, ErrFormatNotFound)

	// Wrong team count for the format.
	_, err = env.stages.ApplyFormat(ctx, 1, "volley12-4x3", []int{11, 12}, false)
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "format_id", invalid.Field)

	// Too few courts.
	_, err = env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11}, false)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "court_ids", invalid.Field)

	// Unknown court id.
	_, err = env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 99}, false)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "court_ids", invalid.Field)
}

func TestReapplyFormatRequiresForce(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)

	_, err = env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	var exists *AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, 2, exists.Count)

	_, err = env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{12, 11}, true)
	require.NoError(t, err)

	// Discard plus recreate leaves exactly one skeleton per pool, now on
	// the swapped court order.
	assert.Len(t, env.store.pools, 2)
	assert.Equal(t, "Court 2", *env.poolByName("phase1", "A").Court)
}

func TestGeneratePoolsFollowsCanonicalMapping(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.GeneratePools(ctx, 1, "phase1", false)
	var prereq *PrereqNotMetError
	require.ErrorAs(t, err, &prereq)

	_, err = env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)

	pools, err := env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)
	require.Len(t, pools, 2)

	assert.Equal(t, []int{101, 104, 105, 107}, env.poolByName("phase1", "A").TeamIDs)
	assert.Equal(t, []int{102, 103, 106}, env.poolByName("phase1", "B").TeamIDs)

	// Repopulating an unscheduled stage is harmless.
	_, err = env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)

	_, err = env.stages.GeneratePools(ctx, 1, "playoffs", false)
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestGenerateMatchesRoundRobinPerPool(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)

	// Pools exist but are empty: generation blocks with one label per gap.
	_, err = env.matches.GenerateMatches(ctx, 1, "phase1", false)
	var prereq *PrereqNotMetError
	require.ErrorAs(t, err, &prereq)
	assert.Len(t, prereq.Missing, 2)

	_, err = env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)

	matches, err := env.matches.GenerateMatches(ctx, 1, "phase1", false)
	require.NoError(t, err)
	assert.Len(t, matches, 9) // C(4,2) + C(3,2)

	poolA := env.poolByName("phase1", "A")
	for _, m := range matches {
		require.NotNil(t, m.PoolID)
		require.NotNil(t, m.ScoreboardID)
		assert.Equal(t, models.MatchScheduled, m.Status)

		require.Len(t, m.RefereeTeamIDs, 1)
		ref := m.RefereeTeamIDs[0]
		assert.False(t, m.Involves(ref))

		if *m.PoolID == poolA.ID {
			assert.Equal(t, "Court 1", m.Court)
			assert.Contains(t, poolA.TeamIDs, ref)
		}
	}

	_, err = env.matches.GenerateMatches(ctx, 1, "phase1", false)
	var exists *AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, 9, exists.Count)

	regenerated, err := env.matches.GenerateMatches(ctx, 1, "phase1", true)
	require.NoError(t, err)
	assert.Len(t, regenerated, 9)
	assert.Len(t, env.store.boards, 9)
}

func TestCrossoverPairsRankToRank(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)
	_, err = env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)
	_, err = env.matches.GenerateMatches(ctx, 1, "phase1", false)
	require.NoError(t, err)

	// Pool play not decided yet.
	_, err = env.matches.GenerateMatches(ctx, 1, "crossover", false)
	var prereq *PrereqNotMetError
	require.ErrorAs(t, err, &prereq)

	env.finalizeStage("phase1")

	matches, err := env.matches.GenerateMatches(ctx, 1, "crossover", false)
	require.NoError(t, err)
	// Pool B has three teams, so pool A's fourth place sits the round out.
	require.Len(t, matches, 3)

	pairings := make(map[int]int, 3)
	for _, m := range matches {
		pairings[m.TeamAID] = *m.TeamBID
		assert.Equal(t, "Main Gym", m.Facility)
	}
	assert.Equal(t, map[int]int{101: 102, 104: 103, 105: 106}, pairings)
}

func TestStageStandingsRankAndTable(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)
	_, err = env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)
	_, err = env.matches.GenerateMatches(ctx, 1, "phase1", false)
	require.NoError(t, err)
	env.finalizeStage("phase1")

	standings, err := env.standings.StageStandings(ctx, 1, "phase1")
	require.NoError(t, err)
	require.Len(t, standings, 2)

	var tableA []models.StandingsEntry
	for _, s := range standings {
		if s.PoolName == "A" {
			tableA = s.Entries
		}
	}
	require.Len(t, tableA, 4)
	for i, entry := range tableA {
		assert.Equal(t, i+1, entry.Rank)
		require.NotNil(t, entry.Team)
	}
	assert.Equal(t, 101, tableA[0].TeamID)
	assert.Equal(t, 3, tableA[0].Wins)
	assert.Equal(t, 107, tableA[3].TeamID)
	assert.Equal(t, 0, tableA[3].Wins)
}

func TestUnfinalizeReopensMatch(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)
	_, err = env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)
	generated, err := env.matches.GenerateMatches(ctx, 1, "phase1", false)
	require.NoError(t, err)

	target := generated[0].ID
	_, err = env.matches.Unfinalize(ctx, 1, target)
	assert.ErrorIs(t, err, ErrMatchNotFinal)

	env.finalizeStage("phase1")

	_, err = env.matches.Unfinalize(ctx, 2, target)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	reopened, err := env.matches.Unfinalize(ctx, 1, target)
	require.NoError(t, err)
	assert.Equal(t, models.MatchEnded, reopened.Status)
	assert.Nil(t, reopened.Result)
	assert.Equal(t, models.MatchEnded, env.store.matches[target].Status)
}

func TestReassignPoolsSwapAndGuards(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)
	_, err = env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)

	poolA := env.poolByName("phase1", "A")
	poolB := env.poolByName("phase1", "B")

	// A team in two pools at once is rejected outright.
	_, err = env.pools.ReassignPools(ctx, 1, "phase1", []PoolAssignment{
		{PoolID: poolA.ID, TeamIDs: []int{101, 104, 105, 107}},
		{PoolID: poolB.ID, TeamIDs: []int{101, 103, 106}},
	})
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)

	// Symmetric swap of 104 and 103 across the two pools.
	updated, err := env.pools.ReassignPools(ctx, 1, "phase1", []PoolAssignment{
		{PoolID: poolA.ID, TeamIDs: []int{101, 103, 105, 107}},
		{PoolID: poolB.ID, TeamIDs: []int{102, 104, 106}},
	})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, []int{101, 103, 105, 107}, env.poolByName("phase1", "A").TeamIDs)
	assert.Equal(t, []int{102, 104, 106}, env.poolByName("phase1", "B").TeamIDs)

	_, err = env.matches.GenerateMatches(ctx, 1, "phase1", false)
	require.NoError(t, err)

	// Once the stage is scheduled, edits go through force regeneration.
	_, err = env.pools.ReassignPools(ctx, 1, "phase1", []PoolAssignment{
		{PoolID: poolA.ID, TeamIDs: []int{101, 104, 105, 107}},
		{PoolID: poolB.ID, TeamIDs: []int{102, 103, 106}},
	})
	var prereq *PrereqNotMetError
	assert.ErrorAs(t, err, &prereq)
}

func TestManualRankOverride(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)
	_, err = env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)

	poolB := env.poolByName("phase1", "B")

	_, err = env.pools.SetManualRankOverride(ctx, 1, poolB.ID, []int{106, 102})
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)

	_, err = env.pools.SetManualRankOverride(ctx, 1, poolB.ID, []int{106, 102, 999})
	require.ErrorAs(t, err, &invalid)

	updated, err := env.pools.SetManualRankOverride(ctx, 1, poolB.ID, []int{106, 102, 103})
	require.NoError(t, err)
	assert.Equal(t, []int{106, 102, 103}, updated.ManualRankOverride)

	// With the override in place, pool B counts as decided even though
	// none of its matches have been played: finalizing pool A alone is
	// enough for the crossover.
	_, err = env.matches.GenerateMatches(ctx, 1, "phase1", false)
	require.NoError(t, err)
	poolA := env.poolByName("phase1", "A")
	for _, m := range env.store.matches {
		if m.StageKey != "phase1" || m.PoolID == nil || *m.PoolID != poolA.ID {
			continue
		}
		finalizeMatch(m)
	}

	crossover, err := env.matches.GenerateMatches(ctx, 1, "crossover", false)
	require.NoError(t, err)
	require.Len(t, crossover, 3)
	assert.Equal(t, 101, crossover[0].TeamAID)
	assert.Equal(t, 106, *crossover[0].TeamBID)

	cleared, err := env.pools.SetManualRankOverride(ctx, 1, poolB.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared.ManualRankOverride)
}

func TestPlayoffFlow(t *testing.T) {
	env := newFlowEnv(t)
	ctx := context.Background()

	_, err := env.stages.ApplyFormat(ctx, 1, "volley7-2pool-crossover", []int{11, 12}, false)
	require.NoError(t, err)
	_, err = env.stages.GeneratePools(ctx, 1, "phase1", false)
	require.NoError(t, err)
	_, err = env.matches.GenerateMatches(ctx, 1, "phase1", false)
	require.NoError(t, err)
	env.finalizeStage("phase1")

	// Crossover not yet generated blocks the playoffs.
	_, err = env.playoffs.GeneratePlayoffs(ctx, 1, false)
	var prereq *PrereqNotMetError
	require.ErrorAs(t, err, &prereq)

	_, err = env.matches.GenerateMatches(ctx, 1, "crossover", false)
	require.NoError(t, err)

	// Generated but unplayed still blocks.
	_, err = env.playoffs.GeneratePlayoffs(ctx, 1, false)
	require.ErrorAs(t, err, &prereq)

	env.finalizeStage("crossover")

	matches, err := env.playoffs.GeneratePlayoffs(ctx, 1, false)
	require.NoError(t, err)
	// Gold is a declared four-team round robin (6), bronze a three-team
	// round robin (3).
	require.Len(t, matches, 9)

	// One court per bracket means one match per block there.
	type courtSlot struct {
		court string
		block int
	}
	booked := make(map[courtSlot]string, len(matches))
	byKey := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		require.NotNil(t, m.BracketKey)
		byKey[*m.BracketKey] = m
		assert.False(t, m.IsBye())
		require.NotNil(t, m.ScoreboardID)

		slot := courtSlot{court: m.Court, block: m.RoundBlock}
		assert.NotContains(t, booked, slot, "%s and %s share %s block %d", booked[slot], *m.BracketKey, m.Court, m.RoundBlock)
		booked[slot] = *m.BracketKey
	}

	// Cumulative order with lower-id-wins everywhere is 101..107, so gold
	// takes 101-104 and bronze 105-107.
	opener := byKey["gold:R1:1v4"]
	require.NotNil(t, opener)
	assert.Equal(t, 101, opener.TeamAID)
	assert.Equal(t, 104, *opener.TeamBID)

	bronze := byKey["bronze:R2:1v3"]
	require.NotNil(t, bronze)
	assert.Equal(t, 105, bronze.TeamAID)
	assert.Equal(t, 107, *bronze.TeamBID)

	_, err = env.playoffs.GeneratePlayoffs(ctx, 1, false)
	var exists *AlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, 9, exists.Count)

	regenerated, err := env.playoffs.GeneratePlayoffs(ctx, 1, true)
	require.NoError(t, err)
	assert.Len(t, regenerated, 9)

	// Fixed placement brackets are fully scheduled up front; there is no
	// next round to derive.
	_, err = env.playoffs.GenerateNextRound(ctx, 1, "gold")
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}
