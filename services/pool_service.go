package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/jacobneff/scorebugger/models"
	"github.com/jacobneff/scorebugger/repositories"
	"github.com/jacobneff/scorebugger/scheduling"
)

// PoolAssignment is one pool's desired full membership in a manual
// reassignment request.
type PoolAssignment struct {
	PoolID  int   `json:"pool_id"`
	TeamIDs []int `json:"team_ids"`
}

type PoolService interface {
	ReassignPools(ctx context.Context, tournamentID int, stageKey string, assignments []PoolAssignment) ([]*models.Pool, error)
	SetManualRankOverride(ctx context.Context, tournamentID, poolID int, teamIDs []int) (*models.Pool, error)
}

type poolService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	poolRepo       repositories.PoolRepository
	matchRepo      repositories.MatchRepository
	locks          *TournamentLocks
}

func NewPoolService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	poolRepo repositories.PoolRepository,
	matchRepo repositories.MatchRepository,
	locks *TournamentLocks,
) PoolService {
	return &poolService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		poolRepo:       poolRepo,
		matchRepo:      matchRepo,
		locks:          locks,
	}
}

// ReassignPools applies operator edits to a stage's memberships. Writes
// follow the two-pass plan, so the stage-wide unique membership
// constraint holds at every intermediate persisted state even for
// symmetric swaps. Rematch warnings are recomputed for every touched
// pool afterwards.
func (s *poolService) ReassignPools(ctx context.Context, tournamentID int, stageKey string, assignments []PoolAssignment) ([]*models.Pool, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	_, format, err := loadTournamentWithFormat(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	if _, ok := format.Stage(stageKey); !ok {
		return nil, ErrStageNotFound
	}

	matchCount, err := s.matchRepo.CountByStage(ctx, tournamentID, stageKey)
	if err != nil {
		return nil, err
	}
	if matchCount > 0 {
		return nil, &PrereqNotMetError{Missing: []string{
			fmt.Sprintf("%s matches already generated; regenerate with force after reassigning", stageKey),
		}}
	}

	pools, err := s.poolRepo.ListByStage(ctx, tournamentID, stageKey)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*models.Pool, len(pools))
	before := make(map[int][]int, len(pools))
	for _, p := range pools {
		byID[p.ID] = p
		before[p.ID] = p.TeamIDs
	}

	after := make(map[int][]int, len(pools))
	for id, members := range before {
		after[id] = members
	}
	if err := s.validateAssignments(ctx, tournamentID, byID, assignments, after); err != nil {
		return nil, err
	}

	for _, pass := range scheduling.PlanReassignment(before, after) {
		for _, write := range pass {
			if err := s.poolRepo.ReplaceMembers(ctx, nil, write.PoolID, write.TeamIDs); err != nil {
				return nil, err
			}
		}
	}

	if err := s.refreshWarnings(ctx, tournamentID, format.StagesBefore(stageKey), byID, after); err != nil {
		return nil, err
	}

	out := make([]*models.Pool, 0, len(pools))
	for _, p := range pools {
		p.TeamIDs = after[p.ID]
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SetManualRankOverride records an operator-decided ranking for a pool,
// letting later stages proceed even with unplayed matches. An empty
// list clears the override.
func (s *poolService) SetManualRankOverride(ctx context.Context, tournamentID, poolID int, teamIDs []int) (*models.Pool, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	pool, err := s.poolRepo.GetByID(ctx, poolID)
	if err != nil {
		return nil, ErrPoolNotFound
	}
	if pool.TournamentID != tournamentID {
		return nil, ErrPoolNotFound
	}

	if len(teamIDs) > 0 {
		if len(teamIDs) != len(pool.TeamIDs) {
			return nil, &InvalidInputError{Field: "team_ids", Reason: "override must rank every pool member exactly once"}
		}
		members := make(map[int]bool, len(pool.TeamIDs))
		for _, id := range pool.TeamIDs {
			members[id] = true
		}
		seen := make(map[int]bool, len(teamIDs))
		for _, id := range teamIDs {
			if !members[id] {
				return nil, &InvalidInputError{Field: "team_ids", Reason: fmt.Sprintf("team %d is not in pool %s", id, pool.Name)}
			}
			if seen[id] {
				return nil, &InvalidInputError{Field: "team_ids", Reason: fmt.Sprintf("team %d listed twice", id)}
			}
			seen[id] = true
		}
	}

	if err := s.poolRepo.SetManualRankOverride(ctx, poolID, teamIDs); err != nil {
		return nil, err
	}
	pool.ManualRankOverride = teamIDs
	return pool, nil
}

func (s *poolService) validateAssignments(ctx context.Context, tournamentID int, byID map[int]*models.Pool, assignments []PoolAssignment, after map[int][]int) error {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	known := make(map[int]bool, len(teams))
	for _, t := range teams {
		known[t.ID] = true
	}

	for _, a := range assignments {
		pool, ok := byID[a.PoolID]
		if !ok {
			return ErrPoolNotFound
		}
		if len(a.TeamIDs) > pool.RequiredSize {
			return &InvalidInputError{
				Field:  "team_ids",
				Reason: fmt.Sprintf("pool %s holds at most %d teams, got %d", pool.Name, pool.RequiredSize, len(a.TeamIDs)),
			}
		}
		for _, id := range a.TeamIDs {
			if !known[id] {
				return &InvalidInputError{Field: "team_ids", Reason: fmt.Sprintf("team %d is not in this tournament", id)}
			}
		}
		after[a.PoolID] = append([]int(nil), a.TeamIDs...)
	}

	seen := make(map[int]int)
	for id, members := range after {
		for _, t := range members {
			if prev, dup := seen[t]; dup {
				return &InvalidInputError{
					Field:  "team_ids",
					Reason: fmt.Sprintf("team %d assigned to pools %d and %d", t, prev, id),
				}
			}
			seen[t] = id
		}
	}
	return nil
}

// refreshWarnings recomputes rematch warnings for every pool whose
// membership changed, against all previously finalized pairings.
func (s *poolService) refreshWarnings(ctx context.Context, tournamentID int, priorStages []string, byID map[int]*models.Pool, after map[int][]int) error {
	prior, err := s.matchRepo.ListFinalByStages(ctx, tournamentID, priorStages)
	if err != nil {
		return err
	}
	played := playedPairs(prior)

	for id, members := range after {
		pool := byID[id]
		var warnings []models.RematchWarning
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if played[scheduling.NewPairKey(members[i], members[j])] {
					key := scheduling.NewPairKey(members[i], members[j])
					warnings = append(warnings, models.RematchWarning{TeamAID: key[0], TeamBID: key[1]})
				}
			}
		}
		sort.Slice(warnings, func(i, j int) bool {
			if warnings[i].TeamAID != warnings[j].TeamAID {
				return warnings[i].TeamAID < warnings[j].TeamAID
			}
			return warnings[i].TeamBID < warnings[j].TeamBID
		})
		if err := s.poolRepo.ReplaceWarnings(ctx, nil, id, warnings); err != nil {
			return err
		}
		pool.RematchWarnings = warnings
	}
	return nil
}
