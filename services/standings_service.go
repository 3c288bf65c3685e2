package services

import (
	"context"

	"github.com/jacobneff/scorebugger/models"
	"github.com/jacobneff/scorebugger/repositories"
	"github.com/jacobneff/scorebugger/scheduling"
	"golang.org/x/sync/errgroup"
)

type StandingsService interface {
	StageStandings(ctx context.Context, tournamentID int, stageKey string) ([]models.PoolStandings, error)
	CumulativeStandings(ctx context.Context, tournamentID int) ([]models.StandingsEntry, error)
}

type standingsService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	poolRepo       repositories.PoolRepository
	matchRepo      repositories.MatchRepository
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	poolRepo repositories.PoolRepository,
	matchRepo repositories.MatchRepository,
) StandingsService {
	return &standingsService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		poolRepo:       poolRepo,
		matchRepo:      matchRepo,
	}
}

// StageStandings computes each pool's current table from its finalized
// matches. Nothing is persisted; a match finalized or reopened a moment
// earlier is already reflected.
func (s *standingsService) StageStandings(ctx context.Context, tournamentID int, stageKey string) ([]models.PoolStandings, error) {
	_, format, err := loadTournamentWithFormat(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	if _, ok := format.Stage(stageKey); !ok {
		return nil, ErrStageNotFound
	}

	var (
		pools   []*models.Pool
		matches []*models.Match
		teams   []*models.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		pools, loadErr = s.poolRepo.ListByStage(gctx, tournamentID, stageKey)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		matches, loadErr = s.matchRepo.ListByStage(gctx, tournamentID, stageKey)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		teams, loadErr = s.teamRepo.ListByTournament(gctx, tournamentID)
		return loadErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	teamByID := indexTeams(teams)
	out := make([]models.PoolStandings, 0, len(pools))
	for _, pool := range pools {
		entries := scheduling.Aggregate(pool.TeamIDs, poolMatches(matches, pool.ID))
		attachTeams(entries, teamByID)
		out = append(out, models.PoolStandings{
			PoolID:   pool.ID,
			PoolName: pool.Name,
			StageKey: stageKey,
			Entries:  entries,
		})
	}
	return out, nil
}

// CumulativeStandings ranks the whole field over the finalized matches
// of every pre-playoff stage. This is the order playoff seeding reads.
func (s *standingsService) CumulativeStandings(ctx context.Context, tournamentID int) ([]models.StandingsEntry, error) {
	_, format, err := loadTournamentWithFormat(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}

	playoffs, ok := format.PlayoffStage()
	if !ok {
		return nil, ErrStageNotFound
	}
	stageKeys := format.StagesBefore(playoffs.Key)

	var (
		matches []*models.Match
		teams   []*models.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		matches, loadErr = s.matchRepo.ListFinalByStages(gctx, tournamentID, stageKeys)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		teams, loadErr = s.teamRepo.ListByTournament(gctx, tournamentID)
		return loadErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	teamIDs := make([]int, 0, len(teams))
	for _, t := range teams {
		teamIDs = append(teamIDs, t.ID)
	}
	entries := scheduling.Aggregate(teamIDs, derefMatches(matches))
	attachTeams(entries, indexTeams(teams))
	return entries, nil
}

func indexTeams(teams []*models.Team) map[int]*models.Team {
	byID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	return byID
}

func attachTeams(entries []models.StandingsEntry, byID map[int]*models.Team) {
	for i := range entries {
		if t, ok := byID[entries[i].TeamID]; ok {
			entries[i].Team = t
		}
	}
}
