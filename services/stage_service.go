package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jacobneff/scorebugger/formats"
	"github.com/jacobneff/scorebugger/models"
	"github.com/jacobneff/scorebugger/repositories"
	"github.com/jacobneff/scorebugger/scheduling"
)

type StageService interface {
	ApplyFormat(ctx context.Context, tournamentID int, formatID string, courtIDs []int, force bool) (*models.Tournament, error)
	GeneratePools(ctx context.Context, tournamentID int, stageKey string, force bool) ([]*models.Pool, error)
	ListPools(ctx context.Context, tournamentID int, stageKey string) ([]*models.Pool, error)
}

type stageService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	poolRepo       repositories.PoolRepository
	matchRepo      repositories.MatchRepository
	scoreboardRepo repositories.ScoreboardRepository
	venueRepo      repositories.VenueRepository
	locks          *TournamentLocks
}

func NewStageService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	poolRepo repositories.PoolRepository,
	matchRepo repositories.MatchRepository,
	scoreboardRepo repositories.ScoreboardRepository,
	venueRepo repositories.VenueRepository,
	locks *TournamentLocks,
) StageService {
	return &stageService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		poolRepo:       poolRepo,
		matchRepo:      matchRepo,
		scoreboardRepo: scoreboardRepo,
		venueRepo:      venueRepo,
		locks:          locks,
	}
}

// ApplyFormat assigns a format and the active court list to a
// tournament and creates the first stage's empty pool skeletons with
// their court bindings. Reapplying over existing stage data requires
// force and discards every generated pool, match, and scoreboard.
func (s *stageService) ApplyFormat(ctx context.Context, tournamentID int, formatID string, courtIDs []int, force bool) (*models.Tournament, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	format, ok := formats.Get(formatID)
	if !ok {
		return nil, ErrFormatNotFound
	}

	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !format.SupportsTeamCount(len(teams)) {
		return nil, &InvalidInputError{
			Field:  "format_id",
			Reason: fmt.Sprintf("format %s does not support %d teams", format.ID, len(teams)),
		}
	}
	if !format.SupportsCourtCount(len(courtIDs)) {
		return nil, &InvalidInputError{
			Field:  "court_ids",
			Reason: fmt.Sprintf("format %s needs at least %d courts, got %d", format.ID, format.MinCourts, len(courtIDs)),
		}
	}

	courts, err := s.venueRepo.ListCourtsByIDs(ctx, courtIDs)
	if err != nil {
		return nil, err
	}
	if len(courts) != len(courtIDs) {
		return nil, &InvalidInputError{Field: "court_ids", Reason: "contains unknown or disabled courts"}
	}
	for _, c := range courts {
		if !c.Enabled {
			return nil, &InvalidInputError{Field: "court_ids", Reason: fmt.Sprintf("court %d is disabled", c.ID)}
		}
	}

	// Discards are scoped by the previously applied format's stage keys.
	if tournament.FormatID != nil {
		if oldFormat, known := formats.Get(*tournament.FormatID); known {
			existing, countErr := s.countGenerated(ctx, tournamentID, oldFormat)
			if countErr != nil {
				return nil, countErr
			}
			if existing > 0 && !force {
				return nil, &AlreadyExistsError{
					Resource: "stage data",
					Detail:   fmt.Sprintf("%d generated records would be discarded", existing),
					Count:    existing,
				}
			}
			if existing > 0 {
				if err := s.discardAllStages(ctx, tournamentID, oldFormat); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := s.tournamentRepo.SetFormat(ctx, nil, tournamentID, formatID, courtIDs); err != nil {
		return nil, err
	}
	tournament.FormatID = &formatID
	tournament.ActiveCourtIDs = append([]int(nil), courtIDs...)

	// First pool-play stage gets its skeleton rows up front so the venue
	// view can show empty pools on their courts before assignment runs.
	first := format.Stages[0]
	if first.Kind == formats.StagePoolPlay {
		courtVals := make([]models.Court, 0, len(courts))
		for _, c := range courts {
			courtVals = append(courtVals, *c)
		}
		for _, shape := range first.Pools {
			court, bindErr := courtForSlot(courtVals, first.CourtBindings, shape.Name)
			if bindErr != nil {
				return nil, bindErr
			}
			pool := &models.Pool{
				TournamentID: tournamentID,
				StageKey:     first.Key,
				Name:         shape.Name,
				RequiredSize: shape.Size,
				Facility:     &court.Facility,
				Court:        &court.Name,
			}
			if err := s.poolRepo.Create(ctx, nil, pool); err != nil {
				return nil, err
			}
		}
	}

	return tournament, nil
}

// GeneratePools populates a pool-play stage from the canonical mapping
// with rematch avoidance. Repopulating is harmless while the stage has
// no matches; once matches exist it requires force, which discards them
// and their scoreboards.
func (s *stageService) GeneratePools(ctx context.Context, tournamentID int, stageKey string, force bool) ([]*models.Pool, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	tournament, format, err := loadTournamentWithFormat(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	stage, ok := format.Stage(stageKey)
	if !ok {
		return nil, ErrStageNotFound
	}
	if stage.Kind != formats.StagePoolPlay {
		return nil, &InvalidInputError{Field: "stage_key", Reason: fmt.Sprintf("stage %s is not a pool-play stage", stageKey)}
	}

	matchCount, err := s.matchRepo.CountByStage(ctx, tournamentID, stageKey)
	if err != nil {
		return nil, err
	}
	if matchCount > 0 {
		if !force {
			return nil, &AlreadyExistsError{
				Resource: "matches",
				Detail:   fmt.Sprintf("%d matches for stage %s would be discarded", matchCount, stageKey),
				Count:    matchCount,
			}
		}
		if err := s.scoreboardRepo.DeleteByStage(ctx, nil, tournamentID, stageKey); err != nil {
			return nil, err
		}
		if err := s.matchRepo.DeleteByStage(ctx, nil, tournamentID, stageKey); err != nil {
			return nil, err
		}
	}

	input, err := s.assignmentInput(ctx, tournament, format, stage)
	if err != nil {
		return nil, err
	}

	assigned, err := scheduling.AssignPools(*input)
	if err != nil {
		var missing *scheduling.MissingSourceError
		if errors.As(err, &missing) {
			return nil, &PrereqNotMetError{Missing: missing.Slots}
		}
		return nil, err
	}

	return s.persistAssignment(ctx, tournament, stage, assigned)
}

func (s *stageService) ListPools(ctx context.Context, tournamentID int, stageKey string) ([]*models.Pool, error) {
	return s.poolRepo.ListByStage(ctx, tournamentID, stageKey)
}

// assignmentInput gathers seeds, source rankings, and rematch history
// for a stage. First stages draw on the team seed order; later stages
// need every source pool decided and collect all prior finalized
// pairings for swap avoidance.
func (s *stageService) assignmentInput(ctx context.Context, tournament *models.Tournament, format formats.FormatDefinition, stage formats.StageDefinition) (*scheduling.AssignmentInput, error) {
	input := &scheduling.AssignmentInput{Stage: stage}

	if stage.SourceStage == "" {
		teams, err := s.teamRepo.ListByTournament(ctx, tournament.ID)
		if err != nil {
			return nil, err
		}
		order := make([]int, 0, len(teams))
		for _, t := range teams {
			order = append(order, t.ID)
		}
		input.SeedOrder = order
		input.PlayedPairs = map[scheduling.PairKey]bool{}
		return input, nil
	}

	sourcePools, err := s.poolRepo.ListByStage(ctx, tournament.ID, stage.SourceStage)
	if err != nil {
		return nil, err
	}
	if len(sourcePools) == 0 {
		return nil, &PrereqNotMetError{Missing: []string{fmt.Sprintf("%s pools not generated", stage.SourceStage)}}
	}
	sourceMatches, err := s.matchRepo.ListByStage(ctx, tournament.ID, stage.SourceStage)
	if err != nil {
		return nil, err
	}

	ranks, missing := stageRanks(sourcePools, sourceMatches, stage.SourceStage)
	if len(missing) > 0 {
		return nil, &PrereqNotMetError{Missing: missing}
	}
	input.SourceRanks = ranks
	input.SeedOrder = overallOrder(sourcePools, ranks, sourceMatches)

	prior, err := s.matchRepo.ListFinalByStages(ctx, tournament.ID, format.StagesBefore(stage.Key))
	if err != nil {
		return nil, err
	}
	input.PlayedPairs = playedPairs(prior)
	return input, nil
}

// persistAssignment writes assigned memberships and warnings, creating
// pool rows with their court bindings on first generation and reusing
// them afterwards.
func (s *stageService) persistAssignment(ctx context.Context, tournament *models.Tournament, stage formats.StageDefinition, assigned []scheduling.AssignedPool) ([]*models.Pool, error) {
	courts, err := activeCourts(ctx, s.venueRepo, tournament)
	if err != nil {
		return nil, err
	}

	existing, err := s.poolRepo.ListByStage(ctx, tournament.ID, stage.Key)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.Pool, len(existing))
	for _, p := range existing {
		byName[p.Name] = p
	}

	out := make([]*models.Pool, 0, len(assigned))
	for _, a := range assigned {
		pool, ok := byName[a.Name]
		if !ok {
			court, bindErr := courtForSlot(courts, stage.CourtBindings, a.Name)
			if bindErr != nil {
				return nil, bindErr
			}
			shape := poolShape(stage, a.Name)
			pool = &models.Pool{
				TournamentID: tournament.ID,
				StageKey:     stage.Key,
				Name:         a.Name,
				RequiredSize: shape.Size,
				Facility:     &court.Facility,
				Court:        &court.Name,
			}
			if err := s.poolRepo.Create(ctx, nil, pool); err != nil {
				return nil, err
			}
		}

		if err := s.poolRepo.ReplaceMembers(ctx, nil, pool.ID, a.TeamIDs); err != nil {
			return nil, err
		}
		if err := s.poolRepo.ReplaceWarnings(ctx, nil, pool.ID, a.Warnings); err != nil {
			return nil, err
		}
		pool.TeamIDs = a.TeamIDs
		pool.RematchWarnings = a.Warnings
		out = append(out, pool)
	}
	return out, nil
}

// countGenerated totals pools and matches across every stage of the
// format, the figure a non-forced ApplyFormat reports before refusing.
func (s *stageService) countGenerated(ctx context.Context, tournamentID int, format formats.FormatDefinition) (int, error) {
	total := 0
	for _, stage := range format.Stages {
		pools, err := s.poolRepo.ListByStage(ctx, tournamentID, stage.Key)
		if err != nil {
			return 0, err
		}
		total += len(pools)
		matches, err := s.matchRepo.CountByStage(ctx, tournamentID, stage.Key)
		if err != nil {
			return 0, err
		}
		total += matches
	}
	return total, nil
}

func (s *stageService) discardAllStages(ctx context.Context, tournamentID int, format formats.FormatDefinition) error {
	for _, stage := range format.Stages {
		if err := s.scoreboardRepo.DeleteByStage(ctx, nil, tournamentID, stage.Key); err != nil {
			return err
		}
		if err := s.matchRepo.DeleteByStage(ctx, nil, tournamentID, stage.Key); err != nil {
			return err
		}
		if err := s.poolRepo.DeleteByStage(ctx, nil, tournamentID, stage.Key); err != nil {
			return err
		}
	}
	return nil
}

func poolShape(stage formats.StageDefinition, name string) formats.PoolShape {
	for _, shape := range stage.Pools {
		if shape.Name == name {
			return shape
		}
	}
	return formats.PoolShape{Name: name}
}
