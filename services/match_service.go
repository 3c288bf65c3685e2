package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jacobneff/scorebugger/formats"
	"github.com/jacobneff/scorebugger/models"
	"github.com/jacobneff/scorebugger/repositories"
	"github.com/jacobneff/scorebugger/scheduling"
)

type MatchService interface {
	GenerateMatches(ctx context.Context, tournamentID int, stageKey string, force bool) ([]*models.Match, error)
	ListByStage(ctx context.Context, tournamentID int, stageKey string) ([]*models.Match, error)
	Unfinalize(ctx context.Context, tournamentID, matchID int) (*models.Match, error)
}

type matchService struct {
	tournamentRepo repositories.TournamentRepository
	poolRepo       repositories.PoolRepository
	matchRepo      repositories.MatchRepository
	scoreboardRepo repositories.ScoreboardRepository
	venueRepo      repositories.VenueRepository
	locks          *TournamentLocks
}

func NewMatchService(
	tournamentRepo repositories.TournamentRepository,
	poolRepo repositories.PoolRepository,
	matchRepo repositories.MatchRepository,
	scoreboardRepo repositories.ScoreboardRepository,
	venueRepo repositories.VenueRepository,
	locks *TournamentLocks,
) MatchService {
	return &matchService{
		tournamentRepo: tournamentRepo,
		poolRepo:       poolRepo,
		matchRepo:      matchRepo,
		scoreboardRepo: scoreboardRepo,
		venueRepo:      venueRepo,
		locks:          locks,
	}
}

// GenerateMatches expands a pool-play or crossover stage into its match
// set, each match bound to a court and a round-block and linked to a
// fresh scoreboard. Regenerating over existing matches requires force.
func (s *matchService) GenerateMatches(ctx context.Context, tournamentID int, stageKey string, force bool) ([]*models.Match, error) {
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

	existing, err := s.matchRepo.CountByStage(ctx, tournamentID, stageKey)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		if !force {
			return nil, &AlreadyExistsError{
				Resource: "matches",
				Detail:   fmt.Sprintf("%d matches for stage %s would be discarded", existing, stageKey),
				Count:    existing,
			}
		}
		if err := s.scoreboardRepo.DeleteByStage(ctx, nil, tournamentID, stageKey); err != nil {
			return nil, err
		}
		if err := s.matchRepo.DeleteByStage(ctx, nil, tournamentID, stageKey); err != nil {
			return nil, err
		}
	}

	maxBlock, err := s.matchRepo.MaxRoundBlock(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	firstBlock := maxBlock + 1

	switch stage.Kind {
	case formats.StagePoolPlay:
		return s.generatePoolMatches(ctx, tournament, stage, firstBlock)
	case formats.StageCrossover:
		return s.generateCrossoverMatches(ctx, tournament, format, stage, firstBlock)
	default:
		return nil, &InvalidInputError{Field: "stage_key", Reason: fmt.Sprintf("stage %s does not use match generation; use playoff generation", stageKey)}
	}
}

func (s *matchService) ListByStage(ctx context.Context, tournamentID int, stageKey string) ([]*models.Match, error) {
	return s.matchRepo.ListByStage(ctx, tournamentID, stageKey)
}

// Unfinalize reopens a finalized match: status drops back to ended and
// the recorded result is cleared, which immediately changes any
// standings computed afterwards.
func (s *matchService) Unfinalize(ctx context.Context, tournamentID, matchID int) (*models.Match, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.TournamentID != tournamentID {
		return nil, ErrMatchNotFound
	}
	if !match.IsFinal() {
		return nil, ErrMatchNotFinal
	}

	if err := s.matchRepo.Unfinalize(ctx, matchID); err != nil {
		return nil, err
	}
	match.Status = models.MatchEnded
	match.Result = nil
	return match, nil
}

// generatePoolMatches runs every pool's round robin in parallel blocks
// on the pool's own court. A pool blocks generation until it is filled
// to its required size and bound to a court.
func (s *matchService) generatePoolMatches(ctx context.Context, tournament *models.Tournament, stage formats.StageDefinition, firstBlock int) ([]*models.Match, error) {
	pools, err := s.poolRepo.ListByStage(ctx, tournament.ID, stage.Key)
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, &PrereqNotMetError{Missing: []string{fmt.Sprintf("%s pools not generated", stage.Key)}}
	}

	var missing []string
	for _, p := range pools {
		if len(p.TeamIDs) != p.RequiredSize {
			missing = append(missing, fmt.Sprintf("%s:%s has %d of %d teams", stage.Key, p.Name, len(p.TeamIDs), p.RequiredSize))
		}
		if p.Facility == nil || p.Court == nil {
			missing = append(missing, fmt.Sprintf("%s:%s has no court assigned", stage.Key, p.Name))
		}
	}
	if len(missing) > 0 {
		return nil, &PrereqNotMetError{Missing: missing}
	}

	sort.Slice(pools, func(i, j int) bool { return pools[i].Name < pools[j].Name })

	created := make([]*models.Match, 0)
	for _, pool := range pools {
		poolID := pool.ID
		for _, slot := range scheduling.RoundRobinPlan(pool.TeamIDs, firstBlock) {
			teamB := slot.TeamBID
			match := &models.Match{
				TournamentID:   tournament.ID,
				StageKey:       stage.Key,
				PoolID:         &poolID,
				RoundBlock:     slot.RoundBlock,
				Facility:       *pool.Facility,
				Court:          *pool.Court,
				TeamAID:        slot.TeamAID,
				TeamBID:        &teamB,
				RefereeTeamIDs: slot.RefereeTeamIDs,
				Status:         models.MatchScheduled,
			}
			if err := s.createWithScoreboard(ctx, match); err != nil {
				return nil, err
			}
			created = append(created, match)
		}
	}
	return created, nil
}

// generateCrossoverMatches pairs the two source pools rank to rank on
// the courts of the stage's bound facility.
func (s *matchService) generateCrossoverMatches(ctx context.Context, tournament *models.Tournament, format formats.FormatDefinition, stage formats.StageDefinition, firstBlock int) ([]*models.Match, error) {
	if stage.Crossover == nil {
		return nil, &InvalidInputError{Field: "stage_key", Reason: fmt.Sprintf("stage %s has no crossover rule", stage.Key)}
	}

	sourcePools, err := s.poolRepo.ListByStage(ctx, tournament.ID, stage.SourceStage)
	if err != nil {
		return nil, err
	}
	sourceMatches, err := s.matchRepo.ListByStage(ctx, tournament.ID, stage.SourceStage)
	if err != nil {
		return nil, err
	}
	ranks, missing := stageRanks(sourcePools, sourceMatches, stage.SourceStage)
	if len(missing) > 0 {
		return nil, &PrereqNotMetError{Missing: missing}
	}

	ranksA, okA := ranks[stage.Crossover.SourcePools[0]]
	ranksB, okB := ranks[stage.Crossover.SourcePools[1]]
	if !okA || !okB {
		return nil, &PrereqNotMetError{Missing: []string{fmt.Sprintf("%s source pools missing", stage.Key)}}
	}

	courts, err := activeCourts(ctx, s.venueRepo, tournament)
	if err != nil {
		return nil, err
	}
	anchor, err := courtForSlot(courts, stage.CourtBindings, stage.Key)
	if err != nil {
		return nil, err
	}
	facilityCourts := scheduling.CourtsInFacility(courts, anchor.Facility)

	slots, err := scheduling.CrossoverPlan(ranksA, ranksB, facilityCourts, firstBlock)
	if err != nil {
		return nil, err
	}

	created := make([]*models.Match, 0, len(slots))
	for _, slot := range slots {
		teamB := slot.TeamBID
		match := &models.Match{
			TournamentID: tournament.ID,
			StageKey:     stage.Key,
			RoundBlock:   slot.RoundBlock,
			Facility:     slot.Court.Facility,
			Court:        slot.Court.Name,
			TeamAID:      slot.TeamAID,
			TeamBID:      &teamB,
			Status:       models.MatchScheduled,
		}
		if err := s.createWithScoreboard(ctx, match); err != nil {
			return nil, err
		}
		created = append(created, match)
	}
	return created, nil
}

// createWithScoreboard persists a match and its one scoreboard. Byes get
// no scoreboard: there is nothing to score.
func (s *matchService) createWithScoreboard(ctx context.Context, match *models.Match) error {
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		return err
	}
	if match.IsBye() {
		return nil
	}
	board := &models.Scoreboard{MatchID: match.ID}
	if err := s.scoreboardRepo.Create(ctx, nil, board); err != nil {
		return err
	}
	if err := s.matchRepo.SetScoreboardID(ctx, nil, match.ID, board.ID); err != nil {
		return err
	}
	match.ScoreboardID = &board.ID
	return nil
}
