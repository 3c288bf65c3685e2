package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jacobneff/scorebugger/formats"
	"github.com/jacobneff/scorebugger/models"
	"github.com/jacobneff/scorebugger/repositories"
	"github.com/jacobneff/scorebugger/scheduling"
)

type PlayoffService interface {
	GeneratePlayoffs(ctx context.Context, tournamentID int, force bool) ([]*models.Match, error)
	GenerateNextRound(ctx context.Context, tournamentID int, bracketName string) ([]*models.Match, error)
}

type playoffService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	poolRepo       repositories.PoolRepository
	matchRepo      repositories.MatchRepository
	scoreboardRepo repositories.ScoreboardRepository
	venueRepo      repositories.VenueRepository
	locks          *TournamentLocks
}

func NewPlayoffService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	poolRepo repositories.PoolRepository,
	matchRepo repositories.MatchRepository,
	scoreboardRepo repositories.ScoreboardRepository,
	venueRepo repositories.VenueRepository,
	locks *TournamentLocks,
) PlayoffService {
	return &playoffService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		poolRepo:       poolRepo,
		matchRepo:      matchRepo,
		scoreboardRepo: scoreboardRepo,
		venueRepo:      venueRepo,
		locks:          locks,
	}
}

// GeneratePlayoffs seeds every bracket from the cumulative standings and
// creates each bracket's determinable matches: the full schedule for
// fixed brackets, round one only for elimination brackets. Byes are
// written as already-final single-participant matches. All pre-playoff
// stages must be fully decided first.
func (s *playoffService) GeneratePlayoffs(ctx context.Context, tournamentID int, force bool) ([]*models.Match, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	tournament, format, err := loadTournamentWithFormat(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	stage, ok := format.PlayoffStage()
	if !ok {
		return nil, ErrStageNotFound
	}

	if missing, checkErr := s.unmetSources(ctx, tournamentID, format, stage); checkErr != nil {
		return nil, checkErr
	} else if len(missing) > 0 {
		return nil, &PrereqNotMetError{Missing: missing}
	}

	existing, err := s.matchRepo.CountByStage(ctx, tournamentID, stage.Key)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		if !force {
			return nil, &AlreadyExistsError{
				Resource: "matches",
				Detail:   fmt.Sprintf("%d playoff matches would be discarded", existing),
				Count:    existing,
			}
		}
		if err := s.scoreboardRepo.DeleteByStage(ctx, nil, tournamentID, stage.Key); err != nil {
			return nil, err
		}
		if err := s.matchRepo.DeleteByStage(ctx, nil, tournamentID, stage.Key); err != nil {
			return nil, err
		}
	}

	order, err := s.cumulativeOrder(ctx, tournamentID, format, stage)
	if err != nil {
		return nil, err
	}

	courts, err := activeCourts(ctx, s.venueRepo, tournament)
	if err != nil {
		return nil, err
	}
	maxBlock, err := s.matchRepo.MaxRoundBlock(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	firstBlock := maxBlock + 1

	created := make([]*models.Match, 0)
	for _, bracket := range stage.Brackets {
		if bracket.SeedTo > len(order) {
			return nil, &PrereqNotMetError{Missing: []string{
				fmt.Sprintf("bracket %s needs seeds through %d, standings cover %d", bracket.Name, bracket.SeedTo, len(order)),
			}}
		}
		seeds := make([]scheduling.BracketSeed, 0, bracket.Size)
		for rank := bracket.SeedFrom; rank <= bracket.SeedTo; rank++ {
			seeds = append(seeds, scheduling.BracketSeed{
				Seed:   rank - bracket.SeedFrom + 1,
				TeamID: order[rank-1],
			})
		}

		planned, planErr := scheduling.OpeningRound(bracket, seeds)
		if planErr != nil {
			return nil, planErr
		}
		court, bindErr := courtForSlot(courts, stage.CourtBindings, bracket.Name)
		if bindErr != nil {
			return nil, bindErr
		}

		// Each bracket has one bound court, so its matches run one per
		// block. Byes occupy no court time and stay at the opening block.
		block := firstBlock
		for _, p := range planned {
			matchBlock := firstBlock
			if !p.IsBye {
				matchBlock = block
				block++
			}
			match, createErr := s.createBracketMatch(ctx, tournament.ID, stage.Key, court, p, matchBlock)
			if createErr != nil {
				return nil, createErr
			}
			created = append(created, match)
		}
	}
	return created, nil
}

// GenerateNextRound pairs the winners of an elimination bracket's last
// completed round. Rounds are never pre-created, so the round after a
// bye round is the first time the bye's holder gets an opponent.
func (s *playoffService) GenerateNextRound(ctx context.Context, tournamentID int, bracketName string) ([]*models.Match, error) {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	tournament, format, err := loadTournamentWithFormat(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	stage, ok := format.PlayoffStage()
	if !ok {
		return nil, ErrStageNotFound
	}
	bracket, ok := bracketShape(stage, bracketName)
	if !ok {
		return nil, &InvalidInputError{Field: "bracket", Reason: fmt.Sprintf("no bracket %q in stage %s", bracketName, stage.Key)}
	}
	if bracket.Type == formats.BracketFixed {
		return nil, &InvalidInputError{Field: "bracket", Reason: fmt.Sprintf("bracket %s is fully scheduled at playoff generation", bracketName)}
	}

	all, err := s.matchRepo.ListByStage(ctx, tournamentID, stage.Key)
	if err != nil {
		return nil, err
	}
	var mine []*models.Match
	lastRound := 0
	for _, m := range all {
		if m.BracketKey == nil || !strings.HasPrefix(*m.BracketKey, bracketName+":") {
			continue
		}
		mine = append(mine, m)
		if round, _, _, parseErr := parseBracketKey(*m.BracketKey); parseErr == nil && round > lastRound {
			lastRound = round
		}
	}
	if len(mine) == 0 {
		return nil, &PrereqNotMetError{Missing: []string{fmt.Sprintf("bracket %s not generated", bracketName)}}
	}

	advancers, missing, err := roundAdvancers(mine, bracketName, lastRound)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &PrereqNotMetError{Missing: missing}
	}
	if len(advancers) < 2 {
		return nil, &InvalidInputError{Field: "bracket", Reason: fmt.Sprintf("bracket %s is complete", bracketName)}
	}

	planned, err := scheduling.NextRound(bracket, lastRound+1, advancers)
	if err != nil {
		return nil, err
	}

	courts, err := activeCourts(ctx, s.venueRepo, tournament)
	if err != nil {
		return nil, err
	}
	court, err := courtForSlot(courts, stage.CourtBindings, bracketName)
	if err != nil {
		return nil, err
	}
	maxBlock, err := s.matchRepo.MaxRoundBlock(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	// Later rounds start at the next free block and run one match per
	// block on the bracket's court.
	created := make([]*models.Match, 0, len(planned))
	block := maxBlock + 1
	for _, p := range planned {
		match, createErr := s.createBracketMatch(ctx, tournament.ID, stage.Key, court, p, block)
		if createErr != nil {
			return nil, createErr
		}
		block++
		created = append(created, match)
	}
	return created, nil
}

func (s *playoffService) createBracketMatch(ctx context.Context, tournamentID int, stageKey string, court models.Court, planned scheduling.BracketMatch, block int) (*models.Match, error) {
	key := planned.Key
	match := &models.Match{
		TournamentID: tournamentID,
		StageKey:     stageKey,
		RoundBlock:   block,
		Facility:     court.Facility,
		Court:        court.Name,
		TeamAID:      planned.TeamA,
		TeamBID:      planned.TeamB,
		BracketKey:   &key,
		Status:       models.MatchScheduled,
	}
	if planned.IsBye {
		match.Status = models.MatchFinal
		match.Result = &models.MatchResult{WinnerTeamID: planned.TeamA}
	}

	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		return nil, err
	}
	if !match.IsBye() {
		board := &models.Scoreboard{MatchID: match.ID}
		if err := s.scoreboardRepo.Create(ctx, nil, board); err != nil {
			return nil, err
		}
		if err := s.matchRepo.SetScoreboardID(ctx, nil, match.ID, board.ID); err != nil {
			return nil, err
		}
		match.ScoreboardID = &board.ID
	}
	return match, nil
}

// unmetSources checks every pre-playoff stage: pool-play stages need all
// pools decided, crossover stages need their matches generated and
// finalized.
func (s *playoffService) unmetSources(ctx context.Context, tournamentID int, format formats.FormatDefinition, stage formats.StageDefinition) ([]string, error) {
	var missing []string
	for _, key := range format.StagesBefore(stage.Key) {
		source, _ := format.Stage(key)
		matches, err := s.matchRepo.ListByStage(ctx, tournamentID, key)
		if err != nil {
			return nil, err
		}

		switch source.Kind {
		case formats.StagePoolPlay:
			pools, poolErr := s.poolRepo.ListByStage(ctx, tournamentID, key)
			if poolErr != nil {
				return nil, poolErr
			}
			if len(pools) == 0 {
				missing = append(missing, fmt.Sprintf("%s pools not generated", key))
				continue
			}
			_, stageMissing := stageRanks(pools, matches, key)
			missing = append(missing, stageMissing...)
		case formats.StageCrossover:
			if len(matches) == 0 {
				missing = append(missing, fmt.Sprintf("%s matches not generated", key))
				continue
			}
			for _, m := range matches {
				if !m.IsFinal() {
					missing = append(missing, fmt.Sprintf("%s has unfinalized matches", key))
					break
				}
			}
		}
	}
	return missing, nil
}

// cumulativeOrder ranks the full field over every finalized pre-playoff
// match, pool placement first: all pool winners of the last pool stage
// outrank all runners-up, record breaking ties within a band.
func (s *playoffService) cumulativeOrder(ctx context.Context, tournamentID int, format formats.FormatDefinition, stage formats.StageDefinition) ([]int, error) {
	priorKeys := format.StagesBefore(stage.Key)

	lastPoolStage := ""
	for _, key := range priorKeys {
		if def, ok := format.Stage(key); ok && def.Kind == formats.StagePoolPlay {
			lastPoolStage = key
		}
	}

	pools, err := s.poolRepo.ListByStage(ctx, tournamentID, lastPoolStage)
	if err != nil {
		return nil, err
	}
	stageMatches, err := s.matchRepo.ListByStage(ctx, tournamentID, lastPoolStage)
	if err != nil {
		return nil, err
	}
	ranks, missing := stageRanks(pools, stageMatches, lastPoolStage)
	if len(missing) > 0 {
		return nil, &PrereqNotMetError{Missing: missing}
	}

	prior, err := s.matchRepo.ListFinalByStages(ctx, tournamentID, priorKeys)
	if err != nil {
		return nil, err
	}
	return overallOrder(pools, ranks, prior), nil
}

func bracketShape(stage formats.StageDefinition, name string) (formats.BracketShape, bool) {
	for _, b := range stage.Brackets {
		if b.Name == name {
			return b, true
		}
	}
	return formats.BracketShape{}, false
}

// parseBracketKey decodes "gold:R2:1v4" or "silver:R1:3vBYE" into its
// round and seed pair.
func parseBracketKey(key string) (round, seedA, seedB int, err error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed bracket key %q", key)
	}
	if _, err = fmt.Sscanf(parts[1], "R%d", &round); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed bracket key %q", key)
	}
	seedParts := strings.SplitN(parts[2], "v", 2)
	if len(seedParts) != 2 {
		return 0, 0, 0, fmt.Errorf("malformed bracket key %q", key)
	}
	if _, err = fmt.Sscanf(seedParts[0], "%d", &seedA); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed bracket key %q", key)
	}
	if seedParts[1] == "BYE" {
		return round, seedA, 0, nil
	}
	if _, err = fmt.Sscanf(seedParts[1], "%d", &seedB); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed bracket key %q", key)
	}
	return round, seedA, seedB, nil
}

// roundAdvancers resolves the winners of one bracket round with their
// seeds, reading seeds back out of the match keys. Bye matches advance
// their holder immediately.
func roundAdvancers(matches []*models.Match, bracketName string, round int) ([]scheduling.BracketSeed, []string, error) {
	var advancers []scheduling.BracketSeed
	var missing []string
	for _, m := range matches {
		r, seedA, seedB, err := parseBracketKey(*m.BracketKey)
		if err != nil {
			return nil, nil, err
		}
		if r != round {
			continue
		}
		if m.IsBye() {
			advancers = append(advancers, scheduling.BracketSeed{Seed: seedA, TeamID: m.TeamAID})
			continue
		}
		if !m.IsFinal() || m.Result == nil {
			missing = append(missing, fmt.Sprintf("%s not finalized", *m.BracketKey))
			continue
		}
		seed := seedA
		if m.Result.WinnerTeamID != m.TeamAID {
			seed = seedB
		}
		advancers = append(advancers, scheduling.BracketSeed{Seed: seed, TeamID: m.Result.WinnerTeamID})
	}
	return advancers, missing, nil
}
