package services

import (
	"context"
	"sort"
	"time"

	"github.com/jacobneff/scorebugger/models"
	"github.com/jacobneff/scorebugger/repositories"
)

// In-memory repository fakes backing the service tests. They mirror the
// persistence contracts, including the sentinel errors, without a
// database.

type fakeStore struct {
	tournament *models.Tournament
	teams      []*models.Team
	courts     []*models.Court

	pools      map[int]*models.Pool
	matches    map[int]*models.Match
	boards     map[int]*models.Scoreboard
	nextPool   int
	nextMatch  int
	nextBoard  int
}

func newFakeStore(t *models.Tournament) *fakeStore {
	return &fakeStore{
		tournament: t,
		pools:      make(map[int]*models.Pool),
		matches:    make(map[int]*models.Match),
		boards:     make(map[int]*models.Scoreboard),
		nextPool:   1,
		nextMatch:  1,
		nextBoard:  1,
	}
}

type fakeTournamentRepo struct{ s *fakeStore }

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	if r.s.tournament == nil || r.s.tournament.ID != id {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *r.s.tournament
	return &copied, nil
}

func (r *fakeTournamentRepo) SetFormat(_ context.Context, _ repositories.SQLExecutor, id int, formatID string, courtIDs []int) error {
	if r.s.tournament == nil || r.s.tournament.ID != id {
		return repositories.ErrTournamentNotFound
	}
	r.s.tournament.FormatID = &formatID
	r.s.tournament.ActiveCourtIDs = append([]int(nil), courtIDs...)
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	if r.s.tournament == nil || r.s.tournament.ID != id {
		return repositories.ErrTournamentNotFound
	}
	r.s.tournament.Status = status
	return nil
}

type fakeTeamRepo struct{ s *fakeStore }

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	for _, t := range r.s.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Team, error) {
	out := make([]*models.Team, 0)
	for _, t := range r.s.teams {
		if t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Seed != nil && b.Seed != nil && *a.Seed != *b.Seed:
			return *a.Seed < *b.Seed
		case a.Seed != nil && b.Seed == nil:
			return true
		case a.Seed == nil && b.Seed != nil:
			return false
		}
		return a.ID < b.ID
	})
	return out, nil
}

type fakePoolRepo struct{ s *fakeStore }

func (r *fakePoolRepo) Create(_ context.Context, _ repositories.SQLExecutor, pool *models.Pool) error {
	pool.ID = r.s.nextPool
	r.s.nextPool++
	copied := *pool
	copied.TeamIDs = append([]int(nil), pool.TeamIDs...)
	r.s.pools[pool.ID] = &copied
	return nil
}

func (r *fakePoolRepo) GetByID(_ context.Context, id int) (*models.Pool, error) {
	p, ok := r.s.pools[id]
	if !ok {
		return nil, repositories.ErrPoolNotFound
	}
	copied := *p
	copied.TeamIDs = append([]int(nil), p.TeamIDs...)
	return &copied, nil
}

func (r *fakePoolRepo) ListByStage(_ context.Context, tournamentID int, stageKey string) ([]*models.Pool, error) {
	out := make([]*models.Pool, 0)
	for _, p := range r.s.pools {
		if p.TournamentID == tournamentID && p.StageKey == stageKey {
			copied := *p
			copied.TeamIDs = append([]int(nil), p.TeamIDs...)
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakePoolRepo) ReplaceMembers(_ context.Context, _ repositories.SQLExecutor, poolID int, teamIDs []int) error {
	p, ok := r.s.pools[poolID]
	if !ok {
		return repositories.ErrPoolNotFound
	}
	// Mirror the unique membership constraint across the stage.
	for _, t := range teamIDs {
		for _, other := range r.s.pools {
			if other.ID == poolID || other.StageKey != p.StageKey || other.TournamentID != p.TournamentID {
				continue
			}
			for _, existing := range other.TeamIDs {
				if existing == t {
					return repositories.ErrPoolMembershipConflict
				}
			}
		}
	}
	p.TeamIDs = append([]int(nil), teamIDs...)
	return nil
}

func (r *fakePoolRepo) ReplaceWarnings(_ context.Context, _ repositories.SQLExecutor, poolID int, warnings []models.RematchWarning) error {
	p, ok := r.s.pools[poolID]
	if !ok {
		return repositories.ErrPoolNotFound
	}
	p.RematchWarnings = append([]models.RematchWarning(nil), warnings...)
	return nil
}

func (r *fakePoolRepo) SetManualRankOverride(_ context.Context, poolID int, teamIDs []int) error {
	p, ok := r.s.pools[poolID]
	if !ok {
		return repositories.ErrPoolNotFound
	}
	p.ManualRankOverride = append([]int(nil), teamIDs...)
	return nil
}

func (r *fakePoolRepo) DeleteByStage(_ context.Context, _ repositories.SQLExecutor, tournamentID int, stageKey string) error {
	for id, p := range r.s.pools {
		if p.TournamentID == tournamentID && p.StageKey == stageKey {
			delete(r.s.pools, id)
		}
	}
	return nil
}

type fakeMatchRepo struct{ s *fakeStore }

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.ID = r.s.nextMatch
	r.s.nextMatch++
	match.CreatedAt = time.Now()
	copied := *match
	r.s.matches[match.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByStage(_ context.Context, tournamentID int, stageKey string) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID && m.StageKey == stageKey {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundBlock != out[j].RoundBlock {
			return out[i].RoundBlock < out[j].RoundBlock
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeMatchRepo) ListFinalByStages(_ context.Context, tournamentID int, stageKeys []string) ([]*models.Match, error) {
	keys := make(map[string]bool, len(stageKeys))
	for _, k := range stageKeys {
		keys[k] = true
	}
	out := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID && keys[m.StageKey] && m.Status == models.MatchFinal {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) CountByStage(_ context.Context, tournamentID int, stageKey string) (int, error) {
	count := 0
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID && m.StageKey == stageKey {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) MaxRoundBlock(_ context.Context, tournamentID int) (int, error) {
	max := 0
	for _, m := range r.s.matches {
		if m.TournamentID == tournamentID && m.RoundBlock > max {
			max = m.RoundBlock
		}
	}
	return max, nil
}

func (r *fakeMatchRepo) Unfinalize(_ context.Context, id int) error {
	m, ok := r.s.matches[id]
	if !ok || m.Status != models.MatchFinal {
		return repositories.ErrMatchNotFound
	}
	m.Status = models.MatchEnded
	m.Result = nil
	return nil
}

func (r *fakeMatchRepo) SetScoreboardID(_ context.Context, _ repositories.SQLExecutor, matchID, scoreboardID int) error {
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.ScoreboardID = &scoreboardID
	return nil
}

func (r *fakeMatchRepo) DeleteByStage(_ context.Context, _ repositories.SQLExecutor, tournamentID int, stageKey string) error {
	for id, m := range r.s.matches {
		if m.TournamentID == tournamentID && m.StageKey == stageKey {
			delete(r.s.matches, id)
		}
	}
	return nil
}

type fakeScoreboardRepo struct{ s *fakeStore }

func (r *fakeScoreboardRepo) Create(_ context.Context, _ repositories.SQLExecutor, board *models.Scoreboard) error {
	board.ID = r.s.nextBoard
	r.s.nextBoard++
	board.CreatedAt = time.Now()
	copied := *board
	r.s.boards[board.ID] = &copied
	return nil
}

func (r *fakeScoreboardRepo) GetByMatchID(_ context.Context, matchID int) (*models.Scoreboard, error) {
	for _, b := range r.s.boards {
		if b.MatchID == matchID {
			return b, nil
		}
	}
	return nil, repositories.ErrScoreboardNotFound
}

func (r *fakeScoreboardRepo) DeleteByStage(_ context.Context, _ repositories.SQLExecutor, tournamentID int, stageKey string) error {
	for id, b := range r.s.boards {
		if m, ok := r.s.matches[b.MatchID]; ok && m.TournamentID == tournamentID && m.StageKey == stageKey {
			delete(r.s.boards, id)
		}
	}
	return nil
}

type fakeVenueRepo struct{ s *fakeStore }

func (r *fakeVenueRepo) ListEnabledCourts(_ context.Context) ([]*models.Court, error) {
	out := make([]*models.Court, 0)
	for _, c := range r.s.courts {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeVenueRepo) ListCourtsByIDs(_ context.Context, ids []int) ([]*models.Court, error) {
	byID := make(map[int]*models.Court, len(r.s.courts))
	for _, c := range r.s.courts {
		byID[c.ID] = c
	}
	out := make([]*models.Court, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
