package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jacobneff/scorebugger/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchTeamInvalid = errors.New("match references an unknown team")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByStage(ctx context.Context, tournamentID int, stageKey string) ([]*models.Match, error)
	ListFinalByStages(ctx context.Context, tournamentID int, stageKeys []string) ([]*models.Match, error)
	CountByStage(ctx context.Context, tournamentID int, stageKey string) (int, error)
	MaxRoundBlock(ctx context.Context, tournamentID int) (int, error)
	Unfinalize(ctx context.Context, id int) error
	SetScoreboardID(ctx context.Context, exec SQLExecutor, matchID, scoreboardID int) error
	DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stageKey string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, stage_key, pool_id, round_block, facility, court,
	team_a_id, team_b_id, referee_team_ids, scoreboard_id, bracket_key, status,
	winner_team_id, loser_team_id, sets_won_a, sets_won_b, points_a, points_b, set_scores,
	created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, stage_key, pool_id, round_block, facility, court,
			 team_a_id, team_b_id, referee_team_ids, bracket_key, status,
			 winner_team_id, loser_team_id, sets_won_a, sets_won_b, points_a, points_b, set_scores)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at`

	var winnerID, loserID, setsA, setsB, pointsA, pointsB interface{}
	var setScores interface{}
	if match.Result != nil {
		winnerID = match.Result.WinnerTeamID
		// Bye results record a winner with no opponent.
		if match.Result.LoserTeamID != 0 {
			loserID = match.Result.LoserTeamID
		}
		setsA = match.Result.SetsWonA
		setsB = match.Result.SetsWonB
		pointsA = match.Result.PointsA
		pointsB = match.Result.PointsB
		if len(match.Result.SetScores) > 0 {
			raw, err := json.Marshal(match.Result.SetScores)
			if err != nil {
				return err
			}
			setScores = raw
		}
	}

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.TournamentID,
		match.StageKey,
		match.PoolID,
		match.RoundBlock,
		match.Facility,
		match.Court,
		match.TeamAID,
		match.TeamBID,
		pq.Array(intsToInt64s(match.RefereeTeamIDs)),
		match.BracketKey,
		match.Status,
		winnerID, loserID, setsA, setsB, pointsA, pointsB, setScores,
	).Scan(&match.ID, &match.CreatedAt)

	return handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, tournamentID int, stageKey string) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND stage_key = $2
		ORDER BY round_block ASC, id ASC`
	return r.list(ctx, query, tournamentID, stageKey)
}

// ListFinalByStages returns the finalized matches of the named stages;
// it is the single read standings and rematch lookups are built on.
func (r *postgresMatchRepository) ListFinalByStages(ctx context.Context, tournamentID int, stageKeys []string) ([]*models.Match, error) {
	if len(stageKeys) == 0 {
		return []*models.Match{}, nil
	}
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND stage_key = ANY($2) AND status = 'final'
		ORDER BY round_block ASC, id ASC`
	return r.list(ctx, query, tournamentID, pq.Array(stageKeys))
}

func (r *postgresMatchRepository) CountByStage(ctx context.Context, tournamentID int, stageKey string) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND stage_key = $2`
	var count int
	err := r.db.QueryRowContext(ctx, query, tournamentID, stageKey).Scan(&count)
	return count, err
}

// MaxRoundBlock returns 0 for a tournament with no matches yet, so the
// next generated block is always max+1.
func (r *postgresMatchRepository) MaxRoundBlock(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COALESCE(MAX(round_block), 0) FROM matches WHERE tournament_id = $1`
	var max int
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&max)
	return max, err
}

// Unfinalize drops a match back to ended and clears its recorded result.
func (r *postgresMatchRepository) Unfinalize(ctx context.Context, id int) error {
	query := `
		UPDATE matches
		SET status = 'ended',
		    winner_team_id = NULL, loser_team_id = NULL,
		    sets_won_a = NULL, sets_won_b = NULL,
		    points_a = NULL, points_b = NULL, set_scores = NULL
		WHERE id = $1 AND status = 'final'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetScoreboardID(ctx context.Context, exec SQLExecutor, matchID, scoreboardID int) error {
	query := `UPDATE matches SET scoreboard_id = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, scoreboardID, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stageKey string) error {
	query := `DELETE FROM matches WHERE tournament_id = $1 AND stage_key = $2`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, stageKey)
	return err
}

func (r *postgresMatchRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var referees pq.Int64Array
	var winnerID, loserID, setsA, setsB, pointsA, pointsB sql.NullInt64
	var setScores []byte

	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.StageKey,
		&match.PoolID,
		&match.RoundBlock,
		&match.Facility,
		&match.Court,
		&match.TeamAID,
		&match.TeamBID,
		&referees,
		&match.ScoreboardID,
		&match.BracketKey,
		&match.Status,
		&winnerID, &loserID, &setsA, &setsB, &pointsA, &pointsB, &setScores,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	match.RefereeTeamIDs = int64sToInts(referees)

	if winnerID.Valid {
		result := &models.MatchResult{
			WinnerTeamID: int(winnerID.Int64),
			LoserTeamID:  int(loserID.Int64),
			SetsWonA:     int(setsA.Int64),
			SetsWonB:     int(setsB.Int64),
			PointsA:      int(pointsA.Int64),
			PointsB:      int(pointsB.Int64),
		}
		if len(setScores) > 0 {
			if jsonErr := json.Unmarshal(setScores, &result.SetScores); jsonErr != nil {
				return nil, jsonErr
			}
		}
		match.Result = result
	}
	return match, nil
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			return ErrMatchTeamInvalid
		}
	}
	return err
}
