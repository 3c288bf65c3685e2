package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jacobneff/scorebugger/models"
)

var ErrScoreboardNotFound = errors.New("scoreboard not found")

type ScoreboardRepository interface {
	Create(ctx context.Context, exec SQLExecutor, board *models.Scoreboard) error
	GetByMatchID(ctx context.Context, matchID int) (*models.Scoreboard, error)
	DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stageKey string) error
}

type postgresScoreboardRepository struct {
	db *sql.DB
}

func NewPostgresScoreboardRepository(db *sql.DB) ScoreboardRepository {
	return &postgresScoreboardRepository{db: db}
}

func (r *postgresScoreboardRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScoreboardRepository) Create(ctx context.Context, exec SQLExecutor, board *models.Scoreboard) error {
	query := `
		INSERT INTO scoreboards (match_id)
		VALUES ($1)
		RETURNING id, created_at`

	return r.getExecutor(exec).QueryRowContext(ctx, query, board.MatchID).
		Scan(&board.ID, &board.CreatedAt)
}

func (r *postgresScoreboardRepository) GetByMatchID(ctx context.Context, matchID int) (*models.Scoreboard, error) {
	query := `SELECT id, match_id, created_at FROM scoreboards WHERE match_id = $1`

	board := &models.Scoreboard{}
	err := r.db.QueryRowContext(ctx, query, matchID).Scan(&board.ID, &board.MatchID, &board.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoreboardNotFound
		}
		return nil, err
	}
	return board, nil
}

// DeleteByStage removes the scoreboards of every match in the stage,
// used when force regeneration discards the stage's matches.
func (r *postgresScoreboardRepository) DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stageKey string) error {
	query := `
		DELETE FROM scoreboards
		WHERE match_id IN (
			SELECT id FROM matches WHERE tournament_id = $1 AND stage_key = $2
		)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, stageKey)
	return err
}
