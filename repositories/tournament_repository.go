package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jacobneff/scorebugger/models"
	"github.com/lib/pq"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	SetFormat(ctx context.Context, exec SQLExecutor, id int, formatID string, activeCourtIDs []int) error
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, format_id, status, active_court_ids, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	var courtIDs pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.FormatID,
		&t.Status,
		&courtIDs,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	t.ActiveCourtIDs = int64sToInts(courtIDs)
	return t, nil
}

func (r *postgresTournamentRepository) SetFormat(ctx context.Context, exec SQLExecutor, id int, formatID string, activeCourtIDs []int) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE tournaments
		SET format_id = $1, active_court_ids = $2
		WHERE id = $3`

	result, err := exec.ExecContext(ctx, query, formatID, pq.Array(intsToInt64s(activeCourtIDs)), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func intsToInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func int64sToInts(in []int64) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
