package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jacobneff/scorebugger/models"
	"github.com/lib/pq"
)

var (
	ErrPoolNotFound = errors.New("pool not found")
	// ErrPoolMembershipConflict surfaces the unique membership constraint:
	// a team may appear in at most one pool of a stage.
	ErrPoolMembershipConflict = errors.New("team already assigned to another pool in this stage")
)

type PoolRepository interface {
	Create(ctx context.Context, exec SQLExecutor, pool *models.Pool) error
	GetByID(ctx context.Context, id int) (*models.Pool, error)
	ListByStage(ctx context.Context, tournamentID int, stageKey string) ([]*models.Pool, error)
	ReplaceMembers(ctx context.Context, exec SQLExecutor, poolID int, teamIDs []int) error
	ReplaceWarnings(ctx context.Context, exec SQLExecutor, poolID int, warnings []models.RematchWarning) error
	SetManualRankOverride(ctx context.Context, poolID int, teamIDs []int) error
	DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stageKey string) error
}

type postgresPoolRepository struct {
	db *sql.DB
}

func NewPostgresPoolRepository(db *sql.DB) PoolRepository {
	return &postgresPoolRepository{db: db}
}

func (r *postgresPoolRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPoolRepository) Create(ctx context.Context, exec SQLExecutor, pool *models.Pool) error {
	query := `
		INSERT INTO pools (tournament_id, stage_key, name, required_size, facility, court)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		pool.TournamentID,
		pool.StageKey,
		pool.Name,
		pool.RequiredSize,
		pool.Facility,
		pool.Court,
	).Scan(&pool.ID)
	if err != nil {
		return handlePoolError(err)
	}

	if len(pool.TeamIDs) > 0 {
		return r.ReplaceMembers(ctx, exec, pool.ID, pool.TeamIDs)
	}
	return nil
}

func (r *postgresPoolRepository) GetByID(ctx context.Context, id int) (*models.Pool, error) {
	query := `
		SELECT id, tournament_id, stage_key, name, required_size, facility, court, manual_rank_override
		FROM pools
		WHERE id = $1`

	pool, err := scanPool(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, []*models.Pool{pool}); err != nil {
		return nil, err
	}
	if err := r.loadWarnings(ctx, []*models.Pool{pool}); err != nil {
		return nil, err
	}
	return pool, nil
}

func (r *postgresPoolRepository) ListByStage(ctx context.Context, tournamentID int, stageKey string) ([]*models.Pool, error) {
	query := `
		SELECT id, tournament_id, stage_key, name, required_size, facility, court, manual_rank_override
		FROM pools
		WHERE tournament_id = $1 AND stage_key = $2
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, stageKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pools := make([]*models.Pool, 0)
	for rows.Next() {
		pool, scanErr := scanPool(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		pools = append(pools, pool)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadMembers(ctx, pools); err != nil {
		return nil, err
	}
	if err := r.loadWarnings(ctx, pools); err != nil {
		return nil, err
	}
	return pools, nil
}

// ReplaceMembers rewrites one pool's full ordered membership as a single
// statement pair. Callers sequencing multi-pool reassignments issue one
// call per write of their plan so the stage-wide unique membership
// constraint holds between calls.
func (r *postgresPoolRepository) ReplaceMembers(ctx context.Context, exec SQLExecutor, poolID int, teamIDs []int) error {
	e := r.getExecutor(exec)

	if _, err := e.ExecContext(ctx, `DELETE FROM pool_members WHERE pool_id = $1`, poolID); err != nil {
		return err
	}

	insert := `
		INSERT INTO pool_members (pool_id, tournament_id, stage_key, team_id, position)
		SELECT $1, p.tournament_id, p.stage_key, $2, $3 FROM pools p WHERE p.id = $1`
	for i, teamID := range teamIDs {
		if _, err := e.ExecContext(ctx, insert, poolID, teamID, i); err != nil {
			return handlePoolError(err)
		}
	}
	return nil
}

func (r *postgresPoolRepository) ReplaceWarnings(ctx context.Context, exec SQLExecutor, poolID int, warnings []models.RematchWarning) error {
	e := r.getExecutor(exec)

	if _, err := e.ExecContext(ctx, `DELETE FROM pool_warnings WHERE pool_id = $1`, poolID); err != nil {
		return err
	}
	insert := `INSERT INTO pool_warnings (pool_id, team_a_id, team_b_id) VALUES ($1, $2, $3)`
	for _, w := range warnings {
		if _, err := e.ExecContext(ctx, insert, poolID, w.TeamAID, w.TeamBID); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresPoolRepository) SetManualRankOverride(ctx context.Context, poolID int, teamIDs []int) error {
	query := `UPDATE pools SET manual_rank_override = $1 WHERE id = $2`
	var override interface{}
	if len(teamIDs) > 0 {
		override = pq.Array(intsToInt64s(teamIDs))
	}
	result, err := r.db.ExecContext(ctx, query, override, poolID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}

func (r *postgresPoolRepository) DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stageKey string) error {
	query := `DELETE FROM pools WHERE tournament_id = $1 AND stage_key = $2`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, stageKey)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPool(row rowScanner) (*models.Pool, error) {
	pool := &models.Pool{}
	var override pq.Int64Array
	err := row.Scan(
		&pool.ID,
		&pool.TournamentID,
		&pool.StageKey,
		&pool.Name,
		&pool.RequiredSize,
		&pool.Facility,
		&pool.Court,
		&override,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	pool.ManualRankOverride = int64sToInts(override)
	return pool, nil
}

func (r *postgresPoolRepository) loadMembers(ctx context.Context, pools []*models.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	byID := make(map[int]*models.Pool, len(pools))
	ids := make([]int64, 0, len(pools))
	for _, p := range pools {
		byID[p.ID] = p
		ids = append(ids, int64(p.ID))
	}

	query := `
		SELECT pool_id, team_id
		FROM pool_members
		WHERE pool_id = ANY($1)
		ORDER BY pool_id ASC, position ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var poolID, teamID int
		if scanErr := rows.Scan(&poolID, &teamID); scanErr != nil {
			return scanErr
		}
		if p, ok := byID[poolID]; ok {
			p.TeamIDs = append(p.TeamIDs, teamID)
		}
	}
	return rows.Err()
}

func (r *postgresPoolRepository) loadWarnings(ctx context.Context, pools []*models.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	byID := make(map[int]*models.Pool, len(pools))
	ids := make([]int64, 0, len(pools))
	for _, p := range pools {
		byID[p.ID] = p
		p.RematchWarnings = make([]models.RematchWarning, 0)
		ids = append(ids, int64(p.ID))
	}

	query := `
		SELECT pool_id, team_a_id, team_b_id
		FROM pool_warnings
		WHERE pool_id = ANY($1)
		ORDER BY pool_id ASC, team_a_id ASC, team_b_id ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var poolID int
		var w models.RematchWarning
		if scanErr := rows.Scan(&poolID, &w.TeamAID, &w.TeamBID); scanErr != nil {
			return scanErr
		}
		if p, ok := byID[poolID]; ok {
			p.RematchWarnings = append(p.RematchWarnings, w)
		}
	}
	return rows.Err()
}

func handlePoolError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" { // unique_violation
			return ErrPoolMembershipConflict
		}
	}
	return err
}
