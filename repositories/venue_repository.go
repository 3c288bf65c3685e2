package repositories

import (
	"context"
	"database/sql"

	"github.com/jacobneff/scorebugger/models"
)

// VenueRepository reads the court layout. Court administration is a
// separate surface; the scheduling core only needs the enabled courts in
// their display order.
type VenueRepository interface {
	ListEnabledCourts(ctx context.Context) ([]*models.Court, error)
	ListCourtsByIDs(ctx context.Context, ids []int) ([]*models.Court, error)
}

type postgresVenueRepository struct {
	db *sql.DB
}

func NewPostgresVenueRepository(db *sql.DB) VenueRepository {
	return &postgresVenueRepository{db: db}
}

func (r *postgresVenueRepository) ListEnabledCourts(ctx context.Context) ([]*models.Court, error) {
	query := `
		SELECT id, facility, name, enabled, position
		FROM courts
		WHERE enabled
		ORDER BY position ASC, id ASC`
	return r.list(ctx, query)
}

// ListCourtsByIDs preserves the order of ids, which is the tournament's
// active court order the format bindings index into.
func (r *postgresVenueRepository) ListCourtsByIDs(ctx context.Context, ids []int) ([]*models.Court, error) {
	if len(ids) == 0 {
		return []*models.Court{}, nil
	}

	query := `SELECT id, facility, name, enabled, position FROM courts WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, intArrayArg(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int]*models.Court, len(ids))
	for rows.Next() {
		var c models.Court
		if scanErr := rows.Scan(&c.ID, &c.Facility, &c.Name, &c.Enabled, &c.Position); scanErr != nil {
			return nil, scanErr
		}
		byID[c.ID] = &c
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*models.Court, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func (r *postgresVenueRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Court, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]*models.Court, 0)
	for rows.Next() {
		var c models.Court
		if scanErr := rows.Scan(&c.ID, &c.Facility, &c.Name, &c.Enabled, &c.Position); scanErr != nil {
			return nil, scanErr
		}
		courts = append(courts, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return courts, nil
}
