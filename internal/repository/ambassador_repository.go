package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
)

// AmbassadorRepo provides methods to work with ambassadors in the database.
type AmbassadorRepo struct {
	db DBTX
}

// NewAmbassadorRepo constructs an AmbassadorRepo with the given DB handle.
func NewAmbassadorRepo(db DBTX) *AmbassadorRepo {
	return &AmbassadorRepo{db: db}
}

// ListAmbassadors returns every ambassador, oldest first.
func (r *AmbassadorRepo) ListAmbassadors(ctx context.Context) ([]model.Ambassador, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM ambassadors ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list ambassadors")
	}
	return scanAmbassadors(rows)
}

// ListAmbassadorsByIDs returns the ambassadors whose IDs are in ids.
// Unknown IDs are silently absent from the result.
func (r *AmbassadorRepo) ListAmbassadorsByIDs(ctx context.Context, ids []uint64) ([]model.Ambassador, error) {
	if len(ids) == 0 {
		return []model.Ambassador{}, nil
	}
	ph, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM ambassadors WHERE id IN (`+ph+`) ORDER BY id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list ambassadors by id")
	}
	return scanAmbassadors(rows)
}

// GetAmbassador retrieves an ambassador by ID.  It returns
// ErrAmbassadorNotFound when no row is found.
func (r *AmbassadorRepo) GetAmbassador(ctx context.Context, id uint64) (*model.Ambassador, error) {
	return r.getOne(ctx, `SELECT id, name, created_at FROM ambassadors WHERE id = ?`, id)
}

// FindAmbassadorByName looks an ambassador up by exact, case-sensitive
// name.
func (r *AmbassadorRepo) FindAmbassadorByName(ctx context.Context, name string) (*model.Ambassador, error) {
	return r.getOne(ctx,
		`SELECT id, name, created_at FROM ambassadors WHERE BINARY name = ? ORDER BY id LIMIT 1`, name)
}

// FindAmbassadorByNameFold looks an ambassador up ignoring case.  When
// several rows match, the oldest wins.
func (r *AmbassadorRepo) FindAmbassadorByNameFold(ctx context.Context, name string) (*model.Ambassador, error) {
	return r.getOne(ctx,
		`SELECT id, name, created_at FROM ambassadors WHERE LOWER(name) = LOWER(?) ORDER BY id LIMIT 1`, name)
}

// CreateAmbassador inserts a.  On success a.ID and a.CreatedAt are set.
func (r *AmbassadorRepo) CreateAmbassador(ctx context.Context, a *model.Ambassador) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ambassadors (name, created_at) VALUES (?, ?)`, a.Name, a.CreatedAt)
	if err != nil {
		return translate(err, "insert ambassador")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "ambassador last insert id")
	}
	a.ID = uint64(id)
	return nil
}

// RenameAmbassador changes the name of ambassador id.  It returns
// ErrAmbassadorNotFound when nothing was updated.
func (r *AmbassadorRepo) RenameAmbassador(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE ambassadors SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return translate(err, "rename ambassador")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when the name is unchanged, so confirm existence.
		if _, err := r.GetAmbassador(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAmbassadors removes the given ambassadors and reports how many
// rows were deleted.  Person references must be cleared first (see
// PersonRepo.ClearAmbassadorRefs) when the foreign key is not declared
// with ON DELETE SET NULL.
func (r *AmbassadorRepo) DeleteAmbassadors(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph, args := inClause(ids)
	res, err := r.db.ExecContext(ctx, `DELETE FROM ambassadors WHERE id IN (`+ph+`)`, args...)
	if err != nil {
		return 0, errors.Wrap(err, "delete ambassadors")
	}
	return res.RowsAffected()
}

func (r *AmbassadorRepo) getOne(ctx context.Context, q string, args ...any) (*model.Ambassador, error) {
	var a model.Ambassador
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAmbassadorNotFound
		}
		return nil, errors.Wrap(err, "select ambassador")
	}
	return &a, nil
}

func scanAmbassadors(rows *sql.Rows) ([]model.Ambassador, error) {
	defer rows.Close()
	out := make([]model.Ambassador, 0)
	for rows.Next() {
		var a model.Ambassador
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan ambassador")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate ambassadors")
	}
	return out, nil
}
