package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
)

// ConfigRepo reads and writes the seating configuration.  The table may
// hold several rows; only the one with the latest updated_at counts.
type ConfigRepo struct {
	db DBTX
}

// NewConfigRepo constructs a ConfigRepo with the given DB handle.
func NewConfigRepo(db DBTX) *ConfigRepo {
	return &ConfigRepo{db: db}
}

const configColumns = `id, desk_count, seats_per_desk, display_columns, table_cloth_color, updated_at`

// LatestConfig returns the authoritative configuration row or
// ErrConfigNotFound when the table is empty.
func (r *ConfigRepo) LatestConfig(ctx context.Context) (*model.Config, error) {
	const q = `SELECT ` + configColumns + ` FROM config ORDER BY updated_at DESC, id DESC LIMIT 1`
	c, err := scanConfig(r.db.QueryRowContext(ctx, q))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, errors.Wrap(err, "select latest config")
	}
	return c, nil
}

// SaveConfig overwrites the current row, or inserts the first one when
// the table is empty.  Historical rows are left untouched.  On success
// c.ID and c.UpdatedAt reflect the stored row.  Callers should run it
// inside a transaction so the lookup and the write see the same row.
func (r *ConfigRepo) SaveConfig(ctx context.Context, c *model.Config) error {
	if c.TableClothColor == "" {
		c.TableClothColor = model.DefaultTableClothColor
	}
	now := time.Now().UTC()

	var id uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM config ORDER BY updated_at DESC, id DESC LIMIT 1 FOR UPDATE`).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO config (desk_count, seats_per_desk, display_columns, table_cloth_color, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			c.DeskCount, c.SeatsPerDesk, nullInt(c.DisplayColumns), c.TableClothColor, now)
		if err != nil {
			return translate(err, "insert config")
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "config last insert id")
		}
		id = uint64(newID)
	case err != nil:
		return errors.Wrap(err, "lock latest config")
	default:
		if _, err := r.db.ExecContext(ctx,
			`UPDATE config SET desk_count = ?, seats_per_desk = ?, display_columns = ?, table_cloth_color = ?, updated_at = ?
			 WHERE id = ?`,
			c.DeskCount, c.SeatsPerDesk, nullInt(c.DisplayColumns), c.TableClothColor, now, id); err != nil {
			return translate(err, "update config")
		}
	}
	c.ID = id
	c.UpdatedAt = now
	return nil
}

func scanConfig(row *sql.Row) (*model.Config, error) {
	var (
		c    model.Config
		cols sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.DeskCount, &c.SeatsPerDesk, &cols, &c.TableClothColor, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.DisplayColumns = intPtr(cols)
	return &c, nil
}
