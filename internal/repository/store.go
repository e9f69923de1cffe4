package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Store is a Querier that can also run a function inside a transaction.
// The function receives a Querier bound to the transaction; when it
// returns an error every write it made is rolled back.
type Store interface {
	Querier
	WithinTx(ctx context.Context, fn func(q Querier) error) error
}

// Queries bundles the per-table repositories over one DB handle.
type Queries struct {
	*ConfigRepo
	*AmbassadorRepo
	*PersonRepo
	*AssignmentRepo
}

// NewQueries builds every repository over db, which may be a *sql.DB or
// a *sql.Tx.
func NewQueries(db DBTX) *Queries {
	return &Queries{
		ConfigRepo:     NewConfigRepo(db),
		AmbassadorRepo: NewAmbassadorRepo(db),
		PersonRepo:     NewPersonRepo(db),
		AssignmentRepo: NewAssignmentRepo(db),
	}
}

// SQLStore is the MySQL backed Store.
type SQLStore struct {
	*Queries
	db *sql.DB
}

// NewSQLStore wraps an open connection pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{Queries: NewQueries(db), db: db}
}

// DB exposes the underlying pool for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

// WithinTx runs fn in a transaction.  The transaction is committed only
// when fn returns nil; otherwise, or when the context is cancelled, it is
// rolled back.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(NewQueries(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	committed = true
	return nil
}

var _ Store = (*SQLStore)(nil)
