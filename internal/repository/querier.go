package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/seat-planner/internal/model"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the repositories, so
// the same repository code runs inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Querier lists every data access operation the seating services need.
// SQLStore implements it on MySQL; internal/memstore implements it in
// memory for tests.
type Querier interface {
	LatestConfig(ctx context.Context) (*model.Config, error)
	SaveConfig(ctx context.Context, c *model.Config) error

	ListAmbassadors(ctx context.Context) ([]model.Ambassador, error)
	ListAmbassadorsByIDs(ctx context.Context, ids []uint64) ([]model.Ambassador, error)
	GetAmbassador(ctx context.Context, id uint64) (*model.Ambassador, error)
	FindAmbassadorByName(ctx context.Context, name string) (*model.Ambassador, error)
	FindAmbassadorByNameFold(ctx context.Context, name string) (*model.Ambassador, error)
	CreateAmbassador(ctx context.Context, a *model.Ambassador) error
	RenameAmbassador(ctx context.Context, id uint64, name string) error
	DeleteAmbassadors(ctx context.Context, ids []uint64) (int64, error)

	GetPerson(ctx context.Context, id uint64) (*model.Person, error)
	ListPersonsByIDs(ctx context.Context, ids []uint64) ([]model.Person, error)
	FindPersonByNameFold(ctx context.Context, name string) (*model.Person, error)
	ListPersonViews(ctx context.Context) ([]model.PersonView, error)
	CreatePerson(ctx context.Context, p *model.Person) error
	UpdatePerson(ctx context.Context, p *model.Person) error
	DeletePersons(ctx context.Context, ids []uint64) (int64, error)
	ClearAmbassadorRefs(ctx context.Context, ambassadorIDs []uint64) (int64, error)

	AssignmentForPerson(ctx context.Context, personID uint64) (*model.SeatAssignment, error)
	OccupantAt(ctx context.Context, desk, seat int) (*model.SeatAssignment, error)
	ListAssignmentViews(ctx context.Context) ([]model.AssignmentView, error)
	DeleteAssignmentsForPersons(ctx context.Context, personIDs []uint64) (int64, error)
	InsertAssignment(ctx context.Context, a *model.SeatAssignment) error
}

// inClause builds "?,?,?" and the matching argument list for an IN (...)
// filter over ids.
func inClause(ids []uint64) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	return strings.Join(ph, ","), args
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullUint(p *uint64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullPosition(p *model.Position) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func uintPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func positionPtr(n sql.NullInt64) *model.Position {
	if !n.Valid {
		return nil
	}
	v := model.Position(n.Int64)
	return &v
}
