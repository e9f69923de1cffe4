package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
)

// AssignmentRepo provides methods to work with seat assignments.  Rows are
// never updated in place: a placement change deletes the person's row and
// inserts a new one, which is what lets a batch swap two occupants without
// tripping the (desk_number, seat_number) unique index mid-transaction.
type AssignmentRepo struct {
	db DBTX
}

// NewAssignmentRepo constructs an AssignmentRepo with the given DB handle.
func NewAssignmentRepo(db DBTX) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

const assignmentColumns = `id, person_id, desk_number, seat_number, updated_at`

// AssignmentForPerson returns the row of personID or ErrAssignmentNotFound.
func (r *AssignmentRepo) AssignmentForPerson(ctx context.Context, personID uint64) (*model.SeatAssignment, error) {
	return r.getOne(ctx,
		`SELECT `+assignmentColumns+` FROM seat_assignments WHERE person_id = ?`, personID)
}

// OccupantAt returns the row holding desk/seat or ErrAssignmentNotFound.
// Inside a transaction the row is locked so a concurrent writer cannot
// take the seat between the check and the insert.
func (r *AssignmentRepo) OccupantAt(ctx context.Context, desk, seat int) (*model.SeatAssignment, error) {
	return r.getOne(ctx,
		`SELECT `+assignmentColumns+` FROM seat_assignments WHERE desk_number = ? AND seat_number = ? FOR UPDATE`,
		desk, seat)
}

// ListAssignmentViews returns every stored assignment joined with its
// person and ambassador, ordered by desk, seat and then person id.
// Waiting-area rows sort first.
func (r *AssignmentRepo) ListAssignmentViews(ctx context.Context) ([]model.AssignmentView, error) {
	const q = `
		SELECT sa.id, sa.person_id, sa.desk_number, sa.seat_number, sa.updated_at,
		       p.name, p.ambassador_id, a.name, p.position, p.tel, p.background, p.info
		FROM seat_assignments sa
		JOIN persons p ON p.id = sa.person_id
		LEFT JOIN ambassadors a ON a.id = p.ambassador_id
		ORDER BY sa.desk_number ASC, sa.seat_number ASC, sa.person_id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list assignments")
	}
	defer rows.Close()

	out := make([]model.AssignmentView, 0)
	for rows.Next() {
		var (
			v            model.AssignmentView
			desk, seat   sql.NullInt64
			amb, pos     sql.NullInt64
			ambName, tel sql.NullString
			bg, info     sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.PersonID, &desk, &seat, &v.UpdatedAt,
			&v.Name, &amb, &ambName, &pos, &tel, &bg, &info); err != nil {
			return nil, errors.Wrap(err, "scan assignment view")
		}
		v.DeskNumber = intPtr(desk)
		v.SeatNumber = intPtr(seat)
		v.AmbassadorID = uintPtr(amb)
		v.AmbassadorName = stringPtr(ambName)
		v.Position = positionPtr(pos)
		v.Tel = stringPtr(tel)
		v.Background = stringPtr(bg)
		v.Info = stringPtr(info)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate assignments")
	}
	return out, nil
}

// DeleteAssignmentsForPersons removes the rows of the given persons and
// reports how many were deleted.
func (r *AssignmentRepo) DeleteAssignmentsForPersons(ctx context.Context, personIDs []uint64) (int64, error) {
	if len(personIDs) == 0 {
		return 0, nil
	}
	ph, args := inClause(personIDs)
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM seat_assignments WHERE person_id IN (`+ph+`)`, args...)
	if err != nil {
		return 0, errors.Wrap(err, "delete assignments")
	}
	return res.RowsAffected()
}

// InsertAssignment stores a.  A unique index violation on either the seat
// pair or the person is reported as ErrConflict.
func (r *AssignmentRepo) InsertAssignment(ctx context.Context, a *model.SeatAssignment) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seat_assignments (person_id, desk_number, seat_number, updated_at) VALUES (?, ?, ?, ?)`,
		a.PersonID, nullInt(a.DeskNumber), nullInt(a.SeatNumber), a.UpdatedAt)
	if err != nil {
		return translate(err, "insert assignment")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "assignment last insert id")
	}
	a.ID = uint64(id)
	return nil
}

func (r *AssignmentRepo) getOne(ctx context.Context, q string, args ...any) (*model.SeatAssignment, error) {
	var (
		a          model.SeatAssignment
		desk, seat sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&a.ID, &a.PersonID, &desk, &seat, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, errors.Wrap(err, "select assignment")
	}
	a.DeskNumber = intPtr(desk)
	a.SeatNumber = intPtr(seat)
	return &a, nil
}
