package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
)

// PersonRepo provides methods to work with persons in the database.
type PersonRepo struct {
	db DBTX
}

// NewPersonRepo constructs a PersonRepo with the given DB handle.
func NewPersonRepo(db DBTX) *PersonRepo {
	return &PersonRepo{db: db}
}

const personColumns = `p.id, p.name, p.ambassador_id, p.position, p.tel, p.background, p.info, p.created_at`

// GetPerson retrieves a person by ID.  It returns ErrPersonNotFound when
// no row is found.
func (r *PersonRepo) GetPerson(ctx context.Context, id uint64) (*model.Person, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons p WHERE p.id = ?`, id)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, errors.Wrap(err, "select person")
	}
	return p, nil
}

// ListPersonsByIDs returns the persons whose IDs are in ids.  Missing IDs
// are absent from the result; callers compare lengths to detect them.
func (r *PersonRepo) ListPersonsByIDs(ctx context.Context, ids []uint64) ([]model.Person, error) {
	if len(ids) == 0 {
		return []model.Person{}, nil
	}
	ph, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons p WHERE p.id IN (`+ph+`) ORDER BY p.id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list persons by id")
	}
	defer rows.Close()

	out := make([]model.Person, 0, len(ids))
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan person")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate persons")
	}
	return out, nil
}

// FindPersonByNameFold returns the oldest person whose name matches name
// ignoring case.
func (r *PersonRepo) FindPersonByNameFold(ctx context.Context, name string) (*model.Person, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons p WHERE LOWER(p.name) = LOWER(?) ORDER BY p.id LIMIT 1`, name)
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, errors.Wrap(err, "select person by name")
	}
	return p, nil
}

// ListPersonViews returns every person joined with its ambassador name
// and its raw placement, ordered by creation time then id.  The placement
// is not checked against the configuration; that is the reconciler's job.
func (r *PersonRepo) ListPersonViews(ctx context.Context) ([]model.PersonView, error) {
	const q = `
		SELECT ` + personColumns + `, a.name, sa.desk_number, sa.seat_number
		FROM persons p
		LEFT JOIN ambassadors a ON a.id = p.ambassador_id
		LEFT JOIN seat_assignments sa ON sa.person_id = p.id
		ORDER BY p.created_at ASC, p.id ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list persons")
	}
	defer rows.Close()

	out := make([]model.PersonView, 0)
	for rows.Next() {
		var (
			v          model.PersonView
			amb, pos   sql.NullInt64
			tel, bg    sql.NullString
			info, name sql.NullString
			desk, seat sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &v.Name, &amb, &pos, &tel, &bg, &info, &v.CreatedAt,
			&name, &desk, &seat); err != nil {
			return nil, errors.Wrap(err, "scan person view")
		}
		v.AmbassadorID = uintPtr(amb)
		v.Position = positionPtr(pos)
		v.Tel = stringPtr(tel)
		v.Background = stringPtr(bg)
		v.Info = stringPtr(info)
		v.AmbassadorName = stringPtr(name)
		v.DeskNumber = intPtr(desk)
		v.SeatNumber = intPtr(seat)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate person views")
	}
	return out, nil
}

// CreatePerson inserts p.  On success p.ID and p.CreatedAt are set.
func (r *PersonRepo) CreatePerson(ctx context.Context, p *model.Person) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO persons (name, ambassador_id, position, tel, background, info, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, nullUint(p.AmbassadorID), nullPosition(p.Position),
		nullString(p.Tel), nullString(p.Background), nullString(p.Info), p.CreatedAt)
	if err != nil {
		return translate(err, "insert person")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "person last insert id")
	}
	p.ID = uint64(id)
	return nil
}

// UpdatePerson writes every mutable column of p.  It returns
// ErrPersonNotFound when the row does not exist.
func (r *PersonRepo) UpdatePerson(ctx context.Context, p *model.Person) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE persons SET name = ?, ambassador_id = ?, position = ?, tel = ?, background = ?, info = ?
		 WHERE id = ?`,
		p.Name, nullUint(p.AmbassadorID), nullPosition(p.Position),
		nullString(p.Tel), nullString(p.Background), nullString(p.Info), p.ID)
	if err != nil {
		return translate(err, "update person")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetPerson(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeletePersons removes the given persons.  Their seat assignments must be
// removed first within the same transaction.
func (r *PersonRepo) DeletePersons(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph, args := inClause(ids)
	res, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id IN (`+ph+`)`, args...)
	if err != nil {
		return 0, errors.Wrap(err, "delete persons")
	}
	return res.RowsAffected()
}

// ClearAmbassadorRefs sets ambassador_id to NULL on every person that
// points at one of ambassadorIDs.
func (r *PersonRepo) ClearAmbassadorRefs(ctx context.Context, ambassadorIDs []uint64) (int64, error) {
	if len(ambassadorIDs) == 0 {
		return 0, nil
	}
	ph, args := inClause(ambassadorIDs)
	res, err := r.db.ExecContext(ctx,
		`UPDATE persons SET ambassador_id = NULL WHERE ambassador_id IN (`+ph+`)`, args...)
	if err != nil {
		return 0, errors.Wrap(err, "clear ambassador references")
	}
	return res.RowsAffected()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(s rowScanner) (*model.Person, error) {
	var (
		p        model.Person
		amb, pos sql.NullInt64
		tel, bg  sql.NullString
		info     sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &amb, &pos, &tel, &bg, &info, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.AmbassadorID = uintPtr(amb)
	p.Position = positionPtr(pos)
	p.Tel = stringPtr(tel)
	p.Background = stringPtr(bg)
	p.Info = stringPtr(info)
	return &p, nil
}
