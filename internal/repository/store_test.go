package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-planner/internal/model"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db), mock
}

func seat(d, s int) (*int, *int) { return &d, &s }

func TestWithinTx_RollsBackWhenLastInsertConflicts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_assignments WHERE person_id IN (?,?)")).
		WithArgs(5, 9).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_assignments")).
		WithArgs(5, 1, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_assignments")).
		WithArgs(9, 1, 1, sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-1' for key 'uq_desk_seat'"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(q Querier) error {
		if _, err := q.DeleteAssignmentsForPersons(context.Background(), []uint64{5, 9}); err != nil {
			return err
		}
		for _, id := range []uint64{5, 9} {
			d, s := seat(1, 1)
			if err := q.InsertAssignment(context.Background(), &model.SeatAssignment{PersonID: id, DeskNumber: d, SeatNumber: s}); err != nil {
				return err
			}
		}
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_assignments WHERE person_id IN (?)")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_assignments")).
		WithArgs(3, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	var inserted model.SeatAssignment
	err := store.WithinTx(context.Background(), func(q Querier) error {
		if _, err := q.DeleteAssignmentsForPersons(context.Background(), []uint64{3}); err != nil {
			return err
		}
		inserted = model.SeatAssignment{PersonID: 3}
		return q.InsertAssignment(context.Background(), &inserted)
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(4), inserted.ID)
	assert.False(t, inserted.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CallbackErrorRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.WithinTx(context.Background(), func(Querier) error { return boom })

	assert.Equal(t, boom, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestConfig(t *testing.T) {
	store, mock := newMockStore(t)
	updated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM config ORDER BY updated_at DESC, id DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "desk_count", "seats_per_desk", "display_columns", "table_cloth_color", "updated_at"}).
			AddRow(2, 6, 10, nil, "#112233", updated))

	cfg, err := store.LatestConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cfg.ID)
	assert.Equal(t, 6, cfg.DeskCount)
	assert.Equal(t, 10, cfg.SeatsPerDesk)
	assert.Nil(t, cfg.DisplayColumns)
	assert.Equal(t, "#112233", cfg.TableClothColor)
	assert.Equal(t, updated, cfg.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestConfig_EmptyTable(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM config")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.LatestConfig(context.Background())
	assert.Equal(t, ErrConfigNotFound, err)
}

func TestSaveConfig_InsertsFirstRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM config")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO config")).
		WithArgs(3, 6, nil, model.DefaultTableClothColor, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	cfg := &model.Config{DeskCount: 3, SeatsPerDesk: 6}
	require.NoError(t, store.SaveConfig(context.Background(), cfg))
	assert.Equal(t, uint64(7), cfg.ID)
	assert.Equal(t, model.DefaultTableClothColor, cfg.TableClothColor)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveConfig_UpdatesLatestRow(t *testing.T) {
	store, mock := newMockStore(t)
	cols := 4
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM config")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE config SET")).
		WithArgs(1, 8, 4, "#000000", sqlmock.AnyArg(), 12).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cfg := &model.Config{DeskCount: 1, SeatsPerDesk: 8, DisplayColumns: &cols, TableClothColor: "#000000"}
	require.NoError(t, store.SaveConfig(context.Background(), cfg))
	assert.Equal(t, uint64(12), cfg.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPersonViews_ScansNullableJoins(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "name", "ambassador_id", "position", "tel", "background", "info", "created_at",
		"ambassador_name", "desk_number", "seat_number",
	}).
		AddRow(1, "Alice", 3, 2, "123", nil, nil, created, "Bob", 2, 3).
		AddRow(2, "Carol", nil, nil, nil, nil, "note", created, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN seat_assignments sa ON sa.person_id = p.id")).
		WillReturnRows(rows)

	views, err := store.ListPersonViews(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	a := views[0]
	assert.Equal(t, "Alice", a.Name)
	require.NotNil(t, a.AmbassadorID)
	assert.Equal(t, uint64(3), *a.AmbassadorID)
	require.NotNil(t, a.Position)
	assert.Equal(t, model.PositionAssistant, *a.Position)
	assert.Equal(t, "Bob", *a.AmbassadorName)
	assert.Equal(t, 2, *a.DeskNumber)
	assert.Equal(t, 3, *a.SeatNumber)
	assert.Nil(t, a.Background)

	c := views[1]
	assert.Nil(t, c.AmbassadorID)
	assert.Nil(t, c.Position)
	assert.Nil(t, c.DeskNumber)
	assert.Equal(t, "note", *c.Info)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPerson_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM persons p WHERE p.id = ?")).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetPerson(context.Background(), 42)
	assert.Equal(t, ErrPersonNotFound, err)
}

func TestCreateAmbassador_DuplicateIsConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ambassadors")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := store.CreateAmbassador(context.Background(), &model.Ambassador{Name: "Bob"})
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestClearAmbassadorRefs(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE persons SET ambassador_id = NULL WHERE ambassador_id IN (?,?)")).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.ClearAmbassadorRefs(context.Background(), []uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestBulkDeletesSkipEmptyInput(t *testing.T) {
	store, mock := newMockStore(t)

	n, err := store.DeletePersons(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = store.DeleteAssignmentsForPersons(context.Background(), []uint64{})
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, translate(nil, "x"))

	plain := errors.New("connection reset")
	err := translate(plain, "insert person")
	assert.True(t, errors.Is(err, plain))
	assert.False(t, errors.Is(err, ErrConflict))

	other := &mysql.MySQLError{Number: 1452, Message: "foreign key"}
	assert.False(t, errors.Is(translate(other, "insert"), ErrConflict))
}
