package database

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 4)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"), s)
		assert.NotContains(t, s, "--")
	}
	assert.Contains(t, stmts[3], "UNIQUE KEY uq_assignment_seat (desk_number, seat_number)")
	assert.Contains(t, stmts[3], "UNIQUE KEY uq_assignment_person (person_id)")
	assert.Contains(t, stmts[2], "ON DELETE SET NULL")
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherFunc(
		func(expected, actual string) error {
			if !strings.Contains(actual, expected) {
				return errors.Errorf("%q does not contain %q", actual, expected)
			}
			return nil
		})))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"config", "ambassadors", "persons", "seat_assignments"} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table + " (").
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS config").WillReturnError(errors.New("denied"))
	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema statement 1")
}

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "seats"}.DSN()
	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/seats?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
