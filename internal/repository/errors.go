// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// service package to distinguish between different failure scenarios
// without inspecting driver errors.
package repository

import (
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// ErrConflict is returned when a write violates a unique index, for
// example inserting a second assignment for an occupied desk/seat pair
// or a second row for the same person. Services translate this into a
// conflict error.
var ErrConflict = errors.New("conflict")

var (
	// ErrConfigNotFound is returned when the config table has no rows.
	ErrConfigNotFound = errors.New("config not found")
	// ErrPersonNotFound is returned when a person lookup yields no rows.
	ErrPersonNotFound = errors.New("person not found")
	// ErrAmbassadorNotFound is returned when an ambassador lookup yields no rows.
	ErrAmbassadorNotFound = errors.New("ambassador not found")
	// ErrAssignmentNotFound is returned when no seat assignment matches.
	ErrAssignmentNotFound = errors.New("seat assignment not found")
)

// mysqlDuplicateEntry is the server error number for unique index violations.
const mysqlDuplicateEntry = 1062

// translate maps driver errors onto the package sentinels.  Duplicate
// entries become ErrConflict; everything else is wrapped with msg.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return errors.Wrap(ErrConflict, me.Message)
	}
	return errors.Wrap(err, msg)
}
