package database

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	"github.com/pkg/errors"
)

//go:embed schema.sql
var schema string

// Statements splits the embedded schema into individual statements,
// dropping comment lines and blank fragments.
func Statements() []string {
	var b strings.Builder
	for _, line := range strings.Split(schema, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Migrate applies the schema.  Tables that already exist are left alone.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "schema statement %d", i+1)
		}
	}
	return nil
}
