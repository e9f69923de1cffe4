package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/queue"
	"github.com/iliyamo/seat-planner/internal/repository"
	"github.com/iliyamo/seat-planner/internal/validation"
)

// MaxImportRows bounds a single import.
const MaxImportRows = 1000

// firstDataRow is the spreadsheet line of rows[0] when rows carry no
// line of their own; line 1 holds headers.
const firstDataRow = 2

// ImportResult summarises an import.  Total always equals
// Success + Skipped + Failed.
type ImportResult struct {
	Total   int                     `json:"total"`
	Success int                     `json:"success"`
	Skipped int                     `json:"skipped"`
	Failed  int                     `json:"failed"`
	Errors  []validation.FieldError `json:"errors"`
	Message string                  `json:"message"`
}

// ImportPersons loads spreadsheet rows in two phases.  First every row is
// validated without touching the store; a single invalid row rejects the
// whole batch with the complete error list.  Then rows are inserted one
// by one: a name already present (ignoring case) in the store or earlier
// in the batch is skipped, the ambassador is matched ignoring case and
// created when missing, and a failing row is recorded without stopping
// the rest.
func (s *Service) ImportPersons(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	res, err := s.importPersons(ctx, rows)
	if res != nil {
		s.metrics.ImportRows(res.Success, res.Skipped, res.Failed)
	}
	return res, s.finish("import_persons", err)
}

func (s *Service) importPersons(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, invalid("the import contains no rows")
	}
	if len(rows) > MaxImportRows {
		return nil, invalid(fmt.Sprintf("an import may contain at most %d rows, got %d", MaxImportRows, len(rows)))
	}

	positions := make([]model.Position, len(rows))
	var problems []validation.FieldError
	for i := range rows {
		line := rows[i].lineNumber(i)
		rows[i].normalize()
		check := validation.CheckRow(line, rows[i])
		problems = append(problems, check.Errors...)
		if rows[i].Position == "" {
			continue
		}
		pos, ok := model.ParsePosition(rows[i].Position)
		if !ok {
			problems = append(problems, validation.FieldError{
				Row:     line,
				Field:   "position",
				Message: fmt.Sprintf("unknown position %q", rows[i].Position),
			})
			continue
		}
		positions[i] = pos
	}
	if len(problems) > 0 {
		return nil, invalid(fmt.Sprintf("import rejected: %d invalid fields", len(problems)), problems...)
	}

	res := &ImportResult{Total: len(rows), Errors: []validation.FieldError{}}
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		line := row.lineNumber(i)
		key := strings.ToLower(row.Name)
		if seen[key] {
			res.Skipped++
			continue
		}

		skipped, err := s.importRow(ctx, row, positions[i])
		switch {
		case err != nil:
			res.Failed++
			res.Errors = append(res.Errors, validation.FieldError{Row: line, Field: "name", Message: rowFailure(err)})
			s.log.WithError(err).WithField("row", line).Warn("import row failed")
		case skipped:
			res.Skipped++
			seen[key] = true
		default:
			res.Success++
			seen[key] = true
		}
	}
	res.Message = fmt.Sprintf("imported %d, skipped %d, failed %d of %d rows",
		res.Success, res.Skipped, res.Failed, res.Total)

	if res.Success > 0 {
		s.committed(ctx, queue.NewEvent(queue.EventPersonsImported, res.Message))
	}
	return res, nil
}

// importRow inserts one validated row in its own transaction.  It reports
// skipped when a person with the same name already exists.
func (s *Service) importRow(ctx context.Context, row ImportRow, pos model.Position) (bool, error) {
	skipped := false
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		_, err := q.FindPersonByNameFold(ctx, row.Name)
		switch {
		case err == nil:
			skipped = true
			return nil
		case !errors.Is(err, repository.ErrPersonNotFound):
			return fromStore(err, "look up person")
		}

		amb, err := q.FindAmbassadorByNameFold(ctx, row.AmbassadorName)
		if errors.Is(err, repository.ErrAmbassadorNotFound) {
			amb = &model.Ambassador{Name: row.AmbassadorName}
			err = q.CreateAmbassador(ctx, amb)
		}
		if err != nil {
			return fromStore(err, "resolve ambassador")
		}

		p := &model.Person{
			Name:         row.Name,
			AmbassadorID: &amb.ID,
			Position:     &pos,
			Tel:          optional(row.Tel),
			Background:   optional(row.Background),
			Info:         optional(row.Info),
		}
		return fromStore(q.CreatePerson(ctx, p), "create person")
	})
	return skipped, err
}

func rowFailure(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Kind != KindInternal {
		return se.Message
	}
	return "could not be saved"
}
