// Package sheet reads import workbooks and writes the seating chart and
// sign-in workbooks.
package sheet

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/seat-planner/internal/service"
)

var (
	ErrEmptyWorkbook = errors.New("workbook has no sheets")
	ErrNoHeader      = errors.New("first sheet has no header row")
)

// headerAliases maps a normalised header cell to the import field it
// feeds.  Both the Chinese column titles used by the chart export and
// their English field names are accepted.
var headerAliases = map[string]string{
	"姓名":              "name",
	"name":            "name",
	"职务":              "position",
	"position":        "position",
	"电话":              "tel",
	"tel":             "tel",
	"phone":           "tel",
	"背景":              "background",
	"background":      "background",
	"传播大使":            "ambassador_name",
	"ambassador":      "ambassador_name",
	"ambassador_name": "ambassador_name",
	"其他信息":            "info",
	"info":            "info",
}

// requiredColumns must be present in the header row.
var requiredColumns = []string{"name", "position", "ambassador_name"}

// ReadImportRows parses the first sheet of an xlsx workbook.  Row 1 is
// the header; every following non-blank line becomes one ImportRow in
// sheet order.  Lines whose cells are all blank are dropped, and each row
// records its sheet line so the importer reports the line the operator
// sees.
func ReadImportRows(r io.Reader) ([]service.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	lines, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}
	if len(lines) == 0 {
		return nil, ErrNoHeader
	}

	cols := map[string]int{}
	for i, h := range lines[0] {
		if field, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, errors.Errorf("missing column %q", c)
		}
	}

	cell := func(line []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(line) {
			return ""
		}
		return line[i]
	}
	rows := make([]service.ImportRow, 0, len(lines)-1)
	for i, line := range lines[1:] {
		if blank(line) {
			continue
		}
		rows = append(rows, service.ImportRow{
			Line:           i + 2,
			Name:           cell(line, "name"),
			Position:       cell(line, "position"),
			AmbassadorName: cell(line, "ambassador_name"),
			Tel:            cell(line, "tel"),
			Background:     cell(line, "background"),
			Info:           cell(line, "info"),
		})
	}
	return rows, nil
}

func blank(line []string) bool {
	for _, c := range line {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
