package sheet

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/seat-planner/internal/model"
)

// ErrNothingToExport is returned by WriteSignInSheet when no eligible
// person is seated.
var ErrNothingToExport = errors.New("no seated persons to export")

// WaitingSheet names the sheet listing the waiting roster.
const WaitingSheet = "待分配"

var chartHeader = []any{"座位", "姓名", "职务", "电话", "传播大使", "背景", "其他信息"}

// DeskSheet names the sheet of desk n.
func DeskSheet(n int) string { return fmt.Sprintf("第%d组", n) }

// WriteSeatingChart writes one sheet per desk, listing every seat in
// order with its occupant, followed by a sheet for the waiting roster.
// The person columns use the import headers, so the waiting sheet can be
// fed back to ReadImportRows after removing the seat column.
func WriteSeatingChart(w io.Writer, layout *model.Layout) error {
	b, err := newBook()
	if err != nil {
		return err
	}
	defer b.f.Close()

	for _, d := range layout.Desks {
		rows := make([][]any, 0, len(d.Seats))
		for _, c := range d.Seats {
			rows = append(rows, append([]any{c.SeatNumber}, personCells(c.Person)...))
		}
		if err := b.table(DeskSheet(d.DeskNumber), "", chartHeader, rows); err != nil {
			return err
		}
	}

	rows := make([][]any, 0, len(layout.Waiting))
	for i := range layout.Waiting {
		rows = append(rows, append([]any{""}, personCells(&layout.Waiting[i])...))
	}
	if err := b.table(WaitingSheet, "", chartHeader, rows); err != nil {
		return err
	}
	return b.write(w)
}

// WriteSignInSheet writes one sign-in sheet per desk that has at least
// one seated person who is not a counselor.  Names are sorted within a
// desk and every row leaves an empty signature cell.
func WriteSignInSheet(w io.Writer, layout *model.Layout) error {
	type group struct {
		desk  int
		names []string
	}
	var groups []group
	for _, d := range layout.Desks {
		var names []string
		for _, c := range d.Seats {
			if c.Person == nil || isCounselor(c.Person) {
				continue
			}
			names = append(names, c.Person.Name)
		}
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)
		groups = append(groups, group{desk: d.DeskNumber, names: names})
	}
	if len(groups) == 0 {
		return ErrNothingToExport
	}

	b, err := newBook()
	if err != nil {
		return err
	}
	defer b.f.Close()
	for _, g := range groups {
		rows := make([][]any, len(g.names))
		for i, n := range g.names {
			rows[i] = []any{n, ""}
		}
		title := fmt.Sprintf("第%d组签到表", g.desk)
		if err := b.table(DeskSheet(g.desk), title, []any{"人员", "签名"}, rows); err != nil {
			return err
		}
	}
	return b.write(w)
}

func isCounselor(p *model.PersonView) bool {
	return p.Position != nil && *p.Position == model.PositionCounselor
}

func personCells(p *model.PersonView) []any {
	if p == nil {
		return []any{"", "", "", "", "", ""}
	}
	pos := ""
	if p.Position != nil {
		pos = p.Position.Label()
	}
	return []any{p.Name, pos, deref(p.Tel), deref(p.AmbassadorName), deref(p.Background), deref(p.Info)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// book wraps an excelize file whose default sheet is replaced by the
// first table written.
type book struct {
	f      *excelize.File
	bold   int
	sheets int
}

func newBook() (*book, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#CCCCCC"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "create header style")
	}
	return &book{f: f, bold: bold}, nil
}

// table adds a sheet holding an optional title line, a bold header and
// the rows.
func (b *book) table(name, title string, header []any, rows [][]any) error {
	var err error
	if b.sheets == 0 {
		err = b.f.SetSheetName(b.f.GetSheetName(0), name)
	} else {
		_, err = b.f.NewSheet(name)
	}
	if err != nil {
		return errors.Wrapf(err, "add sheet %q", name)
	}
	b.sheets++

	line := 1
	if title != "" {
		if err := b.f.SetCellValue(name, "A1", title); err != nil {
			return errors.Wrap(err, "write title")
		}
		line = 2
	}
	if err := b.row(name, line, header); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, line)
	last, _ := excelize.CoordinatesToCellName(len(header), line)
	if err := b.f.SetCellStyle(name, first, last, b.bold); err != nil {
		return errors.Wrap(err, "style header")
	}
	for i, r := range rows {
		if err := b.row(name, line+1+i, r); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	return errors.Wrap(b.f.SetColWidth(name, "A", lastCol, 16), "set column width")
}

func (b *book) row(sheet string, line int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	return errors.Wrapf(b.f.SetSheetRow(sheet, cell, &cells), "write %s line %d", sheet, line)
}

func (b *book) write(w io.Writer) error {
	b.f.SetActiveSheet(0)
	return errors.Wrap(b.f.Write(w), "write workbook")
}

// Filename returns an attachment name such as seating_20240101_0930.xlsx.
func Filename(prefix string, at time.Time) string {
	return prefix + "_" + at.Format("20060102_1504") + ".xlsx"
}
