package service

import (
	"strings"

	"github.com/iliyamo/seat-planner/internal/model"
)

// ConfigInput replaces the seating configuration.
type ConfigInput struct {
	DeskCount       int    `json:"desk_count" validate:"required,gte=1,lte=50"`
	SeatsPerDesk    int    `json:"seats_per_desk" validate:"required,gte=4,lte=12"`
	DisplayColumns  *int   `json:"display_columns" validate:"omitempty,gte=3,lte=10"`
	TableClothColor string `json:"table_cloth_color" validate:"omitempty,rgbhex"`
}

// AmbassadorInput creates or renames an ambassador.
type AmbassadorInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (in *AmbassadorInput) normalize() { in.Name = strings.TrimSpace(in.Name) }

// PersonInput creates a person.
type PersonInput struct {
	Name         string          `json:"name" validate:"required,max=100"`
	AmbassadorID *uint64         `json:"ambassador_id" validate:"omitempty,gte=1"`
	Position     *model.Position `json:"position" validate:"omitempty,gte=1,lte=5"`
	Tel          *string         `json:"tel" validate:"omitempty,max=30"`
	Background   *string         `json:"background" validate:"omitempty,max=255"`
	Info         *string         `json:"info"`
}

func (in *PersonInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	if in.AmbassadorID != nil && *in.AmbassadorID == 0 {
		in.AmbassadorID = nil
	}
	if in.Position != nil && *in.Position == 0 {
		in.Position = nil
	}
	in.Tel = trimOrNil(in.Tel)
	in.Background = trimOrNil(in.Background)
	in.Info = trimOrNil(in.Info)
}

// PersonPatch updates a person.  A nil field is left unchanged.  A zero
// ambassador_id or position and an empty string clear the column.
type PersonPatch struct {
	Name         *string         `json:"name" validate:"omitempty,min=1,max=100"`
	AmbassadorID *uint64         `json:"ambassador_id"`
	Position     *model.Position `json:"position" validate:"omitempty,gte=0,lte=5"`
	Tel          *string         `json:"tel" validate:"omitempty,max=30"`
	Background   *string         `json:"background" validate:"omitempty,max=255"`
	Info         *string         `json:"info"`
}

func (p *PersonPatch) normalize() {
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		p.Name = &n
	}
	for _, f := range []**string{&p.Tel, &p.Background, &p.Info} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
}

func (p PersonPatch) empty() bool {
	return p.Name == nil && p.AmbassadorID == nil && p.Position == nil &&
		p.Tel == nil && p.Background == nil && p.Info == nil
}

// IDsInput names the targets of a batch delete.
type IDsInput struct {
	IDs []uint64 `json:"ids" validate:"min=1,max=1000,unique,dive,gte=1"`
}

// Placement moves one person.  Nil desk and seat send the person to the
// waiting area.
type Placement struct {
	PersonID   uint64 `json:"person_id" validate:"required"`
	DeskNumber *int   `json:"desk_number" validate:"omitempty,gte=1"`
	SeatNumber *int   `json:"seat_number" validate:"omitempty,gte=1"`
}

func (p Placement) halfSet() bool { return (p.DeskNumber == nil) != (p.SeatNumber == nil) }

// BatchInput is an atomic multi-person reassignment.
type BatchInput struct {
	Placements []Placement `json:"assignments" validate:"min=1,dive"`
}

// ImportRow is one spreadsheet line.  Every field is text as read from
// the sheet; Position holds a label such as "组长".  Line is the sheet
// line the row came from; zero means rows are contiguous after the header.
type ImportRow struct {
	Line           int    `json:"line,omitempty"`
	Name           string `json:"name" validate:"required,max=100"`
	Position       string `json:"position" validate:"required"`
	AmbassadorName string `json:"ambassador_name" validate:"required,max=100"`
	Tel            string `json:"tel" validate:"max=30"`
	Background     string `json:"background" validate:"max=255"`
	Info           string `json:"info" validate:"max=500"`
}

// lineNumber reports the spreadsheet line of the row at index i.
func (r ImportRow) lineNumber(i int) int {
	if r.Line > 0 {
		return r.Line
	}
	return i + firstDataRow
}

func (r *ImportRow) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Position = strings.TrimSpace(r.Position)
	r.AmbassadorName = strings.TrimSpace(r.AmbassadorName)
	r.Tel = strings.TrimSpace(r.Tel)
	r.Background = strings.TrimSpace(r.Background)
	r.Info = strings.TrimSpace(r.Info)
}

func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
