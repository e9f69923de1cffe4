package model

import "time"

// SeatAssignment places a person at a desk/seat.  A row whose desk and
// seat are both nil keeps the person in the waiting area.  The store
// guarantees that (desk_number, seat_number) is unique when both are set
// and that every person has at most one row.
//
// Fields:
//  ID         – primary key identifier.
//  PersonID   – person being placed.
//  DeskNumber – desk number, 1-based (nil for the waiting area).
//  SeatNumber – seat number within the desk, 1-based (nil for the waiting area).
//  UpdatedAt  – when the row was written.
type SeatAssignment struct {
    ID         uint64    `json:"id"`          // seat_assignments.id
    PersonID   uint64    `json:"person_id"`   // seat_assignments.person_id
    DeskNumber *int      `json:"desk_number"` // seat_assignments.desk_number (nullable)
    SeatNumber *int      `json:"seat_number"` // seat_assignments.seat_number (nullable)
    UpdatedAt  time.Time `json:"updated_at"`  // seat_assignments.updated_at
}

// Seated reports whether the row points at a concrete seat.  It does not
// check the pair against the current configuration.
func (a SeatAssignment) Seated() bool {
    return a.DeskNumber != nil && a.SeatNumber != nil
}

// AssignmentView is a stored assignment joined with its person and the
// person's ambassador name.
type AssignmentView struct {
    SeatAssignment
    Name           string    `json:"name"`
    AmbassadorID   *uint64   `json:"ambassador_id"`
    AmbassadorName *string   `json:"ambassador_name"`
    Position       *Position `json:"position"`
    Tel            *string   `json:"tel"`
    Background     *string   `json:"background"`
    Info           *string   `json:"info"`
}
