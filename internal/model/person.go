package model

import (
    "strconv"
    "strings"
    "time"
)

// Position is the role a person plays at a desk.
type Position int

const (
    PositionCounselor     Position = 1
    PositionAssistant     Position = 2
    PositionLeader        Position = 3
    PositionDeputyLeader  Position = 4
    PositionTrainee       Position = 5
)

var positionLabels = map[Position]string{
    PositionCounselor:    "辅导员",
    PositionAssistant:    "助攻手",
    PositionLeader:       "组长",
    PositionDeputyLeader: "副组长",
    PositionTrainee:      "学员",
}

// Valid reports whether p is one of the five known positions.
func (p Position) Valid() bool {
    _, ok := positionLabels[p]
    return ok
}

// Label returns the display label used on spreadsheets.
func (p Position) Label() string {
    if l, ok := positionLabels[p]; ok {
        return l
    }
    return "未知"
}

// ParsePosition maps a spreadsheet label to a Position.  Both the Chinese
// labels and their English names are accepted, as well as the digits 1-5.
func ParsePosition(label string) (Position, bool) {
    s := strings.ToLower(strings.TrimSpace(label))
    switch s {
    case "辅导员", "counselor":
        return PositionCounselor, true
    case "助攻手", "assistant":
        return PositionAssistant, true
    case "组长", "leader":
        return PositionLeader, true
    case "副组长", "deputy leader", "deputy-leader", "deputy_leader":
        return PositionDeputyLeader, true
    case "学员", "trainee":
        return PositionTrainee, true
    }
    if n, err := strconv.Atoi(s); err == nil && Position(n).Valid() {
        return Position(n), true
    }
    return 0, false
}

// Person is somebody who can be seated.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – required display name (≤100).
//  AmbassadorID – optional reference to an ambassador (nil when none).
//  Position     – optional role, 1..5.
//  Tel          – optional phone number (≤30).
//  Background   – optional background note (≤255).
//  Info         – optional free text.
//  CreatedAt    – creation timestamp; orders the waiting roster.
type Person struct {
    ID           uint64    `json:"id"`            // persons.id
    Name         string    `json:"name"`          // persons.name
    AmbassadorID *uint64   `json:"ambassador_id"` // persons.ambassador_id (nullable)
    Position     *Position `json:"position"`      // persons.position (nullable)
    Tel          *string   `json:"tel"`           // persons.tel (nullable)
    Background   *string   `json:"background"`    // persons.background (nullable)
    Info         *string   `json:"info"`          // persons.info (nullable)
    CreatedAt    time.Time `json:"created_at"`    // persons.created_at
}

// PersonView is a person joined with its ambassador name and current
// placement.  DeskNumber and SeatNumber are nil when the person has no
// row or a waiting-area row.
type PersonView struct {
    Person
    AmbassadorName *string `json:"ambassador_name"`
    DeskNumber     *int    `json:"desk_number"`
    SeatNumber     *int    `json:"seat_number"`
}
