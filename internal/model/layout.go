package model

// SeatCell is one seat of the rendered grid.  Person is nil for an empty
// seat.
type SeatCell struct {
    DeskNumber int         `json:"desk_number"`
    SeatNumber int         `json:"seat_number"`
    Person     *PersonView `json:"person,omitempty"`
}

// Desk groups the seats of one desk in ascending seat order.
type Desk struct {
    DeskNumber int        `json:"desk_number"`
    Seats      []SeatCell `json:"seats"`
}

// LayoutStats summarises grid occupancy.
type LayoutStats struct {
    TotalSeats      int         `json:"total_seats"`
    OccupiedSeats   int         `json:"occupied_seats"`
    EmptySeats      int         `json:"empty_seats"`
    WaitingCount    int         `json:"waiting_count"`
    UtilizationRate float64     `json:"utilization_rate"`
    DeskOccupancy   map[int]int `json:"desk_occupancy"`
}

// Layout is the reconciled view of the room: the full desk grid derived
// from the current config plus the waiting roster.  Every person appears
// exactly once, either in a seat cell or in Waiting.
type Layout struct {
    Config  Config       `json:"config"`
    Desks   []Desk       `json:"layout"`
    Waiting []PersonView `json:"waiting"`
    Stats   LayoutStats  `json:"stats"`
}

// EmptySeats lists the unoccupied cells in grid order.
func (l *Layout) EmptySeats() []SeatCell {
    var out []SeatCell
    for _, d := range l.Desks {
        for _, s := range d.Seats {
            if s.Person == nil {
                out = append(out, s)
            }
        }
    }
    return out
}
