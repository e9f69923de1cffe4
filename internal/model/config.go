package model

import "time"

// DefaultTableClothColor is used whenever a configuration row carries no
// explicit colour, and for the built-in default configuration.
const DefaultTableClothColor = "#8B4513"

// Config holds the seating layout settings.  Only the most recently
// updated row of the `config` table is authoritative; older rows stay
// in the table but are never consulted.
//
// Fields:
//  ID              – primary key identifier (0 for the built-in default).
//  DeskCount       – number of desks, 1..50.
//  SeatsPerDesk    – seats around every desk, 4..12.
//  DisplayColumns  – optional number of desk columns in the UI, 3..10.
//  TableClothColor – #RRGGBB colour used when rendering desks.
//  UpdatedAt       – last update timestamp.
type Config struct {
    ID              uint64    `json:"id"`                // config.id
    DeskCount       int       `json:"desk_count"`        // config.desk_count
    SeatsPerDesk    int       `json:"seats_per_desk"`    // config.seats_per_desk
    DisplayColumns  *int      `json:"display_columns"`   // config.display_columns (nullable)
    TableClothColor string    `json:"table_cloth_color"` // config.table_cloth_color
    UpdatedAt       time.Time `json:"updated_at"`        // config.updated_at
}

// DefaultConfig returns the configuration served when the table is empty.
func DefaultConfig() Config {
    return Config{
        DeskCount:       4,
        SeatsPerDesk:    8,
        TableClothColor: DefaultTableClothColor,
        UpdatedAt:       time.Now().UTC(),
    }
}

// TotalSeats is the number of cells in the grid derived from the config.
func (c Config) TotalSeats() int {
    return c.DeskCount * c.SeatsPerDesk
}

// InRange reports whether a desk/seat pair addresses a cell of the grid
// described by this configuration.
func (c Config) InRange(desk, seat int) bool {
    return desk >= 1 && desk <= c.DeskCount && seat >= 1 && seat <= c.SeatsPerDesk
}
