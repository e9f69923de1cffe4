// Package queue defines the seating events exchanged over RabbitMQ, the
// publisher used by the services and the consumer that turns the
// events into an operational log.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// QueueName is the durable queue every seating event is routed to.
const QueueName = "seating.events"

// EventType names what happened.
type EventType string

const (
    EventSeatAssigned       EventType = "seat.assigned"
    EventSeatUnassigned     EventType = "seat.unassigned"
    EventBatchAssigned      EventType = "seats.batch_assigned"
    EventPersonsImported    EventType = "persons.imported"
    EventPersonsDeleted     EventType = "persons.deleted"
    EventAmbassadorsDeleted EventType = "ambassadors.deleted"
    EventConfigUpdated      EventType = "config.updated"
)

// Placement is one person's target position.  Nil desk and seat mean the
// waiting area.
type Placement struct {
    PersonID   uint64 `json:"person_id"`
    DeskNumber *int   `json:"desk_number,omitempty"`
    SeatNumber *int   `json:"seat_number,omitempty"`
}

// SeatingEvent is published after a seating change commits.  It carries
// enough to write a log line without querying the primary database.
type SeatingEvent struct {
    ID         string      `json:"id"`
    Type       EventType   `json:"type"`
    Placements []Placement `json:"placements,omitempty"`
    Summary    string      `json:"summary"`
    OccurredAt time.Time   `json:"occurred_at"`
}

// NewEvent stamps a new event with a random ID and the current time.
func NewEvent(t EventType, summary string, placements ...Placement) SeatingEvent {
    return SeatingEvent{
        ID:         uuid.NewString(),
        Type:       t,
        Placements: placements,
        Summary:    summary,
        OccurredAt: time.Now().UTC(),
    }
}
