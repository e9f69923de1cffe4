package model

import "time"

// Ambassador is an optional group/referral affiliation that persons can
// point at.  Deleting an ambassador clears the reference on its persons
// instead of deleting them.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name, at most 100 characters.
//  CreatedAt – creation timestamp.
type Ambassador struct {
    ID        uint64    `json:"id"`         // ambassadors.id
    Name      string    `json:"name"`       // ambassadors.name
    CreatedAt time.Time `json:"created_at"` // ambassadors.created_at
}
