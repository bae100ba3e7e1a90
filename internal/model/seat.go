package model

import "time"

// Seat describes a physical seat in the library.  Seats are uniquely
// identified by their number, which follows the block.floor.seat naming
// scheme produced by the populate-seats command (e.g. "A.01.03").  Seats
// are immutable once provisioned except for the activation toggle.
//
// Fields:
//  ID          – primary key identifier.
//  Number      – unique structured seat number.
//  Location    – human readable location (e.g. "Block A, Floor 1").
//  Description – optional free-form description, display only.
//  IsActive    – whether the seat can be booked.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Seat struct {
	ID          uint64    `json:"id"`
	Number      string    `json:"number"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
