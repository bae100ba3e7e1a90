package model

import "time"

// OTPValidity is how long an issued check-in code stays usable.  The
// notification text promises a 5 minute expiry, and validation enforces it.
const OTPValidity = 5 * time.Minute

// OTP is a one-time 6-digit check-in code.  Codes are fixed-width digit
// strings, never numeric values: "042913" and "42913" are different codes.
// Every issued code is kept as a history row in the `otps` table, but only
// the code currently bound to the reservation row is valid for check-in.
//
// Fields:
//  ID            – primary key identifier.
//  StudentID     – student the code was issued to.
//  ReservationID – reservation the code is bound to.
//  Code          – the 6-digit code (leading zeros allowed).
//  GeneratedAt   – when the code was generated; expiry counts from here.
//  CreatedAt     – row creation timestamp.
type OTP struct {
	ID            uint64
	StudentID     uint64
	ReservationID uint64
	Code          string
	GeneratedAt   time.Time
	CreatedAt     time.Time
}

// Expired reports whether the code's validity window has lapsed at now.
func (o *OTP) Expired(now time.Time) bool {
	return now.Sub(o.GeneratedAt) > OTPValidity
}
