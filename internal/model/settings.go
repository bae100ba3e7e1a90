package model

// LibrarySettings is the single mutable policy record that tunes booking
// behaviour at runtime.  Exactly one row exists in the `settings` table; it
// is created lazily with the documented defaults and mutated only through
// the administrative update endpoint.
//
// Fields:
//  ID                     – primary key identifier (always the first row).
//  MaxBookingDurationMin  – longest allowed reservation in minutes (30–720).
//  MaxAdvanceBookingDays  – how many days ahead a booking may start (0–30).
//  CheckInBufferMin       – minutes after start before the sweep may cancel (5–60).
//  MaxActiveReservations  – concurrent active reservations per student (1–5).
//  PenaltyThreshold       – no-shows before a restriction applies (>= 1).
//  PenaltyDurationDays    – days a restriction lasts (>= 1).
type LibrarySettings struct {
	ID                    uint64 `json:"id"`
	MaxBookingDurationMin int    `json:"max_booking_duration_min"`
	MaxAdvanceBookingDays int    `json:"max_advance_booking_days"`
	CheckInBufferMin      int    `json:"check_in_buffer_min"`
	MaxActiveReservations int    `json:"max_active_reservations"`
	PenaltyThreshold      int    `json:"penalty_threshold"`
	PenaltyDurationDays   int    `json:"penalty_duration_days"`
}

// DefaultSettings returns the documented defaults: 3 hour bookings, one day
// of advance booking, a 15 minute check-in buffer, one active reservation,
// three no-shows before a 7 day restriction.
func DefaultSettings() LibrarySettings {
	return LibrarySettings{
		MaxBookingDurationMin: 180,
		MaxAdvanceBookingDays: 1,
		CheckInBufferMin:      15,
		MaxActiveReservations: 1,
		PenaltyThreshold:      3,
		PenaltyDurationDays:   7,
	}
}

// Validate checks every field against its documented bound and reports the
// first violation.  A zero-valid settings object never reaches the database.
func (s LibrarySettings) Validate() error {
	switch {
	case s.MaxBookingDurationMin < 30 || s.MaxBookingDurationMin > 720:
		return &PolicyError{Field: "max_booking_duration_min", Reason: "must be between 30 and 720"}
	case s.MaxAdvanceBookingDays < 0 || s.MaxAdvanceBookingDays > 30:
		return &PolicyError{Field: "max_advance_booking_days", Reason: "must be between 0 and 30"}
	case s.CheckInBufferMin < 5 || s.CheckInBufferMin > 60:
		return &PolicyError{Field: "check_in_buffer_min", Reason: "must be between 5 and 60"}
	case s.MaxActiveReservations < 1 || s.MaxActiveReservations > 5:
		return &PolicyError{Field: "max_active_reservations", Reason: "must be between 1 and 5"}
	case s.PenaltyThreshold < 1:
		return &PolicyError{Field: "penalty_threshold", Reason: "must be at least 1"}
	case s.PenaltyDurationDays < 1:
		return &PolicyError{Field: "penalty_duration_days", Reason: "must be at least 1"}
	}
	return nil
}

// PolicyError describes a settings field that failed its bound check.
type PolicyError struct {
	Field  string
	Reason string
}

func (e *PolicyError) Error() string { return e.Field + " " + e.Reason }
