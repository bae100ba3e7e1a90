package model

import "time"

// Reservation status values.  Transitions are one-way:
// reserved -> checked_in -> completed, or reserved -> cancelled/no_show.
// Terminal states (cancelled, completed, no_show) never transition again.
const (
	StatusReserved  = "reserved"
	StatusCheckedIn = "checked_in"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// Reservation records a student's booking of a seat for the half-open
// interval [StartTime, EndTime).  Rows are never deleted; terminal
// reservations are retained for history.
//
// Fields:
//  ID             – primary key identifier.
//  StudentID      – student holding the booking.
//  SeatID         – booked seat.
//  StartTime      – window start (UTC).
//  EndTime        – window end (UTC), always after StartTime.
//  Status         – one of the Status* constants above.
//  CheckInTime    – when the student checked in (nil before check-in).
//  OTPCode        – currently bound check-in code (nil if never issued).
//  OTPGeneratedAt – when the bound code was generated.
//  Notes          – free-form notes.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Reservation struct {
	ID             uint64     `json:"id"`
	StudentID      uint64     `json:"student_id"`
	SeatID         uint64     `json:"seat_id"`
	SeatNumber     string     `json:"seat_number,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Status         string     `json:"status"`
	CheckInTime    *time.Time `json:"check_in_time,omitempty"`
	OTPCode        *string    `json:"-"`
	OTPGeneratedAt *time.Time `json:"-"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CanCheckIn reports whether a check-in is legal.  Only the reserved state
// qualifies; the check-in buffer is advisory and enforced by the sweep, not
// here.
func (r *Reservation) CanCheckIn() bool { return r.Status == StatusReserved }

// CanCancel reports whether the reservation may still be cancelled by the
// student.  Checked-in and terminal reservations cannot.
func (r *Reservation) CanCancel() bool { return r.Status == StatusReserved }

// CanMarkNoShow reports whether the administrative no-show transition is
// legal.
func (r *Reservation) CanMarkNoShow() bool { return r.Status == StatusReserved }

// CanComplete reports whether the reservation can move to completed.
func (r *Reservation) CanComplete() bool { return r.Status == StatusCheckedIn }

// IsActive reports whether the reservation still occupies its seat: it is
// reserved or checked in and its window has not yet ended.
func (r *Reservation) IsActive(now time.Time) bool {
	return (r.Status == StatusReserved || r.Status == StatusCheckedIn) && r.EndTime.After(now)
}

// Overlaps applies the half-open interval overlap test against [start, end):
// two windows conflict when each one starts before the other ends.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// AutoCancelDeadline returns the moment after which the sweep may cancel an
// unchecked reservation, derived from the policy's check-in buffer.
func (r *Reservation) AutoCancelDeadline(settings LibrarySettings) time.Time {
	return r.StartTime.Add(time.Duration(settings.CheckInBufferMin) * time.Minute)
}
