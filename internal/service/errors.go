// Package service implements the business rules on top of the repositories:
// booking validation, the reservation state machine, check-in codes, the
// no-show ledger and fine settlement.  Services return the sentinel errors
// below so handlers can map outcomes to HTTP statuses without inspecting
// strings.
package service

import "errors"

var (
	// ErrInvalidInterval is returned when a requested window is malformed:
	// start not before end, or start already in the past.
	ErrInvalidInterval = errors.New("invalid reservation interval")

	// ErrDurationExceeded is returned when the window is longer than the
	// policy's maximum booking duration.
	ErrDurationExceeded = errors.New("reservation exceeds maximum duration")

	// ErrTooFarInAdvance is returned when the window starts beyond the
	// policy's advance booking horizon.
	ErrTooFarInAdvance = errors.New("reservation starts too far in advance")

	// ErrSeatUnavailable is returned when the seat is inactive or another
	// reservation overlaps the requested window.
	ErrSeatUnavailable = errors.New("seat is not available for the requested window")

	// ErrTooManyActiveReservations is returned when the booking would push
	// the student past the policy's active reservation cap.
	ErrTooManyActiveReservations = errors.New("active reservation limit reached")

	// ErrStudentRestricted is returned when a restricted student attempts
	// to book before the restriction lapses.
	ErrStudentRestricted = errors.New("student is restricted from booking")

	// ErrInvalidState is returned when a transition is requested from a
	// state that does not permit it, e.g. cancelling a checked-in booking.
	ErrInvalidState = errors.New("reservation state does not allow this operation")

	// ErrInvalidCode is returned when the presented check-in code does not
	// match the one bound to the reservation, or none was ever issued.
	ErrInvalidCode = errors.New("invalid check-in code")

	// ErrCodeExpired is returned when the bound check-in code matched but
	// its validity window has lapsed.
	ErrCodeExpired = errors.New("check-in code has expired")

	// ErrInvalidAmount is returned when a settlement amount is not a
	// positive number of paise.
	ErrInvalidAmount = errors.New("settlement amount must be positive")

	// ErrNoOutstandingFine is returned when a student with a zero balance
	// tries to start a settlement.
	ErrNoOutstandingFine = errors.New("no outstanding fine to settle")

	// Not-found sentinels.  Repositories surface sql.ErrNoRows; services
	// translate it so handlers never import database/sql.
	ErrStudentNotFound     = errors.New("student profile not found")
	ErrSeatNotFound        = errors.New("seat not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrPaymentNotFound     = errors.New("payment session not found")
)
