// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios without
// string matching.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, e.g. a student touching another student's
// reservation.  Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as a guarded status transition whose WHERE
// clause matched no row.  Handlers translate this into an HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrSeatExists is returned when provisioning a seat whose number is
// already taken.
var ErrSeatExists = errors.New("seat number already exists")

// ErrRollNumberExists is returned when registering a student profile with
// a roll number that is already enrolled.
var ErrRollNumberExists = errors.New("roll number already exists")
