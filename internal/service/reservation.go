package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/utils"
)

// otpDigits is the width of generated check-in codes.
const otpDigits = 6

// NotificationPublisher delivers a notification event to the broker.
// Delivery is best effort; publish failures never fail the request that
// produced the event.
type NotificationPublisher func(ctx context.Context, ev queue.NotificationEvent) error

// Dashboard bundles a student's profile with their current and past
// reservations for the dashboard endpoint.
type Dashboard struct {
	Student   model.Student       `json:"student"`
	Current   []model.Reservation `json:"current"`
	Past      []model.Reservation `json:"past"`
	PastTotal int                 `json:"past_total"`
	PastPage  int                 `json:"past_page"`
}

// IssuedCode is the result of issuing a check-in code.
type IssuedCode struct {
	Code        string    `json:"code"`
	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReservationService implements the booking state machine.  Student-facing
// methods take the authenticated user's ID and resolve the student profile
// internally; administrative methods address reservations directly.
type ReservationService interface {
	Create(ctx context.Context, userID, seatID uint64, start, end time.Time, notes string) (model.Reservation, error)
	IssueCheckInCode(ctx context.Context, userID, reservationID uint64) (IssuedCode, error)
	CheckIn(ctx context.Context, userID, reservationID uint64, code string) (model.Reservation, error)
	Cancel(ctx context.Context, userID, reservationID uint64) (model.Reservation, error)
	Get(ctx context.Context, userID, reservationID uint64) (model.Reservation, error)
	Dashboard(ctx context.Context, userID uint64, pastPage, pastPerPage int) (Dashboard, error)

	MarkNoShow(ctx context.Context, reservationID uint64) (model.Reservation, error)
	Complete(ctx context.Context, reservationID uint64) (model.Reservation, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

// ReservationStore is the persistence surface the booking engine needs.
// *repository.ReservationRepo is the production implementation; tests
// substitute fakes.
type ReservationStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, studentID, seatID uint64, start, end time.Time, notes string) (model.Reservation, error)
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error)
	CountActiveTx(ctx context.Context, tx *sql.Tx, studentID uint64, now time.Time) (int, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error
	CheckInTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error
	BindOTPTx(ctx context.Context, tx *sql.Tx, id uint64, code string, generatedAt time.Time) error
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
	ListCurrent(ctx context.Context, studentID uint64, now time.Time) ([]model.Reservation, error)
	ListPast(ctx context.Context, studentID uint64, now time.Time, page, perPage int) ([]model.Reservation, int, error)
}

// SeatLocker covers the two seat operations a booking takes under its
// transaction: the row lock that serializes bookings of one seat and the
// authoritative overlap re-check.
type SeatLocker interface {
	LockTx(ctx context.Context, tx *sql.Tx, seatID uint64) (model.Seat, error)
	IsAvailableTx(ctx context.Context, tx *sql.Tx, seatID uint64, start, end time.Time) (bool, error)
}

// UserDirectory resolves user accounts for notification addressing.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// OTPStore appends issued codes to the audit history.
type OTPStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, studentID, reservationID uint64, code string, generatedAt time.Time) error
}

type reservationService struct {
	db           *sql.DB
	reservations ReservationStore
	seats        SeatLocker
	students     StudentStore
	users        UserDirectory
	otps         OTPStore
	policy       PolicyService
	ledger       *LedgerService
	publish      NotificationPublisher
	clock        Clock
}

// NewReservationService wires the production ReservationService.
func NewReservationService(
	db *sql.DB,
	reservations ReservationStore,
	seats SeatLocker,
	students StudentStore,
	users UserDirectory,
	otps OTPStore,
	policy PolicyService,
	ledger *LedgerService,
	publish NotificationPublisher,
	clock Clock,
) ReservationService {
	return &reservationService{
		db:           db,
		reservations: reservations,
		seats:        seats,
		students:     students,
		users:        users,
		otps:         otps,
		policy:       policy,
		ledger:       ledger,
		publish:      publish,
		clock:        clock,
	}
}

func (s *reservationService) studentForUser(ctx context.Context, userID uint64) (model.Student, error) {
	student, err := s.students.GetByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Student{}, ErrStudentNotFound
		}
		return model.Student{}, err
	}
	return student, nil
}

// Create books a seat for [start, end).  Checks run cheapest first: window
// shape, policy bounds, restriction status; then a single transaction
// locks the seat row, re-checks availability and the active cap, and
// inserts the reservation.  The seat lock serializes concurrent bookings
// of the same seat so the overlap re-check is authoritative.
func (s *reservationService) Create(ctx context.Context, userID, seatID uint64, start, end time.Time, notes string) (model.Reservation, error) {
	now := s.clock.Now()
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) || start.Before(now) {
		return model.Reservation{}, ErrInvalidInterval
	}

	settings, err := s.policy.Get(ctx)
	if err != nil {
		return model.Reservation{}, err
	}
	if end.Sub(start) > time.Duration(settings.MaxBookingDurationMin)*time.Minute {
		return model.Reservation{}, ErrDurationExceeded
	}
	horizon := now.Add(time.Duration(settings.MaxAdvanceBookingDays) * 24 * time.Hour)
	if start.After(horizon) {
		return model.Reservation{}, ErrTooFarInAdvance
	}

	student, err := s.studentForUser(ctx, userID)
	if err != nil {
		return model.Reservation{}, err
	}
	student, err = s.ledger.EnsureNotRestricted(ctx, student, settings)
	if err != nil {
		return model.Reservation{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.seats.LockTx(ctx, tx, seatID); err != nil {
		if err == sql.ErrNoRows {
			return model.Reservation{}, ErrSeatNotFound
		}
		if err == repository.ErrConflict {
			return model.Reservation{}, ErrSeatUnavailable
		}
		return model.Reservation{}, err
	}
	free, err := s.seats.IsAvailableTx(ctx, tx, seatID, start, end)
	if err != nil {
		return model.Reservation{}, err
	}
	if !free {
		return model.Reservation{}, ErrSeatUnavailable
	}
	active, err := s.reservations.CountActiveTx(ctx, tx, student.ID, now)
	if err != nil {
		return model.Reservation{}, err
	}
	if active >= settings.MaxActiveReservations {
		return model.Reservation{}, ErrTooManyActiveReservations
	}
	res, err := s.reservations.CreateTx(ctx, tx, student.ID, seatID, start, end, notes)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true

	s.notify(student, res, queue.KindReservationConfirmed,
		fmt.Sprintf("Seat %s is booked. Check in within %d minutes of the start time or the booking is released.",
			res.SeatNumber, settings.CheckInBufferMin))
	return res, nil
}

// IssueCheckInCode generates a fresh 6-digit code for the reservation,
// binds it to the row and appends it to the issuance history.  Reissuing
// invalidates the previous code.  The code is returned to the caller and
// also pushed through the notification queue.
func (s *reservationService) IssueCheckInCode(ctx context.Context, userID, reservationID uint64) (IssuedCode, error) {
	student, err := s.studentForUser(ctx, userID)
	if err != nil {
		return IssuedCode{}, err
	}
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return IssuedCode{}, ErrReservationNotFound
		}
		return IssuedCode{}, err
	}
	if res.StudentID != student.ID {
		return IssuedCode{}, repository.ErrForbidden
	}
	if !res.CanCheckIn() {
		return IssuedCode{}, ErrInvalidState
	}

	code, err := utils.GenerateOTP(otpDigits)
	if err != nil {
		return IssuedCode{}, err
	}
	generatedAt := s.clock.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IssuedCode{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.reservations.BindOTPTx(ctx, tx, reservationID, code, generatedAt); err != nil {
		return IssuedCode{}, err
	}
	if err := s.otps.CreateTx(ctx, tx, student.ID, reservationID, code, generatedAt); err != nil {
		return IssuedCode{}, err
	}
	if err := tx.Commit(); err != nil {
		return IssuedCode{}, err
	}
	committed = true

	s.notify(student, res, queue.KindOTPIssued,
		fmt.Sprintf("Your check-in code for seat %s is %s. It expires in %d minutes.",
			res.SeatNumber, code, int(model.OTPValidity.Minutes())))
	return IssuedCode{
		Code:        code,
		GeneratedAt: generatedAt,
		ExpiresAt:   generatedAt.Add(model.OTPValidity),
	}, nil
}

// CheckIn validates the presented code against the one bound to the
// reservation and moves it to checked_in.  Codes are compared as exact
// strings ("042913" never matches "42913") and expire after
// model.OTPValidity.  The reservation row is locked so a concurrent sweep
// or cancellation cannot interleave with the transition.
func (s *reservationService) CheckIn(ctx context.Context, userID, reservationID uint64, code string) (model.Reservation, error) {
	student, err := s.studentForUser(ctx, userID)
	if err != nil {
		return model.Reservation{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	if res.StudentID != student.ID {
		return model.Reservation{}, repository.ErrForbidden
	}
	if !res.CanCheckIn() {
		return model.Reservation{}, ErrInvalidState
	}
	if res.OTPCode == nil || *res.OTPCode != code {
		return model.Reservation{}, ErrInvalidCode
	}
	now := s.clock.Now()
	if res.OTPGeneratedAt == nil || now.Sub(*res.OTPGeneratedAt) > model.OTPValidity {
		return model.Reservation{}, ErrCodeExpired
	}
	if err := s.reservations.CheckInTx(ctx, tx, reservationID, now); err != nil {
		if err == repository.ErrConflict {
			return model.Reservation{}, ErrInvalidState
		}
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true

	res.Status = model.StatusCheckedIn
	res.CheckInTime = &now
	return res, nil
}

// Cancel releases a booking the student no longer wants.  Only reserved
// bookings can be cancelled, and cancellation carries no penalty.
func (s *reservationService) Cancel(ctx context.Context, userID, reservationID uint64) (model.Reservation, error) {
	student, err := s.studentForUser(ctx, userID)
	if err != nil {
		return model.Reservation{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	if res.StudentID != student.ID {
		return model.Reservation{}, repository.ErrForbidden
	}
	if !res.CanCancel() {
		return model.Reservation{}, ErrInvalidState
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, model.StatusReserved, model.StatusCancelled); err != nil {
		if err == repository.ErrConflict {
			return model.Reservation{}, ErrInvalidState
		}
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true

	res.Status = model.StatusCancelled
	return res, nil
}

// Get loads one reservation, enforcing ownership.
func (s *reservationService) Get(ctx context.Context, userID, reservationID uint64) (model.Reservation, error) {
	student, err := s.studentForUser(ctx, userID)
	if err != nil {
		return model.Reservation{}, err
	}
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	if res.StudentID != student.ID {
		return model.Reservation{}, repository.ErrForbidden
	}
	return res, nil
}

// Dashboard assembles the student's profile, active bookings and a page of
// history.
func (s *reservationService) Dashboard(ctx context.Context, userID uint64, pastPage, pastPerPage int) (Dashboard, error) {
	student, err := s.studentForUser(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.clock.Now()
	current, err := s.reservations.ListCurrent(ctx, student.ID, now)
	if err != nil {
		return Dashboard{}, err
	}
	if pastPage < 1 {
		pastPage = 1
	}
	past, total, err := s.reservations.ListPast(ctx, student.ID, now, pastPage, pastPerPage)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Student:   student,
		Current:   current,
		Past:      past,
		PastTotal: total,
		PastPage:  pastPage,
	}, nil
}

// MarkNoShow is the administrative no-show transition.  The status change
// and the ledger update (count, possible restriction) commit in one
// transaction so a reservation can never be marked without its penalty
// landing, or vice versa.
func (s *reservationService) MarkNoShow(ctx context.Context, reservationID uint64) (model.Reservation, error) {
	settings, err := s.policy.Get(ctx)
	if err != nil {
		return model.Reservation{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	if !res.CanMarkNoShow() {
		return model.Reservation{}, ErrInvalidState
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, model.StatusReserved, model.StatusNoShow); err != nil {
		if err == repository.ErrConflict {
			return model.Reservation{}, ErrInvalidState
		}
		return model.Reservation{}, err
	}
	if err := s.ledger.RecordNoShowTx(ctx, tx, res.StudentID, settings); err != nil {
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true

	res.Status = model.StatusNoShow
	return res, nil
}

// Complete closes out a checked-in reservation when the student leaves.
func (s *reservationService) Complete(ctx context.Context, reservationID uint64) (model.Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	if !res.CanComplete() {
		return model.Reservation{}, ErrInvalidState
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, model.StatusCheckedIn, model.StatusCompleted); err != nil {
		if err == repository.ErrConflict {
			return model.Reservation{}, ErrInvalidState
		}
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true

	res.Status = model.StatusCompleted
	return res, nil
}

// ExpireOverdue releases every reserved booking whose start time has
// passed.  The check-in buffer is advisory (it is what the confirmation
// message promises); the sweep itself cancels on plain start-time overrun
// and its cadence supplies the actual grace.  Auto-cancellation carries no
// penalty; only the explicit administrative no-show does.
func (s *reservationService) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.reservations.ExpireOverdue(ctx, s.clock.Now())
}

// notify publishes a notification event without blocking the request.
// Publish failures are logged inside the publisher and otherwise ignored.
func (s *reservationService) notify(student model.Student, res model.Reservation, kind, message string) {
	if s.publish == nil {
		return
	}
	email := ""
	if user, err := s.users.GetByID(context.Background(), student.UserID); err == nil {
		email = user.Email
	} else {
		log.Printf("notify: lookup user %d failed: %v", student.UserID, err)
	}
	ev := queue.NotificationEvent{
		Kind:          kind,
		ReservationID: res.ID,
		StudentID:     student.ID,
		Email:         email,
		SeatNumber:    res.SeatNumber,
		StartsAt:      res.StartTime.UTC().Format(time.RFC3339),
		EndsAt:        res.EndTime.UTC().Format(time.RFC3339),
		Message:       message,
		IssuedAt:      s.clock.Now().Format(time.RFC3339),
	}
	go func() { _ = s.publish(context.Background(), ev) }()
}
