package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
)

// SeatService answers availability queries and handles seat administration.
type SeatService interface {
	ListAvailable(ctx context.Context, start, end time.Time) ([]model.Seat, error)
	Create(ctx context.Context, number, location, description string) (model.Seat, error)
	SetActive(ctx context.Context, id uint64, active bool) (model.Seat, error)
}

type seatService struct {
	seats  *repository.SeatRepo
	policy PolicyService
	clock  Clock
}

// NewSeatService returns the production SeatService.
func NewSeatService(seats *repository.SeatRepo, policy PolicyService, clock Clock) SeatService {
	return &seatService{seats: seats, policy: policy, clock: clock}
}

// ListAvailable validates the window the same way booking does, so the
// listing never advertises a window that Create would reject, then runs
// the overlap query.  Note the result is advisory: availability can change
// between the listing and the booking commit.
func (s *seatService) ListAvailable(ctx context.Context, start, end time.Time) ([]model.Seat, error) {
	now := s.clock.Now()
	start, end = start.UTC(), end.UTC()
	if !start.Before(end) || start.Before(now) {
		return nil, ErrInvalidInterval
	}
	settings, err := s.policy.Get(ctx)
	if err != nil {
		return nil, err
	}
	if end.Sub(start) > time.Duration(settings.MaxBookingDurationMin)*time.Minute {
		return nil, ErrDurationExceeded
	}
	if start.After(now.Add(time.Duration(settings.MaxAdvanceBookingDays) * 24 * time.Hour)) {
		return nil, ErrTooFarInAdvance
	}
	return s.seats.ListAvailable(ctx, start, end)
}

func (s *seatService) Create(ctx context.Context, number, location, description string) (model.Seat, error) {
	id, err := s.seats.Create(ctx, number, location, description)
	if err != nil {
		return model.Seat{}, err
	}
	return s.seats.GetByID(ctx, id)
}

func (s *seatService) SetActive(ctx context.Context, id uint64, active bool) (model.Seat, error) {
	if err := s.seats.SetActive(ctx, id, active); err != nil {
		if err == sql.ErrNoRows {
			return model.Seat{}, ErrSeatNotFound
		}
		return model.Seat{}, err
	}
	return s.seats.GetByID(ctx, id)
}
