package service

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically releases reserved bookings whose check-in buffer
// has elapsed.  It is the only background writer in the system and uses a
// single idempotent UPDATE per tick, so overlapping or missed ticks are
// harmless.
type Sweeper struct {
	reservations ReservationService
	interval     time.Duration
}

// NewSweeper returns a Sweeper running at the given interval.
func NewSweeper(reservations ReservationService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{reservations: reservations, interval: interval}
}

// Run blocks until the context is cancelled, sweeping once per interval.
// Errors are logged and the loop continues; a transient database failure
// only delays the release until the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.reservations.ExpireOverdue(ctx)
			if err != nil {
				log.Printf("sweeper: expire overdue failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweeper: released %d overdue reservations", n)
			}
		}
	}
}
