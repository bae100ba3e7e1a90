package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationTransitionPredicates(t *testing.T) {
	cases := []struct {
		status     string
		checkIn    bool
		cancel     bool
		noShow     bool
		complete   bool
	}{
		{StatusReserved, true, true, true, false},
		{StatusCheckedIn, false, false, false, true},
		{StatusCancelled, false, false, false, false},
		{StatusCompleted, false, false, false, false},
		{StatusNoShow, false, false, false, false},
	}
	for _, tc := range cases {
		r := &Reservation{Status: tc.status}
		assert.Equal(t, tc.checkIn, r.CanCheckIn(), "CanCheckIn for %s", tc.status)
		assert.Equal(t, tc.cancel, r.CanCancel(), "CanCancel for %s", tc.status)
		assert.Equal(t, tc.noShow, r.CanMarkNoShow(), "CanMarkNoShow for %s", tc.status)
		assert.Equal(t, tc.complete, r.CanComplete(), "CanComplete for %s", tc.status)
	}
}

func TestReservationOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r := &Reservation{StartTime: base, EndTime: base.Add(30 * time.Minute)} // 09:00-09:30

	// 09:15-09:45 overlaps 09:00-09:30
	assert.True(t, r.Overlaps(base.Add(15*time.Minute), base.Add(45*time.Minute)))
	// identical window overlaps
	assert.True(t, r.Overlaps(base, base.Add(30*time.Minute)))
	// back-to-back windows do not: [09:30, 10:00) starts exactly at the end
	assert.False(t, r.Overlaps(base.Add(30*time.Minute), base.Add(60*time.Minute)))
	// and the symmetric case: [08:30, 09:00) ends exactly at the start
	assert.False(t, r.Overlaps(base.Add(-30*time.Minute), base))
}

func TestReservationIsActive(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, (&Reservation{Status: StatusReserved, EndTime: future}).IsActive(now))
	assert.True(t, (&Reservation{Status: StatusCheckedIn, EndTime: future}).IsActive(now))
	assert.False(t, (&Reservation{Status: StatusReserved, EndTime: past}).IsActive(now))
	assert.False(t, (&Reservation{Status: StatusCancelled, EndTime: future}).IsActive(now))
	assert.False(t, (&Reservation{Status: StatusNoShow, EndTime: future}).IsActive(now))
}

func TestAutoCancelDeadline(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r := &Reservation{StartTime: start}
	s := DefaultSettings() // 15 minute buffer
	assert.Equal(t, start.Add(15*time.Minute), r.AutoCancelDeadline(s))
}
