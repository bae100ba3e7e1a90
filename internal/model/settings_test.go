package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
}

func TestSettingsValidateBounds(t *testing.T) {
	mutate := func(f func(*LibrarySettings)) LibrarySettings {
		s := DefaultSettings()
		f(&s)
		return s
	}
	cases := []struct {
		name string
		in   LibrarySettings
		ok   bool
	}{
		{"duration at lower bound", mutate(func(s *LibrarySettings) { s.MaxBookingDurationMin = 30 }), true},
		{"duration at upper bound", mutate(func(s *LibrarySettings) { s.MaxBookingDurationMin = 720 }), true},
		{"duration below bound", mutate(func(s *LibrarySettings) { s.MaxBookingDurationMin = 29 }), false},
		{"duration above bound", mutate(func(s *LibrarySettings) { s.MaxBookingDurationMin = 721 }), false},
		{"advance zero days", mutate(func(s *LibrarySettings) { s.MaxAdvanceBookingDays = 0 }), true},
		{"advance negative", mutate(func(s *LibrarySettings) { s.MaxAdvanceBookingDays = -1 }), false},
		{"advance above bound", mutate(func(s *LibrarySettings) { s.MaxAdvanceBookingDays = 31 }), false},
		{"buffer below bound", mutate(func(s *LibrarySettings) { s.CheckInBufferMin = 4 }), false},
		{"buffer above bound", mutate(func(s *LibrarySettings) { s.CheckInBufferMin = 61 }), false},
		{"active reservations zero", mutate(func(s *LibrarySettings) { s.MaxActiveReservations = 0 }), false},
		{"active reservations above bound", mutate(func(s *LibrarySettings) { s.MaxActiveReservations = 6 }), false},
		{"threshold zero", mutate(func(s *LibrarySettings) { s.PenaltyThreshold = 0 }), false},
		{"penalty duration zero", mutate(func(s *LibrarySettings) { s.PenaltyDurationDays = 0 }), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				var pe *PolicyError
				assert.ErrorAs(t, err, &pe)
			}
		})
	}
}
