package model

import "time"

// Student is the library profile attached to a user account.  It carries
// the no-show ledger (count, restriction flag, penalty timestamp) and the
// outstanding fine balance.  Monetary amounts are stored as integer paise
// so no floating point rounding can occur.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – owning user account (one profile per user).
//  RollNumber    – unique student roll number.
//  Branch        – department/branch, display only.
//  NoShowCount   – number of recorded no-shows since the last reset.
//  LastPenaltyAt – when the current restriction was applied (nil if none).
//  IsRestricted  – whether booking is currently banned.
//  FinePaise     – outstanding fines in paise (never negative).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Student struct {
	ID            uint64     `json:"id"`
	UserID        uint64     `json:"user_id"`
	RollNumber    string     `json:"roll_number"`
	Branch        string     `json:"branch"`
	NoShowCount   int        `json:"no_show_count"`
	LastPenaltyAt *time.Time `json:"last_penalty_at,omitempty"`
	IsRestricted  bool       `json:"is_restricted"`
	FinePaise     int64      `json:"fine_paise"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ApplyNoShow records one no-show event against the profile.  When the
// count reaches the policy threshold the student becomes restricted and the
// penalty timestamp is stamped with now.  Each call represents exactly one
// distinct no-show; callers must not invoke it twice for the same event.
func (s *Student) ApplyNoShow(settings LibrarySettings, now time.Time) {
	s.NoShowCount++
	if s.NoShowCount >= settings.PenaltyThreshold {
		s.IsRestricted = true
		t := now
		s.LastPenaltyAt = &t
	}
}

// RestrictionExpired reports whether an active restriction has run its
// course.  A restriction lapses once now is past LastPenaltyAt plus the
// policy's penalty duration.  Profiles that are not restricted always
// return false.
func (s *Student) RestrictionExpired(settings LibrarySettings, now time.Time) bool {
	if !s.IsRestricted || s.LastPenaltyAt == nil {
		return false
	}
	end := s.LastPenaltyAt.Add(time.Duration(settings.PenaltyDurationDays) * 24 * time.Hour)
	return now.After(end)
}

// ClearRestriction resets the ledger after a restriction expires: the flag
// is dropped, the no-show count returns to zero and the penalty timestamp
// is cleared.  This is the only path by which a restriction is lifted.
func (s *Student) ClearRestriction() {
	s.IsRestricted = false
	s.NoShowCount = 0
	s.LastPenaltyAt = nil
}

// ReduceFine lowers the outstanding fine by amountPaise, clamped at zero.
// It returns the amount actually applied.
func (s *Student) ReduceFine(amountPaise int64) int64 {
	if amountPaise <= 0 || s.FinePaise <= 0 {
		return 0
	}
	applied := amountPaise
	if applied > s.FinePaise {
		applied = s.FinePaise
	}
	s.FinePaise -= applied
	return applied
}
