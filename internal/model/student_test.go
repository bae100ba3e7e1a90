package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyNoShowEscalation(t *testing.T) {
	settings := DefaultSettings() // threshold 3
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Student{}

	s.ApplyNoShow(settings, now)
	s.ApplyNoShow(settings, now)
	assert.Equal(t, 2, s.NoShowCount)
	assert.False(t, s.IsRestricted, "one below threshold must not restrict")
	assert.Nil(t, s.LastPenaltyAt)

	// the third no-show trips the restriction
	s.ApplyNoShow(settings, now)
	assert.Equal(t, 3, s.NoShowCount)
	assert.True(t, s.IsRestricted)
	if assert.NotNil(t, s.LastPenaltyAt) {
		assert.Equal(t, now, *s.LastPenaltyAt)
	}
}

func TestRestrictionExpiry(t *testing.T) {
	settings := DefaultSettings() // 7 day penalty
	penalised := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &Student{NoShowCount: 3, IsRestricted: true, LastPenaltyAt: &penalised}

	// still inside the penalty window
	assert.False(t, s.RestrictionExpired(settings, penalised.Add(6*24*time.Hour)))
	// exactly at the boundary is still restricted; expiry requires now > end
	assert.False(t, s.RestrictionExpired(settings, penalised.Add(7*24*time.Hour)))
	// past the window
	assert.True(t, s.RestrictionExpired(settings, penalised.Add(7*24*time.Hour+time.Second)))

	s.ClearRestriction()
	assert.False(t, s.IsRestricted)
	assert.Equal(t, 0, s.NoShowCount)
	assert.Nil(t, s.LastPenaltyAt)
}

func TestRestrictionExpiredWhenNotRestricted(t *testing.T) {
	s := &Student{}
	assert.False(t, s.RestrictionExpired(DefaultSettings(), time.Now().UTC()))
}

func TestReduceFineClampsAtZero(t *testing.T) {
	s := &Student{FinePaise: 5000}

	applied := s.ReduceFine(2000)
	assert.Equal(t, int64(2000), applied)
	assert.Equal(t, int64(3000), s.FinePaise)

	// paying more than owed clamps at zero and applies only the balance
	applied = s.ReduceFine(10000)
	assert.Equal(t, int64(3000), applied)
	assert.Equal(t, int64(0), s.FinePaise)

	// nothing left to reduce
	assert.Equal(t, int64(0), s.ReduceFine(100))
	assert.Equal(t, int64(0), s.FinePaise)
}
