package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPExpiry(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	otp := OTP{Code: "042913", GeneratedAt: issued}

	assert.False(t, otp.Expired(issued.Add(4*time.Minute)))
	// exactly at the boundary the code is still valid
	assert.False(t, otp.Expired(issued.Add(OTPValidity)))
	assert.True(t, otp.Expired(issued.Add(OTPValidity+time.Second)))
}
