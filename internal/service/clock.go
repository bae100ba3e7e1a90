package service

import "time"

// Clock abstracts time.Now so services can be tested against fixed
// instants.  All services treat time as UTC.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
