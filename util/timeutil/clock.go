package timeutil

import (
	"time"
)

type Time interface {
	// Now returns the current time.
	Now() time.Time
}

// RealTime reads the wall clock.
type RealTime struct{}

func (RealTime) Now() time.Time {
	return time.Now()
}

// FixedTime always reports the same instant. Useful when asserting on stamped timestamps.
type FixedTime struct {
	Instant time.Time
}

func (f FixedTime) Now() time.Time {
	return f.Instant
}
