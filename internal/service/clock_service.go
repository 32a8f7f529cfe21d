package service

import "time"

// Clock supplies the timestamps written on snippets and tags.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time in UTC.
type RealClock struct{}

// Now returns the current time truncated to microseconds, the precision
// Postgres keeps for TIMESTAMPTZ, so stored and returned values compare equal.
func (RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
