package application

import "time"

// Clock makes time injectable in tests
type Clock interface {
	Now() time.Time
}

// SystemClock is the default, backed by time.Now in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
