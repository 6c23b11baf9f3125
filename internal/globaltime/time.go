// Package globaltime is the process clock. Production code reads it through
// UTC or a Clock value; tests pin it with SetMockTime or inject their own Clock.
package globaltime

import (
	"sync"
	"time"
)

// Clock returns the current instant.
type Clock func() time.Time

var (
	mu      sync.RWMutex
	nowFunc = time.Now
)

func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return nowFunc()
}

func UTC() time.Time {
	return Now().UTC()
}

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) Clock {
	utc := t.UTC()
	return func() time.Time { return utc }
}

// OrDefault returns c, or the process clock when c is nil.
func OrDefault(c Clock) Clock {
	if c == nil {
		return UTC
	}
	return c
}

// HoursBetween returns the absolute distance between a and b in hours.
func HoursBetween(a, b time.Time) float64 {
	hours := a.Sub(b).Hours()
	if hours < 0 {
		return -hours
	}
	return hours
}

func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = func() time.Time { return t }
}

func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	nowFunc = time.Now
}
