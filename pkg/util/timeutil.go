package util

import (
	"math"
	"time"
)

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FloorDays returns the number of days between from and to, rounded down.
// A span of minus one hour is -1 day.
func FloorDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}
