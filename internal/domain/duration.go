package domain

import (
	"math"
	"time"
)

// DurationSeconds returns the elapsed whole seconds between start and end,
// clamped to zero, or nil when either side is unknown.
func DurationSeconds(start, end *time.Time) *int {
	if start == nil || end == nil {
		return nil
	}
	secs := int(math.Round(end.Sub(*start).Seconds()))
	if secs < 0 {
		secs = 0
	}
	return &secs
}
