package stats

import (
	"math"
	"time"
)

// MaxDuration is the longest representable time.Duration.
const MaxDuration = time.Duration(math.MaxInt64)

// AddDurations returns a+b for non-negative inputs, clamped to MaxDuration.
func AddDurations(a, b time.Duration) time.Duration {
	if a > MaxDuration-b {
		return MaxDuration
	}
	return a + b
}

// ScaleDuration returns n*d for non-negative inputs, clamped to MaxDuration.
func ScaleDuration(n int, d time.Duration) time.Duration {
	if n <= 0 || d <= 0 {
		return 0
	}
	if d > MaxDuration/time.Duration(n) {
		return MaxDuration
	}
	return time.Duration(n) * d
}
