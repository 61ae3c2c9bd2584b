// Package orchestrator drives the sweep: one slot per experiment, preempted by a wall-clock ticker.
package orchestrator

import (
	"time"

	"github.com/randomizedcoder/go-perf-sweep/internal/stats"
)

// Ticker delivers slot boundaries.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Scheduler decides how long a slot lasts and produces the ticker that ends each one.
type Scheduler interface {
	Slot() time.Duration
	NewTicker() Ticker
}

// SlotSchedule gives every experiment the same wall-clock budget.
// A slot is the configured period plus the runner's warm-up, so the
// benchmark still gets the full period after the warm-up wait.
type SlotSchedule struct {
	period time.Duration
	warmUp time.Duration
}

// NewSlotSchedule creates a schedule with the given period and warm-up.
func NewSlotSchedule(period, warmUp time.Duration) *SlotSchedule {
	return &SlotSchedule{
		period: period,
		warmUp: warmUp,
	}
}

// Slot returns the length of one slot.
func (s *SlotSchedule) Slot() time.Duration {
	return stats.AddDurations(s.period, s.warmUp)
}

// Period returns the configured per-experiment budget.
func (s *SlotSchedule) Period() time.Duration {
	return s.period
}

// NewTicker starts a ticker firing once per slot.
func (s *SlotSchedule) NewTicker() Ticker {
	return &timeTicker{t: time.NewTicker(s.Slot())}
}

// EstimatedDuration returns the time to run n experiments.
func (s *SlotSchedule) EstimatedDuration(n int) time.Duration {
	return stats.ScaleDuration(n, s.Slot())
}

// EstimatedCompletion returns when n experiments started at now would finish.
func (s *SlotSchedule) EstimatedCompletion(n int, now time.Time) time.Time {
	return now.Add(s.EstimatedDuration(n))
}

type timeTicker struct {
	t *time.Ticker
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }
func (t *timeTicker) Stop()               { t.t.Stop() }
