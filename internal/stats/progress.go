// Package stats provides sweep progress snapshots and the text reports
// printed at startup and exit.
package stats

import (
	"time"

	"github.com/randomizedcoder/go-perf-sweep/internal/supervisor"
)

// Progress is a point-in-time view of the sweep. It is a plain value so it
// can be handed to the dashboard and HTTP handlers without locking.
type Progress struct {
	State supervisor.State

	Total     int
	Executed  int
	Remaining int

	// Current experiment, empty before the first launch
	CurrentCommand string
	CurrentLabel   string

	StartTime   time.Time
	SlotStarted time.Time
	Slot        time.Duration

	SpawnFailures int
	Cancelled     bool
}

// Fraction returns the share of experiments launched, in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Executed) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Elapsed returns the time since the sweep started.
func (p Progress) Elapsed(now time.Time) time.Duration {
	if p.StartTime.IsZero() {
		return 0
	}
	return now.Sub(p.StartTime)
}

// SlotElapsed returns how long the current slot has been open.
func (p Progress) SlotElapsed(now time.Time) time.Duration {
	if p.SlotStarted.IsZero() || p.State != supervisor.StateRunning {
		return 0
	}
	return now.Sub(p.SlotStarted)
}

// ETA estimates the time until the last slot expires.
func (p Progress) ETA(now time.Time) time.Duration {
	if p.State.IsTerminal() {
		return 0
	}
	eta := ScaleDuration(p.Remaining, p.Slot)
	if p.State == supervisor.StateRunning {
		if left := p.Slot - p.SlotElapsed(now); left > 0 {
			eta = AddDurations(eta, left)
		}
	}
	return eta
}

// EstimatedCompletion returns the wall-clock time the sweep should finish.
func (p Progress) EstimatedCompletion(now time.Time) time.Time {
	return now.Add(p.ETA(now))
}
