package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/randomizedcoder/go-perf-sweep/internal/supervisor"
)

func TestAddDurations(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Duration
		want time.Duration
	}{
		{"small", 60 * time.Second, time.Second, 61 * time.Second},
		{"zero", 0, 0, 0},
		{"exactly max", MaxDuration - time.Second, time.Second, MaxDuration},
		{"overflow clamps", MaxDuration - time.Second + 1, time.Second, MaxDuration},
		{"max plus max", MaxDuration, MaxDuration, MaxDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddDurations(tt.a, tt.b); got != tt.want {
				t.Errorf("AddDurations(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestScaleDuration(t *testing.T) {
	tests := []struct {
		name string
		n    int
		d    time.Duration
		want time.Duration
	}{
		{"zero count", 0, time.Minute, 0},
		{"negative count", -3, time.Minute, 0},
		{"plain", 6, 10 * time.Second, time.Minute},
		{"overflow clamps", 2, MaxDuration/2 + 1, MaxDuration},
		{"many huge slots", 1 << 20, 1 << 50, MaxDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScaleDuration(tt.n, tt.d); got != tt.want {
				t.Errorf("ScaleDuration(%d, %v) = %v, want %v", tt.n, tt.d, got, tt.want)
			}
		})
	}
}

func TestETA_HugeSlotDoesNotWrap(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := Progress{State: supervisor.StateRunning, Remaining: 3, Slot: MaxDuration, SlotStarted: now}

	if got := p.ETA(now); got != MaxDuration {
		t.Errorf("ETA() = %v, want MaxDuration", got)
	}
}

func TestFormatPlan_HugeSlotDoesNotWrap(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	got := FormatPlan(1000, MaxDuration/10, now)

	if !strings.Contains(got, FormatDuration(MaxDuration)) {
		t.Errorf("FormatPlan() total not clamped:\n%s", got)
	}
}
