package orchestrator

import (
	"math"
	"testing"
	"time"
)

func TestSlotSchedule_Slot(t *testing.T) {
	s := NewSlotSchedule(60*time.Second, time.Second)

	if s.Slot() != 61*time.Second {
		t.Errorf("Slot() = %v, want 61s", s.Slot())
	}
	if s.Period() != 60*time.Second {
		t.Errorf("Period() = %v, want 60s", s.Period())
	}
}

func TestSlotSchedule_HugePeriodStaysPositive(t *testing.T) {
	s := NewSlotSchedule(time.Duration(math.MaxInt64), time.Second)

	if s.Slot() <= 0 {
		t.Fatalf("Slot() = %v, want positive", s.Slot())
	}
	if got := s.EstimatedDuration(10); got <= 0 {
		t.Errorf("EstimatedDuration(10) = %v, want positive", got)
	}

	// time.NewTicker panics on a non-positive interval
	s.NewTicker().Stop()
}

func TestSlotSchedule_Estimates(t *testing.T) {
	s := NewSlotSchedule(9*time.Second, time.Second)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		n        int
		duration time.Duration
	}{
		{0, 0},
		{-1, 0},
		{1, 10 * time.Second},
		{6, time.Minute},
	}

	for _, tc := range testCases {
		if got := s.EstimatedDuration(tc.n); got != tc.duration {
			t.Errorf("EstimatedDuration(%d) = %v, want %v", tc.n, got, tc.duration)
		}
		if got := s.EstimatedCompletion(tc.n, now); !got.Equal(now.Add(tc.duration)) {
			t.Errorf("EstimatedCompletion(%d) = %v", tc.n, got)
		}
	}
}

func TestSlotSchedule_TickerFires(t *testing.T) {
	s := NewSlotSchedule(10*time.Millisecond, 5*time.Millisecond)

	ticker := s.NewTicker()
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not fire")
	}
}
