package tui

import (
	"strings"
	"testing"

	"github.com/randomizedcoder/go-perf-sweep/internal/supervisor"
)

// =============================================================================
// Tests: GetStateLabel
// =============================================================================

func TestGetStateLabel(t *testing.T) {
	tests := []struct {
		name       string
		state      supervisor.State
		cancelled  bool
		wantSubstr string
	}{
		{"idle", supervisor.StateIdle, false, "idle"},
		{"running", supervisor.StateRunning, false, "running"},
		{"draining", supervisor.StateDraining, false, "draining"},
		{"done", supervisor.StateDone, false, "done"},
		{"cancelled", supervisor.StateDone, true, "cancelled"},
		{"cancel flag ignored while running", supervisor.StateRunning, true, "running"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetStateLabel(tt.state, tt.cancelled)
			if !strings.Contains(got, tt.wantSubstr) {
				t.Errorf("GetStateLabel(%v, %v) = %q, want substring %q", tt.state, tt.cancelled, got, tt.wantSubstr)
			}
		})
	}
}

// =============================================================================
// Tests: RenderProgressBar
// =============================================================================

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		width    int
		percent  string
	}{
		{"empty", 0, 20, "0%"},
		{"half", 0.5, 20, "50%"},
		{"full", 1, 20, "100%"},
		{"over", 1.5, 20, "150%"},
		{"narrow", 0.5, 2, "50%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := RenderProgressBar(tt.progress, tt.width)
			if !strings.Contains(bar, tt.percent) {
				t.Errorf("RenderProgressBar(%v) = %q, missing %s", tt.progress, bar, tt.percent)
			}

			width := tt.width
			if width < 10 {
				width = 10
			}
			cells := strings.Count(bar, "█") + strings.Count(bar, "░")
			if cells != width {
				t.Errorf("bar has %d cells, want %d", cells, width)
			}
		})
	}
}

func TestRepeatChar(t *testing.T) {
	if got := repeatChar('x', 3); got != "xxx" {
		t.Errorf("repeatChar('x', 3) = %q", got)
	}
	if got := repeatChar('x', 0); got != "" {
		t.Errorf("repeatChar('x', 0) = %q", got)
	}
	if got := repeatChar('x', -1); got != "" {
		t.Errorf("repeatChar('x', -1) = %q", got)
	}
}

func TestRenderKeyValue(t *testing.T) {
	got := RenderKeyValue("Slot length", "11s")
	if !strings.Contains(got, "Slot length:") || !strings.Contains(got, "11s") {
		t.Errorf("RenderKeyValue() = %q", got)
	}
}
