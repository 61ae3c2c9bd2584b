package stats

import (
	"fmt"
	"strings"
	"time"
)

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════════════════════════\n"
	ruleLight = "───────────────────────────────────────────────────────────────────────────────\n"
)

// SummaryConfig holds the values for the exit summary that are not part of Progress.
type SummaryConfig struct {
	// Duration is the total run duration
	Duration time.Duration

	// OutputDir is where logs were written
	OutputDir string

	// MetricsAddr is the Prometheus metrics endpoint address
	MetricsAddr string

	// SnapshotPath is the metrics snapshot file, if one was written
	SnapshotPath string

	// Slot length percentiles observed between ticks
	SlotP50 time.Duration
	SlotP95 time.Duration
	SlotMax time.Duration

	// Kill bookkeeping (from metrics.Collector)
	KillsFailed    int
	NameSweepKills int
}

// FormatPlan formats the startup report: experiment count, estimated
// total time at one slot each, and the estimated completion time.
func FormatPlan(count int, slot time.Duration, now time.Time) string {
	total := ScaleDuration(count, slot)

	var b strings.Builder
	fmt.Fprintf(&b, "Executing %d experiments\n", count)
	fmt.Fprintf(&b, "Slot length:                %s\n", slot)
	fmt.Fprintf(&b, "Estimated time to run all:  %s\n", FormatDuration(total))
	fmt.Fprintf(&b, "Estimated completion at:    %s\n", now.Add(total).Format(time.DateTime))
	return b.String()
}

// FormatExitSummary formats the sweep result for display at program exit.
func FormatExitSummary(p Progress, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(ruleHeavy)
	b.WriteString("                          go-perf-sweep Exit Summary\n")
	b.WriteString(ruleHeavy + "\n")

	outcome := "finished"
	if p.Cancelled {
		outcome = "cancelled"
	}

	fmt.Fprintf(&b, "Outcome:                %s\n", outcome)
	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(cfg.Duration))
	fmt.Fprintf(&b, "Experiments Executed:   %d of %d\n", p.Executed, p.Total)
	if p.Remaining > 0 {
		fmt.Fprintf(&b, "Experiments Skipped:    %d\n", p.Remaining)
	}
	if cfg.OutputDir != "" {
		fmt.Fprintf(&b, "Output Directory:       %s\n", cfg.OutputDir)
	}
	b.WriteString("\n")

	// Slot timing
	if cfg.SlotP50 > 0 || cfg.SlotMax > 0 {
		b.WriteString(ruleLight)
		b.WriteString("                              Slot Timing\n")
		b.WriteString(ruleLight + "\n")

		fmt.Fprintf(&b, "  Configured:           %s\n", p.Slot)
		fmt.Fprintf(&b, "  P50 (median):         %s\n", cfg.SlotP50.Round(time.Millisecond))
		fmt.Fprintf(&b, "  P95:                  %s\n", cfg.SlotP95.Round(time.Millisecond))
		fmt.Fprintf(&b, "  Max:                  %s\n", cfg.SlotMax.Round(time.Millisecond))
		b.WriteString("\n")
	}

	// Process problems
	if p.SpawnFailures > 0 || cfg.KillsFailed > 0 || cfg.NameSweepKills > 0 {
		b.WriteString(ruleLight)
		b.WriteString("                                Processes\n")
		b.WriteString(ruleLight + "\n")

		if p.SpawnFailures > 0 {
			fmt.Fprintf(&b, "  Spawn Failures:       %d\n", p.SpawnFailures)
		}
		if cfg.KillsFailed > 0 {
			fmt.Fprintf(&b, "  Failed Kills:         %d\n", cfg.KillsFailed)
		}
		if cfg.NameSweepKills > 0 {
			fmt.Fprintf(&b, "  Killed By Name:       %d\n", cfg.NameSweepKills)
		}
		b.WriteString("\n")
	}

	if cfg.SnapshotPath != "" {
		fmt.Fprintf(&b, "Metrics snapshot: %s\n", cfg.SnapshotPath)
	}
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}

	b.WriteString(ruleHeavy)

	return b.String()
}

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
