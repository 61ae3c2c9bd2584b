// Package main provides the go-perf-sweep CLI entry point.
//
// go-perf-sweep runs every combination of topic, rate, publisher count,
// subscriber count and QoS flags against perf_test, one experiment at a
// time, each with a fixed wall-clock budget after which it is killed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-perf-sweep/internal/config"
	"github.com/randomizedcoder/go-perf-sweep/internal/logging"
	"github.com/randomizedcoder/go-perf-sweep/internal/orchestrator"
	"github.com/randomizedcoder/go-perf-sweep/internal/stats"
	"github.com/randomizedcoder/go-perf-sweep/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-perf-sweep
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-perf-sweep %s\n", version)
			return 0
		}
	}

	// Parse command-line flags
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// Initialize logger
	// When TUI is enabled, suppress logs to avoid interfering with TUI rendering
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewDiscardLogger()
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	// Apply --check mode modifications
	if cfg.Check {
		config.ApplyCheckMode(cfg)
		logger.Info("check_mode_enabled", "limit", cfg.Limit, "period", cfg.Period.String())
	}

	// Handle --print-cmd mode
	if cfg.PrintCmd {
		printCommands(cfg)
		return 0
	}

	// Log startup
	logger.Info("starting",
		"version", version,
		"experiments", cfg.ExperimentCount(),
		"period", cfg.Period.String(),
		"output_dir", cfg.OutputDir,
		"system_stats", cfg.SystemStats,
		"metrics_addr", cfg.MetricsAddr,
	)

	// Print startup banner
	if !cfg.TUIEnabled {
		printBanner(cfg)
	}

	// Create and run orchestrator
	orch, err := orchestrator.New(cfg, logger, version)
	if err != nil {
		logger.Error("orchestrator_failed", "error", err)
		return 1
	}

	// A cancelled sweep still exits 0; the summary reports it
	if cfg.TUIEnabled {
		_, err = runWithTUI(cfg, orch)
	} else {
		_, err = orch.Run(context.Background())
	}
	if err != nil {
		logger.Error("orchestrator_failed", "error", err)
		return 1
	}

	return 0
}

type runOutcome struct {
	res *orchestrator.Result
	err error
}

// runWithTUI runs the sweep behind the dashboard. Quitting the dashboard
// cancels the sweep; the exit summary is printed once the screen is restored.
func runWithTUI(cfg *config.Config, orch *orchestrator.Orchestrator) (*orchestrator.Result, error) {
	done := make(chan runOutcome, 1)
	go func() {
		res, err := orch.Run(context.Background())
		done <- runOutcome{res, err}
	}()

	// Preflight output stays on the normal screen
	select {
	case <-orch.Ready():
	case out := <-done:
		return out.res, out.err
	}

	model := tui.New(tui.Config{
		OutputDir:   cfg.OutputDir,
		MetricsAddr: cfg.MetricsAddr,
		Source:      orch,
		OnQuit:      orch.Cancel,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		out := <-done
		tui.SendQuit(p)
		done <- out
	}()

	if _, err := p.Run(); err != nil {
		slog.Error("tui_failed", "error", err)
		orch.Cancel()
	}

	out := <-done
	if out.res != nil {
		fmt.Print(out.res.Summary)
	}
	return out.res, out.err
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                          go-perf-sweep                            ║")
	fmt.Println("║        perf_test Parameter Sweeps with Fixed Time Slots           ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Topics:      %v\n", cfg.Topics)
	fmt.Printf("  Rates:       %v Hz\n", cfg.Rates)
	fmt.Printf("  Pub/Sub:     %v / %v\n", cfg.Publishers, cfg.Subscribers)
	fmt.Printf("  Period:      %s per experiment\n", cfg.Period)
	fmt.Printf("  Output:      %s\n", cfg.OutputDir)
	if cfg.SystemStats {
		fmt.Printf("  Sampler:     %s\n", cfg.Sampler)
	}
	if cfg.MetricsAddr != "" {
		fmt.Printf("  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()
}

// printCommands prints every command the sweep would run, and the time it would take.
func printCommands(cfg *config.Config) {
	exps := cfg.Experiments()

	fmt.Println("# Commands that would be run, one per slot:")
	fmt.Println()
	for _, e := range exps {
		fmt.Println(e.Command())
	}
	fmt.Println()
	fmt.Print(stats.FormatPlan(len(exps), cfg.Slot(), time.Now()))
}
