package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/randomizedcoder/go-perf-sweep/internal/config"
	"github.com/randomizedcoder/go-perf-sweep/internal/experiment"
	"github.com/randomizedcoder/go-perf-sweep/internal/logging"
	"github.com/randomizedcoder/go-perf-sweep/internal/metrics"
	"github.com/randomizedcoder/go-perf-sweep/internal/preflight"
	"github.com/randomizedcoder/go-perf-sweep/internal/process"
	"github.com/randomizedcoder/go-perf-sweep/internal/stats"
	"github.com/randomizedcoder/go-perf-sweep/internal/supervisor"
)

// SlotRunner is the part of supervisor.Runner the event loop drives.
type SlotRunner interface {
	HasCommands() bool
	Run(ctx context.Context)
	Kill()
	StopSamplers()
	Remaining() int
	Executed() int
	Total() int
	Current() *experiment.Experiment
	Close() error
}

// Result describes how a sweep ended.
type Result struct {
	Total     int
	Executed  int
	Remaining int
	Cancelled bool
	Duration  time.Duration

	// Summary is the formatted exit summary.
	Summary string
}

// Orchestrator runs the experiment queue one slot at a time.
type Orchestrator struct {
	config *config.Config // nil when built with NewWithRunner
	logger *slog.Logger
	out    io.Writer

	runner        SlotRunner
	schedule      Scheduler
	metrics       *metrics.Collector
	metricsServer *metrics.Server
	gatherer      prometheus.Gatherer
	output        *logging.OutputHandler

	handleSignals bool
	cancelCh      chan struct{}
	ready         chan struct{}
	readyOnce     sync.Once

	mu       sync.Mutex
	progress stats.Progress
}

// New creates an Orchestrator for cfg. It creates the output directory and
// the run log, but starts nothing until Run.
func New(cfg *config.Config, logger *slog.Logger, version string) (*Orchestrator, error) {
	// Child output goes to the terminal unless the dashboard owns it
	var passthrough io.Writer
	out := io.Writer(os.Stdout)
	if cfg.TUIEnabled {
		out = io.Discard
	} else {
		passthrough = os.Stdout
	}
	output := logging.NewOutputHandler(logger, cfg.Verbose, passthrough)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	schedule := NewSlotSchedule(cfg.Period, supervisor.MinSlotWarmUp)
	experiments := cfg.Experiments()

	collector := metrics.NewCollectorWithRegistry(metrics.CollectorConfig{
		Version:     version,
		OutputDir:   cfg.OutputDir,
		Total:       len(experiments),
		Slot:        schedule.Slot(),
		SampleStats: cfg.SystemStats,
	}, registry)

	o := newOrchestrator(schedule, collector, logger)
	o.config = cfg
	o.out = out
	o.output = output
	o.gatherer = registry
	o.handleSignals = true

	runner, err := supervisor.New(supervisor.Config{
		Experiments:      experiments,
		OutputDir:        cfg.OutputDir,
		SampleStats:      cfg.SystemStats,
		SamplerCommand:   cfg.Sampler,
		BenchmarkProcess: cfg.BenchmarkProcess,
		SamplerProcess:   cfg.SamplerProcess,
		Logger:           logger,
		Launcher:         process.NewLauncher(logger, output),
		Callbacks:        o.callbacks(),
	})
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}
	o.setRunner(runner)

	if cfg.MetricsAddr != "" {
		o.metricsServer = metrics.NewServerWithGatherer(cfg.MetricsAddr, logger, o.Progress, registry)
	}

	return o, nil
}

// NewWithRunner creates an Orchestrator around an existing runner. It does
// not run preflight checks, serve metrics or handle signals.
func NewWithRunner(runner SlotRunner, schedule Scheduler, collector *metrics.Collector, logger *slog.Logger) *Orchestrator {
	o := newOrchestrator(schedule, collector, logger)
	o.setRunner(runner)
	return o
}

func newOrchestrator(schedule Scheduler, collector *metrics.Collector, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		out:      io.Discard,
		schedule: schedule,
		metrics:  collector,
		cancelCh: make(chan struct{}, 1),
		ready:    make(chan struct{}),
		progress: stats.Progress{
			State: supervisor.StateIdle,
			Slot:  schedule.Slot(),
		},
	}
}

func (o *Orchestrator) setRunner(r SlotRunner) {
	o.runner = r

	o.mu.Lock()
	o.progress.Total = r.Total()
	o.progress.Remaining = r.Remaining()
	o.mu.Unlock()

	o.metrics.SetState(supervisor.StateIdle)
}

// callbacks feeds runner events into metrics and progress.
func (o *Orchestrator) callbacks() supervisor.Callbacks {
	return supervisor.Callbacks{
		OnLaunch: func(e *experiment.Experiment) {
			o.metrics.ExperimentLaunched(e)
		},
		OnSpawnError: func(name string, err error) {
			o.metrics.SpawnFailed(name)
			o.mu.Lock()
			o.progress.SpawnFailures++
			o.mu.Unlock()
		},
		OnKill: func(killed, failed, swept int) {
			o.metrics.RecordKill(killed, failed, swept)
		},
	}
}

// Run executes the sweep. It blocks until the queue is exhausted or the
// sweep is cancelled by a signal, ctx, or Cancel.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	defer o.runner.Close()

	// Run preflight checks
	if o.config != nil && !o.config.SkipPreflight {
		result := preflight.RunAll(preflight.Options{
			BenchmarkCommand: o.config.Benchmark,
			SampleStats:      o.config.SystemStats,
			SamplerCommand:   o.config.Sampler,
			OutputDir:        o.config.OutputDir,
		})
		preflight.PrintResults(result)
		if !result.Passed {
			return nil, errors.New("preflight checks failed (use --skip-preflight to override)")
		}
	}

	// Start metrics server
	if o.metricsServer != nil {
		if err := o.metricsServer.Start(); err != nil {
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := o.metricsServer.Shutdown(shutdownCtx); err != nil {
				o.logger.Warn("metrics_server_shutdown_error", "error", err)
			}
		}()
	}

	start := time.Now()
	o.mu.Lock()
	o.progress.StartTime = start
	o.mu.Unlock()

	fmt.Fprint(o.out, stats.FormatPlan(o.runner.Total(), o.schedule.Slot(), start))
	o.logger.Info("sweep_starting",
		"experiments", o.runner.Total(),
		"slot", o.schedule.Slot().String(),
	)
	o.readyOnce.Do(func() { close(o.ready) })

	cancelled := o.loop(ctx)

	p := o.Progress()
	res := &Result{
		Total:     p.Total,
		Executed:  p.Executed,
		Remaining: p.Remaining,
		Cancelled: cancelled,
		Duration:  time.Since(start),
	}
	o.metrics.UpdateProgress(p, time.Now())

	summaryCfg := o.summaryConfig(res.Duration)
	if path := o.writeSnapshot(); path != "" {
		summaryCfg.SnapshotPath = path
	}
	res.Summary = stats.FormatExitSummary(p, summaryCfg)
	fmt.Fprint(o.out, res.Summary)

	return res, nil
}

// loop processes ticks and cancellations one at a time until the sweep is
// Done. It reports whether the sweep was cancelled.
func (o *Orchestrator) loop(ctx context.Context) bool {
	sigCh := make(chan os.Signal, 1)
	if o.handleSignals {
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigCh)
	}

	ticker := o.schedule.NewTicker()
	defer ticker.Stop()

	// The first slot starts now rather than one tick from now
	if o.advance(ctx, time.Now()) {
		return false
	}

	for {
		select {
		case now := <-ticker.C():
			o.logger.Info("slot_expired", "executed", o.runner.Executed(), "remaining", o.runner.Remaining())
			if o.advance(ctx, now) {
				return false
			}

		case sig := <-sigCh:
			o.logger.Info("received_signal", "signal", sig.String())
			o.cancel()
			return true

		case <-ctx.Done():
			o.logger.Info("context_cancelled")
			o.cancel()
			return true

		case <-o.cancelCh:
			o.logger.Info("cancel_requested")
			o.cancel()
			return true
		}
	}
}

// advance ends the current slot and starts the next one.
// It returns true once the queue is exhausted.
func (o *Orchestrator) advance(ctx context.Context, now time.Time) bool {
	o.mu.Lock()
	slotStarted := o.progress.SlotStarted
	o.mu.Unlock()
	if !slotStarted.IsZero() {
		o.metrics.RecordSlot(now.Sub(slotStarted))
	}

	o.setState(supervisor.StateDraining)
	o.runner.StopSamplers()
	o.runner.Kill()

	if !o.runner.HasCommands() {
		o.setState(supervisor.StateDone)
		o.logger.Info("sweep_finished", "executed", o.runner.Executed())
		return true
	}

	o.mu.Lock()
	o.progress.SlotStarted = time.Now()
	o.mu.Unlock()
	o.setState(supervisor.StateRunning)

	o.runner.Run(ctx)
	o.refresh()
	return false
}

// cancel tears down the running slot and marks the sweep Done.
func (o *Orchestrator) cancel() {
	o.setState(supervisor.StateDraining)
	o.runner.StopSamplers()
	o.runner.Kill()

	o.mu.Lock()
	o.progress.Cancelled = true
	o.mu.Unlock()
	o.setState(supervisor.StateDone)

	executed := o.runner.Executed()
	o.logger.Info("sweep_cancelled",
		"executed", executed,
		"remaining", o.runner.Remaining(),
	)
	fmt.Fprintf(o.out, "\nCancelled: executed %d experiments\n", executed)
}

// Cancel asks the event loop to stop. It never blocks and may be called from any goroutine.
func (o *Orchestrator) Cancel() {
	select {
	case o.cancelCh <- struct{}{}:
	default:
	}
}

// Ready is closed once preflight has passed and the first slot is about to start.
func (o *Orchestrator) Ready() <-chan struct{} {
	return o.ready
}

func (o *Orchestrator) setState(s supervisor.State) {
	o.mu.Lock()
	o.progress.State = s
	o.mu.Unlock()

	o.metrics.SetState(s)
	o.refresh()
}

// refresh copies the runner counters into the progress snapshot.
func (o *Orchestrator) refresh() {
	executed, remaining := o.runner.Executed(), o.runner.Remaining()
	current := o.runner.Current()

	o.mu.Lock()
	o.progress.Executed = executed
	o.progress.Remaining = remaining
	if current != nil {
		o.progress.CurrentCommand = current.Command()
		o.progress.CurrentLabel = experimentLabel(current)
	}
	p := o.progress
	o.mu.Unlock()

	o.metrics.UpdateProgress(p, time.Now())
}

// Progress returns a snapshot of the sweep.
func (o *Orchestrator) Progress() stats.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// RecentLines returns the last n lines of child output.
func (o *Orchestrator) RecentLines(n int) []logging.Line {
	if o.output == nil {
		return nil
	}
	return o.output.RecentLines(n)
}

// Metrics returns the metrics collector for external access.
func (o *Orchestrator) Metrics() *metrics.Collector {
	return o.metrics
}

func (o *Orchestrator) summaryConfig(d time.Duration) stats.SummaryConfig {
	s := o.metrics.GenerateSummary()
	cfg := stats.SummaryConfig{
		Duration:       d,
		SlotP50:        s.SlotP50,
		SlotP95:        s.SlotP95,
		SlotMax:        s.SlotMax,
		KillsFailed:    s.KillsFailed,
		NameSweepKills: s.NameSweepKills,
	}
	if o.config != nil {
		cfg.OutputDir = o.config.OutputDir
		cfg.MetricsAddr = o.config.MetricsAddr
	}
	return cfg
}

// writeSnapshot stores the final metrics next to the experiment logs.
// It returns the file path, or "" if nothing was written.
func (o *Orchestrator) writeSnapshot() string {
	if o.config == nil || o.gatherer == nil {
		return ""
	}
	path := filepath.Join(o.config.OutputDir, metrics.SnapshotName)
	if err := metrics.WriteSnapshotFile(path, o.gatherer); err != nil {
		o.logger.Warn("snapshot_failed", "path", path, "error", err)
		return ""
	}
	return path
}

// experimentLabel is a short description of e for the dashboard.
func experimentLabel(e *experiment.Experiment) string {
	p := e.Params()
	label := fmt.Sprintf("%s @ %d Hz, %d pub / %d sub", p.Topic, p.Rate, p.Publishers, p.Subscribers)
	for _, f := range e.Flags() {
		label += ", " + string(f)
	}
	return label
}
