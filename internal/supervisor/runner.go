package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/randomizedcoder/go-perf-sweep/internal/experiment"
	"github.com/randomizedcoder/go-perf-sweep/internal/logging"
	"github.com/randomizedcoder/go-perf-sweep/internal/process"
)

// MinSlotWarmUp is how long Run blocks after launching so the benchmark
// can come up before the slot timer is trusted.
const MinSlotWarmUp = time.Second

// Launcher starts a process without waiting for it.
type Launcher interface {
	Start(ctx context.Context, b process.Builder) (*process.Handle, error)
}

// Callbacks contains optional callback functions for runner events.
type Callbacks struct {
	// OnLaunch is called after an experiment has been taken off the queue and spawned.
	OnLaunch func(e *experiment.Experiment)

	// OnSpawnError is called when the benchmark or sampler could not be started.
	OnSpawnError func(name string, err error)

	// OnKill is called after each Kill with the per-handle results and the
	// number of processes removed by the by-name sweep.
	OnKill func(killed, failed, swept int)
}

// Config holds configuration for creating a new Runner.
type Config struct {
	Experiments []*experiment.Experiment
	OutputDir   string

	// Stats sampler
	SampleStats    bool
	SamplerCommand string

	// Process names for the by-name sweeps
	BenchmarkProcess string
	SamplerProcess   string

	Logger    *slog.Logger
	Launcher  Launcher
	Callbacks Callbacks

	// WarmUp overrides MinSlotWarmUp when > 0.
	WarmUp time.Duration

	// KillByName defaults to process.KillByName.
	KillByName func(name string) (int, error)
}

// Runner owns the FIFO experiment queue and the processes of the running slot.
// Run, Kill and StopSamplers are called from a single goroutine; the
// counters may be read from anywhere.
type Runner struct {
	logger     *slog.Logger
	launcher   Launcher
	callbacks  Callbacks
	runLog     *logging.RunLog
	registry   Registry
	killByName func(name string) (int, error)
	warmUp     time.Duration

	sampleStats      bool
	samplerCommand   string
	benchmarkProcess string
	samplerProcess   string

	mu       sync.Mutex
	queue    []*experiment.Experiment
	total    int
	executed int
	current  *experiment.Experiment
}

// New creates the output directory and opens the run log inside it.
func New(cfg Config) (*Runner, error) {
	if cfg.Launcher == nil {
		return nil, errors.New("runner: launcher is required")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	runLog, err := logging.OpenRunLog(filepath.Join(cfg.OutputDir, logging.RunLogName))
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("run_log_opened", "path", runLog.Path())
	warmUp := cfg.WarmUp
	if warmUp <= 0 {
		warmUp = MinSlotWarmUp
	}
	killByName := cfg.KillByName
	if killByName == nil {
		killByName = process.KillByName
	}

	queue := make([]*experiment.Experiment, len(cfg.Experiments))
	copy(queue, cfg.Experiments)

	return &Runner{
		logger:           logger,
		launcher:         cfg.Launcher,
		callbacks:        cfg.Callbacks,
		runLog:           runLog,
		killByName:       killByName,
		warmUp:           warmUp,
		sampleStats:      cfg.SampleStats,
		samplerCommand:   cfg.SamplerCommand,
		benchmarkProcess: cfg.BenchmarkProcess,
		samplerProcess:   cfg.SamplerProcess,
		queue:            queue,
		total:            len(queue),
	}, nil
}

// HasCommands reports whether any experiment is still queued.
func (r *Runner) HasCommands() bool {
	return r.Remaining() > 0
}

// Remaining returns the number of queued experiments.
func (r *Runner) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Executed returns how many experiments have been taken off the queue.
func (r *Runner) Executed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executed
}

// Total returns the queue length at construction.
func (r *Runner) Total() int {
	return r.total
}

// Current returns the most recently launched experiment, or nil.
func (r *Runner) Current() *experiment.Experiment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Run launches the next experiment and blocks for the warm-up period.
// With an empty queue it logs and returns without changing anything.
// Spawn failures are logged and reported via callbacks; the slot still counts.
func (r *Runner) Run(ctx context.Context) {
	r.mu.Lock()
	if len(r.queue) == 0 {
		r.mu.Unlock()
		r.logger.Info("no_more_commands")
		return
	}
	e := r.queue[0]
	r.queue[0] = nil
	r.queue = r.queue[1:]
	r.mu.Unlock()

	r.runLog.Record(e.Command())

	// The sampler writes into the experiment directory from its first sample
	if err := e.EnsureDir(); err != nil {
		r.logger.Warn("experiment_dir_failed", "dir", e.Dir(), "error", err)
	}
	if r.sampleStats {
		s := process.NewSampler(r.samplerCommand, e.SamplerLogFile())
		r.logger.Debug("sampler_command", "command", s.CommandString())
		r.start(ctx, s)
	}
	h := r.start(ctx, e)
	pid := 0
	var exited <-chan struct{}
	if h != nil {
		pid = h.PID
		exited = h.Done()
	}

	r.mu.Lock()
	r.current = e
	r.executed++
	executed, remaining := r.executed, len(r.queue)
	r.mu.Unlock()

	p := e.Params()
	r.logger.Info("experiment_started",
		"topic", p.Topic,
		"rate", p.Rate,
		"publishers", p.Publishers,
		"subscribers", p.Subscribers,
		"flags", e.Flags(),
		"pid", pid,
		"executed", executed,
		"remaining", remaining,
	)
	r.logger.Debug("experiment_command", "command", e.Command())

	if r.callbacks.OnLaunch != nil {
		r.callbacks.OnLaunch(e)
	}

	timer := time.NewTimer(r.warmUp)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case <-exited:
			// The slot still runs to its end
			r.logger.Warn("experiment_exited_during_warm_up", "pid", pid, "command", e.Command())
			exited = nil
		}
	}
}

// start launches b and registers it. It returns nil on failure.
func (r *Runner) start(ctx context.Context, b process.Builder) *process.Handle {
	h, err := r.launcher.Start(ctx, b)
	if err != nil {
		r.logger.Error("spawn_failed", "process", b.Name(), "error", err)
		if r.callbacks.OnSpawnError != nil {
			r.callbacks.OnSpawnError(b.Name(), err)
		}
		return nil
	}
	r.registry.Add(h)
	return h
}

// Kill force-kills every registered process, sweeps for stray benchmark
// processes by name, and clears the registry. Failures are logged only.
func (r *Runner) Kill() {
	killed, failed := r.registry.KillAll(func(err error) {
		r.logger.Debug("kill_failed", "error", err)
	})

	swept := r.sweep(r.benchmarkProcess)

	r.logger.Debug("slot_killed",
		"killed", killed,
		"failed", failed,
		"swept", swept,
	)
	if r.callbacks.OnKill != nil {
		r.callbacks.OnKill(killed, failed, swept)
	}
}

// StopSamplers sweeps for stray sampler processes by name.
func (r *Runner) StopSamplers() {
	if n := r.sweep(r.samplerProcess); n > 0 {
		r.logger.Debug("samplers_stopped", "count", n)
	}
}

func (r *Runner) sweep(name string) int {
	if name == "" {
		return 0
	}
	n, err := r.killByName(name)
	if err != nil {
		r.logger.Debug("name_sweep_failed", "name", name, "error", err)
	}
	return n
}

// RegisteredProcesses returns the number of processes tracked for the current slot.
func (r *Runner) RegisteredProcesses() int {
	return r.registry.Len()
}

// Close closes the run log.
func (r *Runner) Close() error {
	return r.runLog.Close()
}
