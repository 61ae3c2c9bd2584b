// Package config provides configuration management for go-perf-sweep.
package config

import (
	"time"

	"github.com/randomizedcoder/go-perf-sweep/internal/experiment"
	"github.com/randomizedcoder/go-perf-sweep/internal/process"
	"github.com/randomizedcoder/go-perf-sweep/internal/stats"
	"github.com/randomizedcoder/go-perf-sweep/internal/supervisor"
)

// Config holds all configuration options for a sweep.
type Config struct {
	// Sweep
	Period      time.Duration `json:"period"`
	Topics      []string      `json:"topics"`
	Rates       []int         `json:"rates"`
	Publishers  []int         `json:"publishers"`
	Subscribers []int         `json:"subscribers"`
	Reliability bool          `json:"reliability"`
	Durability  bool          `json:"durability"`
	Security    bool          `json:"security"`
	Limit       int           `json:"limit"` // 0 = all

	// Output
	OutputDir string `json:"output_dir"`

	// Processes
	Benchmark        string `json:"benchmark"`
	BenchmarkProcess string `json:"benchmark_process"`
	SystemStats      bool   `json:"system_stats"`
	Sampler          string `json:"sampler"`
	SamplerProcess   string `json:"sampler_process"`

	// Observability
	MetricsAddr string `json:"metrics_addr"` // empty = disabled
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // json, text
	TUIEnabled  bool   `json:"tui_enabled"`

	// Diagnostic modes
	PrintCmd      bool `json:"print_cmd"`
	Check         bool `json:"check"`
	SkipPreflight bool `json:"skip_preflight"`
}

// DefaultConfig returns a Config with sensible defaults.
// OutputDir is left empty; ParseFlags fills it with a timestamped name.
func DefaultConfig() *Config {
	return &Config{
		// Sweep
		Period:      60 * time.Second,
		Publishers:  []int{1},
		Subscribers: []int{1},

		// Processes
		Benchmark:        experiment.DefaultCommandPrefix,
		BenchmarkProcess: "perf_test",
		Sampler:          process.DefaultSamplerCommand,
		SamplerProcess:   "log_system_stats.py",

		// Observability
		MetricsAddr: "0.0.0.0:17091",
		Verbose:     false,
		LogFormat:   "json",
		TUIEnabled:  false,
	}
}

// DefaultOutputDir returns the timestamped output directory name for now (UTC).
func DefaultOutputDir(now time.Time) string {
	return "experiment_" + now.UTC().Format("2006-01-02_15-04-05")
}

// Sweep returns the parameter sets of the configured sweep.
// Topics are assumed valid; see Validate.
func (c *Config) Sweep() experiment.Sweep {
	topics := make([]experiment.Topic, len(c.Topics))
	for i, t := range c.Topics {
		topics[i] = experiment.Topic(t)
	}
	return experiment.Sweep{
		Topics:      topics,
		Rates:       c.Rates,
		Publishers:  c.Publishers,
		Subscribers: c.Subscribers,
		Reliability: c.Reliability,
		Durability:  c.Durability,
		Security:    c.Security,
	}
}

// Experiments generates the run queue, truncated to Limit when set.
func (c *Config) Experiments() []*experiment.Experiment {
	exps := c.Sweep().Generate(c.OutputDir, c.Benchmark)
	if c.Limit > 0 && c.Limit < len(exps) {
		exps = exps[:c.Limit]
	}
	return exps
}

// ExperimentCount returns the number of experiments that will run.
func (c *Config) ExperimentCount() int {
	n := c.Sweep().Count()
	if c.Limit > 0 && c.Limit < n {
		return c.Limit
	}
	return n
}

// Slot returns the wall-clock budget of one experiment including warm-up.
func (c *Config) Slot() time.Duration {
	return stats.AddDurations(c.Period, supervisor.MinSlotWarmUp)
}
