// Package metrics provides Prometheus metrics for go-perf-sweep.
//
// Metrics are grouped the way a dashboard would show them: sweep overview,
// slot timing, and process bookkeeping. All names carry the perf_sweep_ prefix.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/influxdata/tdigest"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-perf-sweep/internal/experiment"
	"github.com/randomizedcoder/go-perf-sweep/internal/stats"
	"github.com/randomizedcoder/go-perf-sweep/internal/supervisor"
)

// Prefix is shared by every metric this package registers.
const Prefix = "perf_sweep_"

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version     string
	OutputDir   string
	Total       int
	Slot        time.Duration
	SampleStats bool
}

// Collector manages all Prometheus metrics for the sweep.
type Collector struct {
	// --- Sweep overview ---
	info       *prometheus.GaugeVec
	total      prometheus.Gauge
	executed   prometheus.Gauge
	remaining  prometheus.Gauge
	state      *prometheus.GaugeVec
	elapsed    prometheus.Gauge
	etaSeconds prometheus.Gauge
	launches   *prometheus.CounterVec

	// --- Slot timing ---
	slotSeconds  prometheus.Gauge
	slotDuration prometheus.Histogram

	// --- Processes ---
	spawnFailures  *prometheus.CounterVec
	kills          *prometheus.CounterVec
	nameSweepKills prometheus.Counter

	// For summary generation
	mu           sync.Mutex
	slotDigest   *tdigest.TDigest
	slotSamples  int
	slotMax      time.Duration
	killsFailed  int
	sweptByName  int
	spawnsFailed int
}

// NewCollectorWithRegistry creates a collector registered on registry.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: Prefix + "info",
				Help: "Information about the sweep (value always 1)",
			},
			[]string{"version", "output_dir", "sample_stats"},
		),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "experiments",
			Help: "Number of experiments in the sweep",
		}),
		executed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "experiments_executed",
			Help: "Experiments taken off the queue so far",
		}),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "experiments_remaining",
			Help: "Experiments still queued",
		}),
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: Prefix + "state",
				Help: "Current scheduler state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "elapsed_seconds",
			Help: "Seconds since the sweep started",
		}),
		etaSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "remaining_seconds",
			Help: "Estimated seconds until the last slot expires",
		}),
		launches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "launches_total",
				Help: "Experiments launched, by topic",
			},
			[]string{"topic"},
		),
		slotSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: Prefix + "slot_seconds",
			Help: "Configured slot length (period plus warm-up)",
		}),
		slotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    Prefix + "slot_duration_seconds",
			Help:    "Observed time between slot starts",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		spawnFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "spawn_failures_total",
				Help: "Processes that could not be started, by process",
			},
			[]string{"process"},
		),
		kills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: Prefix + "kills_total",
				Help: "Tracked process kills, by result",
			},
			[]string{"result"},
		),
		nameSweepKills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: Prefix + "name_sweep_kills_total",
			Help: "Processes killed by the by-name sweep",
		}),
		slotDigest: tdigest.NewWithCompression(100),
	}

	registry.MustRegister(
		c.info,
		c.total,
		c.executed,
		c.remaining,
		c.state,
		c.elapsed,
		c.etaSeconds,
		c.launches,
		c.slotSeconds,
		c.slotDuration,
		c.spawnFailures,
		c.kills,
		c.nameSweepKills,
	)

	sample := "false"
	if cfg.SampleStats {
		sample = "true"
	}
	c.info.WithLabelValues(cfg.Version, cfg.OutputDir, sample).Set(1)
	c.total.Set(float64(cfg.Total))
	c.remaining.Set(float64(cfg.Total))
	c.slotSeconds.Set(cfg.Slot.Seconds())

	// Pre-create label sets so they show up as zero before the first event
	c.kills.WithLabelValues("killed")
	c.kills.WithLabelValues("failed")
	c.SetState(supervisor.StateIdle)

	return c
}

// =============================================================================
// Event Recording Methods
// =============================================================================

// SetState marks s as the active state.
func (c *Collector) SetState(s supervisor.State) {
	for _, st := range supervisor.AllStates {
		v := 0.0
		if st == s {
			v = 1
		}
		c.state.WithLabelValues(st.String()).Set(v)
	}
}

// ExperimentLaunched records an experiment leaving the queue.
func (c *Collector) ExperimentLaunched(e *experiment.Experiment) {
	c.launches.WithLabelValues(string(e.Params().Topic)).Inc()
}

// SpawnFailed records a process that could not be started.
func (c *Collector) SpawnFailed(process string) {
	c.spawnFailures.WithLabelValues(process).Inc()

	c.mu.Lock()
	c.spawnsFailed++
	c.mu.Unlock()
}

// RecordKill records the outcome of one slot teardown.
func (c *Collector) RecordKill(killed, failed, swept int) {
	c.kills.WithLabelValues("killed").Add(float64(killed))
	c.kills.WithLabelValues("failed").Add(float64(failed))
	c.nameSweepKills.Add(float64(swept))

	c.mu.Lock()
	c.killsFailed += failed
	c.sweptByName += swept
	c.mu.Unlock()
}

// RecordSlot records the observed length of a finished slot.
func (c *Collector) RecordSlot(d time.Duration) {
	c.slotDuration.Observe(d.Seconds())

	c.mu.Lock()
	c.slotDigest.Add(d.Seconds(), 1)
	c.slotSamples++
	if d > c.slotMax {
		c.slotMax = d
	}
	c.mu.Unlock()
}

// UpdateProgress refreshes the gauges derived from a progress snapshot.
func (c *Collector) UpdateProgress(p stats.Progress, now time.Time) {
	c.executed.Set(float64(p.Executed))
	c.remaining.Set(float64(p.Remaining))
	c.elapsed.Set(p.Elapsed(now).Seconds())
	c.etaSeconds.Set(p.ETA(now).Seconds())
}

// =============================================================================
// Summary Generation
// =============================================================================

// Summary holds the collector's contribution to the exit summary.
type Summary struct {
	SlotP50        time.Duration
	SlotP95        time.Duration
	SlotMax        time.Duration
	SpawnFailures  int
	KillsFailed    int
	NameSweepKills int
}

// GenerateSummary returns the slot percentiles and kill counts.
func (c *Collector) GenerateSummary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		SlotMax:        c.slotMax,
		SpawnFailures:  c.spawnsFailed,
		KillsFailed:    c.killsFailed,
		NameSweepKills: c.sweptByName,
	}
	if c.slotSamples > 0 {
		s.SlotP50 = secondsToDuration(c.slotDigest.Quantile(0.5))
		s.SlotP95 = secondsToDuration(c.slotDigest.Quantile(0.95))
	}
	return s
}

func secondsToDuration(s float64) time.Duration {
	if math.IsNaN(s) {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
