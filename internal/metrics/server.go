package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randomizedcoder/go-perf-sweep/internal/stats"
)

// ProgressFunc returns the current sweep progress.
type ProgressFunc func() stats.Progress

// Server provides HTTP endpoints for Prometheus metrics and health checks.
type Server struct {
	addr     string
	server   *http.Server
	logger   *slog.Logger
	progress ProgressFunc
}

// NewServerWithGatherer creates a metrics server that exposes g.
// progress may be nil, in which case /ready always reports ready.
func NewServerWithGatherer(addr string, logger *slog.Logger, progress ProgressFunc, g prometheus.Gatherer) *Server {
	s := &Server{
		addr:     addr,
		logger:   logger,
		progress: progress,
	}

	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	// Health check endpoint
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/healthz", healthHandler)

	// Ready while the sweep still has work
	mux.HandleFunc("/ready", s.readyHandler)
	mux.HandleFunc("/readyz", s.readyHandler)

	mux.HandleFunc("/progress", s.progressHandler)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// healthHandler handles health check requests.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if s.progress != nil && s.progress().State.IsTerminal() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "done")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// progressResponse is the JSON shape served on /progress.
type progressResponse struct {
	State          string  `json:"state"`
	Total          int     `json:"total"`
	Executed       int     `json:"executed"`
	Remaining      int     `json:"remaining"`
	Current        string  `json:"current,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	ETASeconds     float64 `json:"eta_seconds"`
	SpawnFailures  int     `json:"spawn_failures"`
	Cancelled      bool    `json:"cancelled"`
}

func (s *Server) progressHandler(w http.ResponseWriter, r *http.Request) {
	if s.progress == nil {
		http.NotFound(w, r)
		return
	}

	p := s.progress()
	now := time.Now()
	resp := progressResponse{
		State:          p.State.String(),
		Total:          p.Total,
		Executed:       p.Executed,
		Remaining:      p.Remaining,
		Current:        p.CurrentCommand,
		ElapsedSeconds: p.Elapsed(now).Seconds(),
		ETASeconds:     p.ETA(now).Seconds(),
		SpawnFailures:  p.SpawnFailures,
		Cancelled:      p.Cancelled,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Debug("progress_encode_failed", "error", err)
	}
}

// Start starts the metrics server in a goroutine.
// Returns immediately. Use Shutdown to stop.
func (s *Server) Start() error {
	s.logger.Info("metrics_server_starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics_server_error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("metrics_server_shutting_down")
	return s.server.Shutdown(ctx)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.addr
}
