package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// RunLogName is the file name of the launch record inside the output directory.
const RunLogName = "tests_executed.log"

// runLogTimeFormat is ISO-8601 to whole seconds, local time.
const runLogTimeFormat = "2006-01-02T15:04:05"

// RunLogHandler is a slog.Handler that renders each record as
// "<timestamp>,<message>" and syncs the file after every write.
// Attributes are ignored.
type RunLogHandler struct {
	mu   *sync.Mutex
	file *os.File
}

// Enabled always returns true; every launch is recorded.
func (h *RunLogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle writes one record and syncs it to disk.
func (h *RunLogHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := fmt.Fprintf(h.file, "%s,%s\n", r.Time.Format(runLogTimeFormat), r.Message); err != nil {
		return err
	}
	return h.file.Sync()
}

// WithAttrs returns the handler unchanged.
func (h *RunLogHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

// WithGroup returns the handler unchanged.
func (h *RunLogHandler) WithGroup(string) slog.Handler {
	return h
}

// RunLog is the append-only record of launched commands.
type RunLog struct {
	path    string
	file    *os.File
	handler *RunLogHandler
	logger  *slog.Logger
}

// OpenRunLog opens (or creates) path in append mode.
func OpenRunLog(path string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	h := &RunLogHandler{mu: &sync.Mutex{}, file: f}
	return &RunLog{
		path:    path,
		file:    f,
		handler: h,
		logger:  slog.New(h),
	}, nil
}

// Record appends a timestamped line for command.
func (l *RunLog) Record(command string) {
	l.logger.Info(command)
}

// Path returns the file path.
func (l *RunLog) Path() string {
	return l.path
}

// Close closes the underlying file.
func (l *RunLog) Close() error {
	return l.file.Close()
}
