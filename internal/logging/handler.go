package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a single output line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the number of recent output lines kept for the dashboard.
	MaxBufferedLines = 100
)

// Line is one line of child output.
type Line struct {
	Source string
	Text   string
}

// OutputHandler collects stdout and stderr from the benchmark and sampler.
// It buffers recent lines for the dashboard, logs them, and optionally
// copies them to a passthrough writer (the terminal when no dashboard runs).
type OutputHandler struct {
	logger      *slog.Logger
	verbose     bool
	passthrough io.Writer

	// Circular buffer for recent lines
	buffer []Line
	bufIdx int
	mu     sync.Mutex
}

// NewOutputHandler creates a handler. passthrough may be nil.
func NewOutputHandler(logger *slog.Logger, verbose bool, passthrough io.Writer) *OutputHandler {
	return &OutputHandler{
		logger:      logger,
		verbose:     verbose,
		passthrough: passthrough,
		buffer:      make([]Line, MaxBufferedLines),
	}
}

// Writer returns an io.Writer that splits what it receives into lines
// attributed to source.
func (h *OutputHandler) Writer(source string) io.Writer {
	return &lineWriter{handler: h, source: source}
}

// HandleLine processes a single line of child output.
func (h *OutputHandler) HandleLine(source, line string) {
	// Truncate if too long
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	h.mu.Lock()
	h.buffer[h.bufIdx] = Line{Source: source, Text: line}
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	if h.passthrough != nil {
		io.WriteString(h.passthrough, line+"\n")
	}
	h.mu.Unlock()

	h.logLine(source, line)
}

// logLine logs the line at a level chosen from its content.
func (h *OutputHandler) logLine(source, line string) {
	level := classifyLine(line)

	// In non-verbose mode, only log warnings
	if !h.verbose && level == slog.LevelDebug {
		return
	}

	h.logger.Log(context.Background(), level, "child_output",
		"source", source,
		"line", line,
	)
}

// classifyLine determines the log level for a line based on content.
func classifyLine(line string) slog.Level {
	if IsErrorLine(line) {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}

// IsErrorLine reports whether a line of child output looks like an error.
func IsErrorLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "error") ||
		strings.Contains(lower, "failed") ||
		strings.Contains(lower, "traceback") ||
		strings.Contains(lower, "not found")
}

// RecentLines returns up to n of the most recent lines, oldest first.
func (h *OutputHandler) RecentLines(n int) []Line {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}

	lines := make([]Line, 0, n)

	// Read from circular buffer in order
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		if h.buffer[idx].Text != "" {
			lines = append(lines, h.buffer[idx])
		}
	}

	return lines
}

// lineWriter buffers partial writes until a newline arrives.
type lineWriter struct {
	handler *OutputHandler
	source  string

	mu      sync.Mutex
	pending []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.pending[:i]), "\r")
		w.pending = w.pending[i+1:]
		if line != "" {
			w.handler.HandleLine(w.source, line)
		}
	}

	// Flush runaway partial lines so the buffer stays bounded
	if len(w.pending) > MaxLineLength {
		w.handler.HandleLine(w.source, string(w.pending))
		w.pending = w.pending[:0]
	}

	return len(p), nil
}
