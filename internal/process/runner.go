// Package process provides abstractions for running external processes.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Builder creates executable commands for one slot of work.
// This interface keeps the launcher independent of what is being run.
type Builder interface {
	// BuildCommand returns a ready-to-start command.
	// The command should NOT be started yet.
	BuildCommand(ctx context.Context) (*exec.Cmd, error)

	// Name returns a human-readable name for this process type.
	Name() string
}

// OutputSink receives the stdout and stderr of launched processes.
type OutputSink interface {
	Writer(source string) io.Writer
}

// waitDelay bounds how long Wait keeps copying output after the child exits,
// since grandchildren of a shell wrapper can hold the pipes open.
const waitDelay = 2 * time.Second

// Handle tracks one started child process.
type Handle struct {
	Name      string
	PID       int
	StartTime time.Time

	cmd  *exec.Cmd
	done chan struct{}
}

// Kill force-kills the process group led by the child, then the child itself.
// The group is targeted by PID because Setpgid makes the child its leader,
// which also reaches workers left behind after the leader was reaped.
func (h *Handle) Kill() error {
	groupErr := syscall.Kill(-h.PID, syscall.SIGKILL)
	procErr := h.cmd.Process.Kill()
	if groupErr == nil || procErr == nil {
		return nil
	}
	if errors.Is(groupErr, syscall.ESRCH) && errors.Is(procErr, os.ErrProcessDone) {
		return os.ErrProcessDone
	}
	return fmt.Errorf("kill %s (pid %d): %w", h.Name, h.PID, errors.Join(groupErr, procErr))
}

// Done is closed once the child has been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Launcher starts children without waiting for them.
type Launcher struct {
	logger *slog.Logger
	output OutputSink
}

// NewLauncher creates a launcher. output may be nil to discard child output.
func NewLauncher(logger *slog.Logger, output OutputSink) *Launcher {
	return &Launcher{
		logger: logger,
		output: output,
	}
}

// Start builds and starts the command in its own process group and returns immediately.
// A background goroutine reaps the child; nothing waits on it otherwise.
func (l *Launcher) Start(ctx context.Context, b Builder) (*Handle, error) {
	cmd, err := b.BuildCommand(ctx)
	if err != nil {
		return nil, fmt.Errorf("build %s command: %w", b.Name(), err)
	}

	// Set process group so the whole tree can be killed at once
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	if l.output != nil {
		w := l.output.Writer(b.Name())
		cmd.Stdout = w
		cmd.Stderr = w
	}
	cmd.WaitDelay = waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", b.Name(), err)
	}

	h := &Handle{
		Name:      b.Name(),
		PID:       cmd.Process.Pid,
		StartTime: start,
		cmd:       cmd,
		done:      make(chan struct{}),
	}
	go l.reap(h)

	return h, nil
}

// reap waits for the child so it does not linger as a zombie.
func (l *Launcher) reap(h *Handle) {
	err := h.cmd.Wait()
	close(h.done)

	l.logger.Debug("process_exited",
		"name", h.Name,
		"pid", h.PID,
		"exit_code", extractExitCode(err),
		"uptime", time.Since(h.StartTime).String(),
	)
}

// extractExitCode extracts the exit code from a Wait() error.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// Signal exit: 128 + signal number
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}

	// Unknown error, assume exit code 1
	return 1
}
