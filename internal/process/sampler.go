package process

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// DefaultSamplerCommand runs the companion system stats logger.
const DefaultSamplerCommand = "python log_system_stats.py"

// Sampler implements Builder for the stats sampling companion process.
// The only contract with the sampler is "<command> -l <csv file>".
type Sampler struct {
	command []string
	logFile string
}

// NewSampler creates a sampler that writes to logFile.
// command is split on whitespace.
func NewSampler(command, logFile string) *Sampler {
	return &Sampler{
		command: strings.Fields(command),
		logFile: logFile,
	}
}

// Name returns "sampler".
func (s *Sampler) Name() string {
	return "sampler"
}

// LogFile returns the CSV path passed to the sampler.
func (s *Sampler) LogFile() string {
	return s.logFile
}

// BuildCommand returns the sampler command. It is not started.
func (s *Sampler) BuildCommand(ctx context.Context) (*exec.Cmd, error) {
	if len(s.command) == 0 {
		return nil, errors.New("empty sampler command")
	}
	args := append(append([]string{}, s.command[1:]...), "-l", s.logFile)
	return exec.CommandContext(ctx, s.command[0], args...), nil
}

// CommandString returns the command that would be executed (for debugging).
func (s *Sampler) CommandString() string {
	return strings.Join(append(append([]string{}, s.command...), "-l", s.logFile), " ")
}
