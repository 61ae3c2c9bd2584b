package experiment

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultCommandPrefix is the perf_test launcher used when none is configured.
const DefaultCommandPrefix = "ros2 run performance_test perf_test --communication ROS2"

// Params holds the parameters of one run. Validation happens upstream in config.
type Params struct {
	Topic       Topic
	Rate        int // Hz
	Publishers  int
	Subscribers int

	Reliable  bool
	Transient bool
	Secure    bool
}

// Experiment is one fully parameterized perf_test invocation.
// Every derived value is computed in New and never changes afterwards.
type Experiment struct {
	params Params
	flags  []Flag

	dir     string
	logFile string
	command string
}

// New builds an Experiment whose logs live under parent.
func New(parent, prefix string, p Params) *Experiment {
	var flags []Flag
	if p.Reliable {
		flags = append(flags, FlagReliable)
	}
	if p.Transient {
		flags = append(flags, FlagTransient)
	}
	if p.Secure {
		flags = append(flags, FlagSecurity)
	}

	var suffix strings.Builder
	for _, f := range flags {
		suffix.WriteString("_")
		suffix.WriteString(string(f))
	}

	dir := parent + "/" + string(p.Topic) + suffix.String()
	logFile := dir + "/topic" + string(p.Topic) +
		"_rate" + strconv.Itoa(p.Rate) +
		"_p" + strconv.Itoa(p.Publishers) +
		"_s" + strconv.Itoa(p.Subscribers) +
		suffix.String() + ".log"

	var cmd strings.Builder
	fmt.Fprintf(&cmd, "%s --topic %s --rate %d -p%d -s%d",
		prefix, p.Topic, p.Rate, p.Publishers, p.Subscribers)
	for _, f := range flags {
		cmd.WriteString(" --")
		cmd.WriteString(string(f))
	}
	cmd.WriteString(" -l ")
	cmd.WriteString(logFile)

	return &Experiment{
		params:  p,
		flags:   flags,
		dir:     dir,
		logFile: logFile,
		command: cmd.String(),
	}
}

// Params returns the parameters the experiment was built from.
func (e *Experiment) Params() Params {
	return e.params
}

// Flags returns the active optional flags in fixed order.
func (e *Experiment) Flags() []Flag {
	out := make([]Flag, len(e.flags))
	copy(out, e.flags)
	return out
}

// Dir returns the grouping directory for the experiment's logs.
func (e *Experiment) Dir() string {
	return e.dir
}

// LogFile returns the perf_test log file path.
func (e *Experiment) LogFile() string {
	return e.logFile
}

// Command returns the shell invocation string.
func (e *Experiment) Command() string {
	return e.command
}

// SamplerLogFile returns the CSV path the stats sampler writes for this experiment.
// Only the file name is rewritten so a "topic" in the parent path is left alone.
func (e *Experiment) SamplerLogFile() string {
	base := filepath.Base(e.logFile)
	base = strings.Replace(base, "topic", "system_info_topic", 1)
	base = strings.TrimSuffix(base, ".log") + ".csv"
	return filepath.Join(filepath.Dir(e.logFile), base)
}

// Name returns "perf_test".
func (e *Experiment) Name() string {
	return "perf_test"
}

// EnsureDir creates the experiment's log directory.
func (e *Experiment) EnsureDir() error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create experiment dir: %w", err)
	}
	return nil
}

// BuildCommand creates the log directory and returns the shell command for the run.
// The command is not started.
func (e *Experiment) BuildCommand(ctx context.Context) (*exec.Cmd, error) {
	if err := e.EnsureDir(); err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, "sh", "-c", e.command), nil
}

// String returns the command.
func (e *Experiment) String() string {
	return e.command
}
