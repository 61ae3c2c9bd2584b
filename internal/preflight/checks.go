// Package preflight provides startup validation checks.
package preflight

import (
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/prometheus/procfs"
)

const (
	// requiredFDs covers the benchmark and sampler pipes, the run log and the metrics server.
	requiredFDs = 64

	// requiredProcs covers the shell wrapper, the benchmark tree and the sampler.
	requiredProcs = 32
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// Options selects what RunAll checks.
type Options struct {
	// BenchmarkCommand is the benchmark prefix; its first word must be on PATH.
	BenchmarkCommand string

	// SamplerCommand is checked only when SampleStats is set.
	SampleStats    bool
	SamplerCommand string

	// OutputDir must be writable, or creatable under a writable parent.
	OutputDir string
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

func (r *Result) add(c Check) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// RunAll executes all preflight checks.
func RunAll(opts Options) *Result {
	result := &Result{
		Checks: make([]Check, 0, 7),
		Passed: true,
	}

	// /proc is needed for the by-name sweep
	limits, procCheck := checkProcFS()
	result.add(procCheck)
	if procCheck.Passed {
		result.add(checkFileDescriptors(limitToInt(limits.OpenFiles)))
		result.add(checkProcessLimit(limitToInt(limits.Processes)))
	}

	result.add(checkExecutable("shell", "sh"))
	result.add(checkExecutable("benchmark", firstWord(opts.BenchmarkCommand)))
	if opts.SampleStats {
		result.add(checkExecutable("sampler", firstWord(opts.SamplerCommand)))
	}
	result.add(checkOutputDir(opts.OutputDir))

	return result
}

// checkProcFS verifies /proc can be read for this process.
func checkProcFS() (procfs.ProcLimits, Check) {
	self, err := procfs.Self()
	if err == nil {
		var limits procfs.ProcLimits
		if limits, err = self.Limits(); err == nil {
			return limits, Check{
				Name:    "proc_filesystem",
				Passed:  true,
				Message: "readable",
			}
		}
	}
	return procfs.ProcLimits{}, Check{
		Name:    "proc_filesystem",
		Passed:  false,
		Message: fmt.Sprintf("unreadable: %v", err),
	}
}

// checkFileDescriptors verifies the open file limit.
func checkFileDescriptors(actual int) Check {
	return Check{
		Name:     "file_descriptors",
		Required: requiredFDs,
		Actual:   actual,
		Passed:   actual >= requiredFDs,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, requiredFDs),
	}
}

// checkProcessLimit verifies the process limit. A low limit is only a warning
// since it counts every process of the user, not just ours.
func checkProcessLimit(actual int) Check {
	return Check{
		Name:     "process_limit",
		Required: requiredProcs,
		Actual:   actual,
		Passed:   true,
		Warning:  actual < requiredProcs,
		Message:  fmt.Sprintf("ulimit -u %d (need %d)", actual, requiredProcs),
	}
}

// checkExecutable verifies that program resolves on PATH.
func checkExecutable(name, program string) Check {
	if program == "" {
		return Check{
			Name:    name,
			Passed:  false,
			Message: "no command configured",
		}
	}

	path, err := exec.LookPath(program)
	if err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("%s not found: %v", program, err),
		}
	}

	return Check{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("found at %s", path),
	}
}

// checkOutputDir verifies that dir, or its nearest existing parent, accepts new files.
func checkOutputDir(dir string) Check {
	if dir == "" {
		dir = "."
	}

	existing := dir
	for {
		info, err := os.Stat(existing)
		if err == nil {
			if !info.IsDir() {
				return Check{
					Name:    "output_dir",
					Passed:  false,
					Message: fmt.Sprintf("%s is not a directory", existing),
				}
			}
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return Check{
				Name:    "output_dir",
				Passed:  false,
				Message: err.Error(),
			}
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			break
		}
		existing = parent
	}

	f, err := os.CreateTemp(existing, ".preflight-*")
	if err != nil {
		return Check{
			Name:    "output_dir",
			Passed:  false,
			Message: fmt.Sprintf("%s not writable: %v", existing, err),
		}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return Check{
		Name:    "output_dir",
		Passed:  true,
		Message: fmt.Sprintf("%s writable", dir),
	}
}

func firstWord(command string) string {
	if fields := strings.Fields(command); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// limitToInt converts a /proc/self/limits value, where unlimited is the type's maximum.
func limitToInt[T ~int64 | ~uint64](v T) int {
	if v < 0 || uint64(v) > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// PrintResults prints the preflight check results to stdout.
func PrintResults(result *Result) {
	fmt.Println("Preflight checks:")
	for _, check := range result.Checks {
		fmt.Println(check.String())
		if !check.Passed {
			fmt.Printf("    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Println()
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "proc_filesystem":
		return "run on Linux with /proc mounted"
	case "file_descriptors":
		return "ulimit -n 1024 (or edit /etc/security/limits.conf)"
	case "shell":
		return "install a POSIX shell as sh on PATH"
	case "benchmark":
		return "source the ROS 2 workspace (source install/setup.bash) or set -benchmark"
	case "sampler":
		return "install python3 or set -sampler, or drop -system-stats"
	case "output_dir":
		return "choose a writable -output directory"
	default:
		return "see documentation"
	}
}
