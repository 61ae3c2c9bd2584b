package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// intList is a custom flag type for integer lists.
// Values may be comma-separated and the flag may repeat.
type intList []int

func (l *intList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid integer %q", part)
		}
		*l = append(*l, v)
	}
	return nil
}

// stringList is a custom flag type for repeatable, comma-separated string flags.
type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// periodValue accepts plain seconds ("60", "0.5") or a Go duration ("1m30s").
type periodValue time.Duration

func (p *periodValue) String() string {
	return time.Duration(*p).String()
}

func (p *periodValue) Set(value string) error {
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		*p = periodValue(time.Duration(secs * float64(time.Second)))
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid period %q: want seconds or a duration", value)
	}
	*p = periodValue(d)
	return nil
}

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	return ParseArgs(flag.CommandLine, os.Args[1:])
}

// ParseArgs parses args into a Config using fs.
// Numeric lists are sorted ascending after parsing.
func ParseArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()

	var (
		topics      stringList
		rates       intList
		publishers  intList
		subscribers intList
		period      = periodValue(cfg.Period)
	)

	// Custom usage message
	fs.Usage = func() {
		w := fs.Output()
		fmt.Fprintf(w, `go-perf-sweep - run a parameter sweep of perf_test experiments, one fixed-length slot each

Usage:
  go-perf-sweep [flags] -topics T[,T...] -rates R[,R...]

Sweep Flags:
`)
		// Print flags by category
		printFlagCategory(fs, []string{"topics", "rates", "publishers", "subscribers", "period", "limit"})

		fmt.Fprintf(w, "\nQoS Variations:\n")
		printFlagCategory(fs, []string{"reliability", "durability", "security"})

		fmt.Fprintf(w, "\nProcesses:\n")
		printFlagCategory(fs, []string{"benchmark", "benchmark-process", "system-stats", "sampler", "sampler-process"})

		fmt.Fprintf(w, "\nOutput:\n")
		printFlagCategory(fs, []string{"output"})

		fmt.Fprintf(w, "\nSafety & Diagnostics:\n")
		printFlagCategory(fs, []string{"print-cmd", "check", "skip-preflight"})

		fmt.Fprintf(w, "\nObservability:\n")
		printFlagCategory(fs, []string{"metrics", "v", "log-format", "tui"})

		fmt.Fprintf(w, `
Flag Convention:
  Single-dash flags (-topics, -rates) are normal options.
  Double-dash flags (--check, --print-cmd) are diagnostic modes.
  List flags take comma-separated values and may repeat.

Valid Topics:
  %s

Examples:
  # One topic, one rate, 5 subscribers, with and without reliable QoS
  go-perf-sweep -topics Struct256 -rates 7 -subscribers 5 -reliability

  # Show every command of a larger sweep without running it
  go-perf-sweep --print-cmd -topics Array1k,Array4k -rates 10,100,1000 -security

`, strings.Join(topicNames(), " "))
	}

	// Sweep flags
	fs.Var(&topics, "topics", "Message types to test (comma-separated, repeatable)")
	fs.Var(&rates, "rates", "Publish rates in Hz (comma-separated, repeatable)")
	fs.Var(&publishers, "publishers", "Publisher counts (default 1)")
	fs.Var(&subscribers, "subscribers", "Subscriber counts (default 1)")
	fs.Var(&period, "period", "Time budget per experiment, seconds or duration")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "Run only the first N experiments (0 = all)")

	// QoS variations
	fs.BoolVar(&cfg.Reliability, "reliability", cfg.Reliability, "Also run every point with reliable QoS")
	fs.BoolVar(&cfg.Durability, "durability", cfg.Durability, "Also run every point with transient durability")
	fs.BoolVar(&cfg.Security, "security", cfg.Security, "Also run every point with security enabled")

	// Processes
	fs.StringVar(&cfg.Benchmark, "benchmark", cfg.Benchmark, "Benchmark command prefix")
	fs.StringVar(&cfg.BenchmarkProcess, "benchmark-process", cfg.BenchmarkProcess, "Process name swept with SIGKILL after each slot")
	fs.BoolVar(&cfg.SystemStats, "system-stats", cfg.SystemStats, "Run the system stats sampler alongside each experiment")
	fs.StringVar(&cfg.Sampler, "sampler", cfg.Sampler, "Sampler command (receives -l <csv>)")
	fs.StringVar(&cfg.SamplerProcess, "sampler-process", cfg.SamplerProcess, "Sampler process name swept with SIGKILL before each slot")

	// Output
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Output directory (default experiment_<UTC timestamp>)")

	// Safety & Diagnostics (double-dash convention)
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print every generated command and exit")
	fs.BoolVar(&cfg.Check, "check", cfg.Check, "Run only the first experiment for 10 seconds with verbose logging")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty disables)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Period = time.Duration(period)
	cfg.Topics = topics
	cfg.Rates = rates
	if len(publishers) > 0 {
		cfg.Publishers = publishers
	}
	if len(subscribers) > 0 {
		cfg.Subscribers = subscribers
	}

	sort.Ints(cfg.Rates)
	sort.Ints(cfg.Publishers)
	sort.Ints(cfg.Subscribers)

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir(time.Now())
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, names []string) {
	w := fs.Output()
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				printFlag(w, f)
				return
			}
		}
	})
}

func printFlag(w io.Writer, f *flag.Flag) {
	fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
	if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" && f.DefValue != "[]" {
		fmt.Fprintf(w, " (default %s)", f.DefValue)
	}
	fmt.Fprintln(w)
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	switch f.Value.(type) {
	case *intList:
		return "ints"
	case *stringList:
		return "list"
	case *periodValue:
		return "duration"
	}

	// Infer type from default value format
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if it looks like a duration
	if strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		return "duration"
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	return "string"
}
