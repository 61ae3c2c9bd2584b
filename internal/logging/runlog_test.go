package logging

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var runLogLine = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2},(.*)$`)

func TestRunLog_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), RunLogName)

	rl, err := OpenRunLog(path)
	if err != nil {
		t.Fatalf("OpenRunLog() error = %v", err)
	}

	commands := []string{
		"perf_test --topic Struct256 --rate 7 -p1 -s5 -l out/Struct256/topicStruct256_rate7_p1_s5.log",
		"perf_test --topic Struct256 --rate 7 -p1 -s5 --reliable -l out/Struct256_reliable/topicStruct256_rate7_p1_s5_reliable.log",
	}
	for _, c := range commands {
		rl.Record(c)
	}

	// Synced on every write, so visible before Close
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != len(commands) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(commands), data)
	}
	for i, line := range lines {
		m := runLogLine.FindStringSubmatch(line)
		if m == nil {
			t.Errorf("line %d %q does not match timestamp,command", i, line)
			continue
		}
		if m[1] != commands[i] {
			t.Errorf("line %d command = %q, want %q", i, m[1], commands[i])
		}
	}
}

func TestRunLog_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), RunLogName)

	for i := 0; i < 2; i++ {
		rl, err := OpenRunLog(path)
		if err != nil {
			t.Fatalf("OpenRunLog() error = %v", err)
		}
		rl.Record("cmd")
		rl.Close()
	}

	data, _ := os.ReadFile(path)
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("got %d lines after reopening, want 2", n)
	}
}

func TestRunLog_IgnoresAttrs(t *testing.T) {
	path := filepath.Join(t.TempDir(), RunLogName)
	rl, err := OpenRunLog(path)
	if err != nil {
		t.Fatalf("OpenRunLog() error = %v", err)
	}
	defer rl.Close()

	rl.logger.With("k", "v").WithGroup("g").Info("cmd", "x", 1)

	data, _ := os.ReadFile(path)
	if m := runLogLine.FindStringSubmatch(strings.TrimSpace(string(data))); m == nil || m[1] != "cmd" {
		t.Errorf("run log line = %q, want timestamp,cmd", data)
	}
	if rl.Path() != path {
		t.Errorf("Path() = %q, want %q", rl.Path(), path)
	}
}

func TestOpenRunLog_MissingDir(t *testing.T) {
	if _, err := OpenRunLog(filepath.Join(t.TempDir(), "missing", RunLogName)); err == nil {
		t.Error("OpenRunLog() error = nil, want error for missing directory")
	}
}
