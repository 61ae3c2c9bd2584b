package process

import (
	"context"
	"testing"
)

func TestSampler_BuildCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		logFile  string
		wantArgs []string
	}{
		{
			name:     "default",
			command:  DefaultSamplerCommand,
			logFile:  "out/Struct256/system_info_topicStruct256_rate7_p1_s5.csv",
			wantArgs: []string{"python", "log_system_stats.py", "-l", "out/Struct256/system_info_topicStruct256_rate7_p1_s5.csv"},
		},
		{
			name:     "single word",
			command:  "sampler",
			logFile:  "a.csv",
			wantArgs: []string{"sampler", "-l", "a.csv"},
		},
		{
			name:     "extra whitespace",
			command:  "  python3   stats.py  --interval 1 ",
			logFile:  "b.csv",
			wantArgs: []string{"python3", "stats.py", "--interval", "1", "-l", "b.csv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(tt.command, tt.logFile)
			cmd, err := s.BuildCommand(context.Background())
			if err != nil {
				t.Fatalf("BuildCommand() error = %v", err)
			}
			if len(cmd.Args) != len(tt.wantArgs) {
				t.Fatalf("Args = %q, want %q", cmd.Args, tt.wantArgs)
			}
			for i := range tt.wantArgs {
				if cmd.Args[i] != tt.wantArgs[i] {
					t.Errorf("Args[%d] = %q, want %q", i, cmd.Args[i], tt.wantArgs[i])
				}
			}
			if s.Name() != "sampler" {
				t.Errorf("Name() = %q, want sampler", s.Name())
			}
			if s.LogFile() != tt.logFile {
				t.Errorf("LogFile() = %q, want %q", s.LogFile(), tt.logFile)
			}
		})
	}
}

func TestSampler_EmptyCommand(t *testing.T) {
	if _, err := NewSampler("   ", "x.csv").BuildCommand(context.Background()); err == nil {
		t.Error("BuildCommand() error = nil, want error for empty command")
	}
}

func TestSampler_CommandString(t *testing.T) {
	got := NewSampler(DefaultSamplerCommand, "x.csv").CommandString()
	want := "python log_system_stats.py -l x.csv"
	if got != want {
		t.Errorf("CommandString() = %q, want %q", got, want)
	}
}
