package metrics

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// decodeFamilies parses text exposition format back into metric families.
func decodeFamilies(t *testing.T, r io.Reader) map[string]*dto.MetricFamily {
	t.Helper()
	decoder := expfmt.NewDecoder(r, expfmt.FmtText)
	out := make(map[string]*dto.MetricFamily)
	for {
		var mf dto.MetricFamily
		if err := decoder.Decode(&mf); err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("decode: %v", err)
		}
		out[mf.GetName()] = &mf
	}
	return out
}

func TestWriteSnapshot_FiltersForeignFamilies(t *testing.T) {
	c, reg := newTestCollector(testConfig())
	c.RecordKill(2, 1, 3)

	foreign := prometheus.NewCounter(prometheus.CounterOpts{Name: "go_other_total", Help: "not ours"})
	reg.MustRegister(foreign)
	foreign.Inc()

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, reg); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}

	families := decodeFamilies(t, &buf)
	if _, ok := families["go_other_total"]; ok {
		t.Error("snapshot contains a family without the perf_sweep_ prefix")
	}
	for name := range families {
		if !strings.HasPrefix(name, Prefix) {
			t.Errorf("unexpected family %s", name)
		}
	}

	mf, ok := families[Prefix+"name_sweep_kills_total"]
	if !ok {
		t.Fatal("snapshot missing name_sweep_kills_total")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("name_sweep_kills_total = %v, want 3", got)
	}
}

func TestWriteSnapshotFile(t *testing.T) {
	_, reg := newTestCollector(testConfig())
	path := filepath.Join(t.TempDir(), SnapshotName)

	if err := WriteSnapshotFile(path, reg); err != nil {
		t.Fatalf("WriteSnapshotFile() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer f.Close()

	families := decodeFamilies(t, f)
	if _, ok := families[Prefix+"experiments"]; !ok {
		t.Error("snapshot file missing experiments")
	}
}

func TestWriteSnapshotFile_BadPath(t *testing.T) {
	_, reg := newTestCollector(testConfig())
	if err := WriteSnapshotFile(filepath.Join(t.TempDir(), "missing", SnapshotName), reg); err == nil {
		t.Error("WriteSnapshotFile() error = nil, want error")
	}
}
