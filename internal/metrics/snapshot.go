package metrics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// SnapshotName is the file written next to the experiment logs at exit.
const SnapshotName = "sweep_metrics.prom"

// WriteSnapshot writes every perf_sweep_ metric family gathered from g
// in the Prometheus text format.
func WriteSnapshot(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range ownFamilies(families) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteSnapshotFile writes the snapshot to path.
func WriteSnapshotFile(path string, g prometheus.Gatherer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := WriteSnapshot(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ownFamilies drops families that do not belong to this program,
// such as the Go runtime collectors on the default registry.
func ownFamilies(families []*dto.MetricFamily) []*dto.MetricFamily {
	out := families[:0:0]
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), Prefix) {
			out = append(out, mf)
		}
	}
	return out
}
