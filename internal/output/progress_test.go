package output_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/peltload/pelt/internal/metrics"
	"github.com/peltload/pelt/internal/output"
)

// syncBuffer guards a bytes.Buffer against the reporter goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestProgressReporterWritesUpdates ensures the live line carries the
// counters.
func TestProgressReporterWritesUpdates(t *testing.T) {
	collector := metrics.NewCollector()
	for i := 0; i < 10; i++ {
		collector.Record(metrics.Outcome{Duration: time.Millisecond, Status: 200})
	}

	var buf syncBuffer
	reporter := output.NewProgressReporter(collector, 100, 10*time.Millisecond, &buf)
	reporter.Start()
	time.Sleep(50 * time.Millisecond)
	reporter.Stop()

	got := buf.String()
	if !strings.Contains(got, "Requests: 10") {
		t.Errorf("progress line missing counters:\n%q", got)
	}
	if !strings.Contains(got, "10%") {
		t.Errorf("progress line missing completion share:\n%q", got)
	}
}

// TestProgressReporterStopIdempotent ensures repeated Stop calls and
// Stop-before-Start are safe.
func TestProgressReporterStopIdempotent(t *testing.T) {
	reporter := output.NewProgressReporter(metrics.NewCollector(), 0, time.Millisecond, nil)
	reporter.Stop() // never started
	reporter.Start()
	reporter.Start() // double start is a no-op
	reporter.Stop()
	reporter.Stop()
}
