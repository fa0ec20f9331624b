package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/peltload/pelt/internal/metrics"
)

// ProgressReporter writes a single updating progress line, used when the
// full-screen monitor is disabled but stderr is still a terminal.
type ProgressReporter struct {
	collector *metrics.Collector
	total     int64
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
}

// NewProgressReporter creates a reporter that redraws at the given
// interval. total is 0 for duration-bound runs.
func NewProgressReporter(collector *metrics.Collector, total int64, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		total:     total,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
	}
}

// Start begins redrawing in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts updates and clears the progress line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			stats := p.collector.Stats(time.Since(p.start))
			line := fmt.Sprintf("\rRequests: %d | Successes: %d | Failures: %d | RPS: %.1f | P99: %.1fms",
				stats.Total, stats.Successes, stats.Failures, stats.RequestsPerSec, stats.P99LatencyMs)
			if p.total > 0 && stats.Total > 0 {
				share := float64(stats.Total) / float64(p.total)
				line += fmt.Sprintf(" | %.0f%%", share*100)
				if eta := estimateRemaining(time.Since(p.start), stats.Total, p.total); eta > 0 {
					line += fmt.Sprintf(" | ETA: %s", eta.Round(time.Second))
				}
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			fmt.Fprint(p.writer, "\r")
			return
		}
	}
}

// estimateRemaining projects time to completion from the observed rate.
func estimateRemaining(elapsed time.Duration, completed, total int64) time.Duration {
	if completed <= 0 || total <= completed || elapsed <= 0 {
		return 0
	}
	perRequest := float64(elapsed) / float64(completed)
	return time.Duration(perRequest * float64(total-completed))
}
