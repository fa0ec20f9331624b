package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector is the running aggregate over outcomes seen so far. It backs
// the live monitor and progress reporter; the final report is computed
// separately from the complete outcome set (see Summarize), so the
// histogram here only needs to be good enough for live display.
type Collector struct {
	mu          sync.Mutex
	hist        *hdrhistogram.Histogram
	successes   int64
	failures    int64
	bytes       int64
	minLatency  time.Duration
	maxLatency  time.Duration
	sumLatency  time.Duration
	statusCodes map[string]int64
	errors      map[string]int64
	start       time.Time
}

// Stats is a snapshot of the running aggregate.
type Stats struct {
	Total          int64
	Successes      int64
	Failures       int64
	Bytes          int64
	MinLatency     time.Duration
	MaxLatency     time.Duration
	MeanLatency    time.Duration
	P50Latency     time.Duration
	P90Latency     time.Duration
	P99Latency     time.Duration
	Duration       time.Duration
	RequestsPerSec float64
	StatusCodes    map[string]int64
	Errors         map[string]int64

	// Millisecond mirrors for display code.
	MinLatencyMs  float64
	MaxLatencyMs  float64
	MeanLatencyMs float64
	P50LatencyMs  float64
	P90LatencyMs  float64
	P99LatencyMs  float64
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:        h,
		statusCodes: make(map[string]int64),
		errors:      make(map[string]int64),
		start:       time.Now(),
	}
}

// Start marks the beginning of the run for RPS calculation. Call it just
// before the first dispatch if the collector was created earlier.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Record folds one outcome into the running aggregate.
func (c *Collector) Record(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o.Duration > 0 {
		us := o.Duration.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += o.Duration

	if c.minLatency == 0 || o.Duration < c.minLatency {
		c.minLatency = o.Duration
	}
	if o.Duration > c.maxLatency {
		c.maxLatency = o.Duration
	}

	if o.Failed() {
		c.failures++
		c.errors[o.ErrorClass()]++
		return
	}
	c.successes++
	c.bytes += o.Bytes
	c.statusCodes[strconv.Itoa(o.Status)]++
}

// Stats computes a snapshot over the given elapsed run time. A
// non-positive elapsed falls back to time since Start.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	stats := Stats{
		Total:      total,
		Successes:  c.successes,
		Failures:   c.failures,
		Bytes:      c.bytes,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}
	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	if elapsed <= 0 {
		elapsed = time.Since(c.start)
	}
	stats.Duration = elapsed
	if elapsed > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	stats.StatusCodes = make(map[string]int64, len(c.statusCodes))
	for code, n := range c.statusCodes {
		stats.StatusCodes[code] = n
	}
	stats.Errors = make(map[string]int64, len(c.errors))
	for class, n := range c.errors {
		stats.Errors[class] = n
	}

	stats.MinLatencyMs = float64(stats.MinLatency) / float64(time.Millisecond)
	stats.MaxLatencyMs = float64(stats.MaxLatency) / float64(time.Millisecond)
	stats.MeanLatencyMs = float64(stats.MeanLatency) / float64(time.Millisecond)
	stats.P50LatencyMs = float64(stats.P50Latency) / float64(time.Millisecond)
	stats.P90LatencyMs = float64(stats.P90Latency) / float64(time.Millisecond)
	stats.P99LatencyMs = float64(stats.P99Latency) / float64(time.Millisecond)

	return stats
}
