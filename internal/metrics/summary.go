package metrics

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// PercentilePoint is one point of the latency distribution.
type PercentilePoint struct {
	Quantile float64       `json:"quantile"`
	Value    time.Duration `json:"-"`
	ValueMs  float64       `json:"value_ms"`
}

// PhaseSummary aggregates one sub-phase across all successful requests.
type PhaseSummary struct {
	Average time.Duration `json:"-"`
	Fastest time.Duration `json:"-"`
	Slowest time.Duration `json:"-"`

	AverageMs float64 `json:"average_ms"`
	FastestMs float64 `json:"fastest_ms"`
	SlowestMs float64 `json:"slowest_ms"`
}

// Summary holds the final statistics over the complete outcome set. All
// latency figures are computed from sorted per-request durations rather
// than from the running aggregate, so reported percentiles are exact.
type Summary struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	Duration       time.Duration `json:"-"`
	DurationMs     float64       `json:"duration_ms"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	SuccessRate    float64       `json:"success_rate"`
	TotalBytes     int64         `json:"total_bytes"`
	BytesPerSec    float64       `json:"bytes_per_sec"`

	Fastest time.Duration `json:"-"`
	Slowest time.Duration `json:"-"`
	Mean    time.Duration `json:"-"`

	FastestMs float64 `json:"fastest_ms"`
	SlowestMs float64 `json:"slowest_ms"`
	MeanMs    float64 `json:"mean_ms"`

	Percentiles []PercentilePoint `json:"percentiles,omitempty"`

	DNS     PhaseSummary `json:"dns"`
	Connect PhaseSummary `json:"connect"`

	StatusCodes map[string]int64 `json:"status_codes,omitempty"`
	Errors      map[string]int64 `json:"errors,omitempty"`
}

// summaryQuantiles are the reported points of the latency distribution.
var summaryQuantiles = []float64{0.10, 0.25, 0.50, 0.75, 0.90, 0.95, 0.99}

// Summarize computes exact final statistics over the complete outcome
// set and total wall-clock duration. An empty set yields zero counts and
// no latency values; it never divides by zero.
func Summarize(outcomes []Outcome, elapsed time.Duration) Summary {
	s := Summary{
		Total:       int64(len(outcomes)),
		Duration:    elapsed,
		DurationMs:  float64(elapsed) / float64(time.Millisecond),
		StatusCodes: make(map[string]int64),
		Errors:      make(map[string]int64),
	}

	latencies := make([]time.Duration, 0, len(outcomes))
	var sum time.Duration
	for _, o := range outcomes {
		if o.Failed() {
			s.Failures++
			s.Errors[o.ErrorClass()]++
			continue
		}
		s.Successes++
		s.TotalBytes += o.Bytes
		s.StatusCodes[strconv.Itoa(o.Status)]++
		latencies = append(latencies, o.Duration)
		sum += o.Duration
	}

	if s.Total > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Total)
	}
	if elapsed > 0 {
		s.RequestsPerSec = float64(s.Total) / elapsed.Seconds()
		s.BytesPerSec = float64(s.TotalBytes) / elapsed.Seconds()
	}

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		s.Fastest = latencies[0]
		s.Slowest = latencies[len(latencies)-1]
		s.Mean = sum / time.Duration(len(latencies))
		s.Percentiles = make([]PercentilePoint, 0, len(summaryQuantiles))
		for _, q := range summaryQuantiles {
			v := percentile(latencies, q)
			s.Percentiles = append(s.Percentiles, PercentilePoint{
				Quantile: q,
				Value:    v,
				ValueMs:  float64(v) / float64(time.Millisecond),
			})
		}
	}
	s.FastestMs = float64(s.Fastest) / float64(time.Millisecond)
	s.SlowestMs = float64(s.Slowest) / float64(time.Millisecond)
	s.MeanMs = float64(s.Mean) / float64(time.Millisecond)

	s.DNS = summarizePhase(outcomes, func(p PhaseTimings) time.Duration { return p.DNS })
	s.Connect = summarizePhase(outcomes, func(p PhaseTimings) time.Duration { return p.Connect })

	return s
}

// percentile returns the q-th quantile of sorted latencies using the
// nearest-rank (ceiling) rule, so a known distribution maps to exact
// member values.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(q * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// summarizePhase aggregates a sub-phase over the successful outcomes
// that actually performed it (fresh connections report DNS and dial
// times; reused connections do not).
func summarizePhase(outcomes []Outcome, pick func(PhaseTimings) time.Duration) PhaseSummary {
	var ps PhaseSummary
	var sum time.Duration
	var n int64
	for _, o := range outcomes {
		if o.Failed() {
			continue
		}
		v := pick(o.Phases)
		if v <= 0 {
			continue
		}
		n++
		sum += v
		if ps.Fastest == 0 || v < ps.Fastest {
			ps.Fastest = v
		}
		if v > ps.Slowest {
			ps.Slowest = v
		}
	}
	if n > 0 {
		ps.Average = sum / time.Duration(n)
	}
	ps.AverageMs = float64(ps.Average) / float64(time.Millisecond)
	ps.FastestMs = float64(ps.Fastest) / float64(time.Millisecond)
	ps.SlowestMs = float64(ps.Slowest) / float64(time.Millisecond)
	return ps
}
