package runner

import (
	"context"
	"time"

	"github.com/peltload/pelt/internal/metrics"
)

const defaultBuffer = 1024

// Executor performs one request cycle. Implementations must be safe for
// concurrent use and must return exactly one Outcome per call, success
// or failure.
type Executor interface {
	Do(ctx context.Context) metrics.Outcome
}

// Options configures a run. Exactly one of TotalRequests and Duration
// must be positive; when both are set the run ends at whichever limit
// is exhausted first.
type Options struct {
	Executor      Executor
	Workers       int
	TotalRequests int           // stop after this many completed requests
	Duration      time.Duration // stop admitting new requests at this deadline
	Rate          int           // dispatch slots per second, 0 means unpaced
	Buffer        int           // outcome channel capacity
}

func (o *Options) normalize() {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.TotalRequests < 0 {
		o.TotalRequests = 0
	}
	if o.Duration < 0 {
		o.Duration = 0
	}
	if o.Rate < 0 {
		o.Rate = 0
	}
	if o.Buffer <= 0 {
		o.Buffer = defaultBuffer
	}
}
