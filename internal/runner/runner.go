package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/peltload/pelt/internal/metrics"
)

// Runner drives a fixed pool of workers against an Executor until the
// stop condition is exhausted. Every admitted dispatch publishes exactly
// one Outcome on the Outcomes channel, which is closed once the last
// worker exits.
type Runner struct {
	opts     Options
	stop     stopCondition
	pace     pacer
	outcomes chan metrics.Outcome

	dispatched atomic.Int64
	finished   atomic.Int64

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// Result reports what a completed run did.
type Result struct {
	Dispatched int64
	Duration   time.Duration
}

func New(opts Options) (*Runner, error) {
	if opts.Executor == nil {
		return nil, errors.New("runner: executor is required")
	}
	opts.normalize()
	if opts.TotalRequests == 0 && opts.Duration == 0 {
		return nil, errors.New("runner: either a request count or a duration must be set")
	}

	return &Runner{
		opts:     opts,
		outcomes: make(chan metrics.Outcome, opts.Buffer),
	}, nil
}

// Outcomes returns the channel results are published on. The caller
// must drain it while Run is in progress.
func (r *Runner) Outcomes() <-chan metrics.Outcome {
	return r.outcomes
}

// Completed returns how many dispatches have finished so far.
func (r *Runner) Completed() int64 {
	return r.finished.Load()
}

// Total returns the configured request count, or 0 for duration-bound
// runs.
func (r *Runner) Total() int64 {
	return int64(r.opts.TotalRequests)
}

// Cancel aborts the run: admission stops and in-flight requests are
// interrupted through their context.
func (r *Runner) Cancel() {
	r.cancelMu.Lock()
	stop, cancel := r.stop, r.cancel
	r.cancelMu.Unlock()
	if stop != nil {
		stop.Cancel()
	}
	if cancel != nil {
		cancel()
	}
}

// Run blocks until the stop condition is exhausted and every worker has
// exited, then closes the outcome channel. The pacing schedule and the
// deadline are both anchored here, not at New.
func (r *Runner) Run(ctx context.Context) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.cancelMu.Lock()
	r.cancel = cancel
	r.stop = newStopCondition(r.opts)
	r.cancelMu.Unlock()
	r.pace = newPacer(r.opts.Rate)

	// Unblock workers waiting on a pacing slot if the caller's context
	// goes away.
	unhook := context.AfterFunc(ctx, r.stop.Cancel)
	defer unhook()

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(r.opts.Workers)
	for i := 0; i < r.opts.Workers; i++ {
		go func() {
			defer wg.Done()
			r.work(ctx)
		}()
	}
	wg.Wait()

	r.stop.Cancel()
	close(r.outcomes)

	return Result{
		Dispatched: r.dispatched.Load(),
		Duration:   time.Since(start),
	}
}

func (r *Runner) work(ctx context.Context) {
	done := r.stop.Done()
	for {
		if !r.pace.Pace(done) {
			return
		}
		if !r.stop.TryClaim() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		r.dispatched.Add(1)
		outcome := r.opts.Executor.Do(ctx)
		r.finished.Add(1)
		r.stop.Finish()
		r.outcomes <- outcome
	}
}
