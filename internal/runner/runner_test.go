package runner_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/peltload/pelt/internal/metrics"
	"github.com/peltload/pelt/internal/runner"
)

// fakeExecutor simulates a request with fixed latency.
type fakeExecutor struct {
	latency time.Duration
	calls   atomic.Int64
	fail    bool
}

func (f *fakeExecutor) Do(ctx context.Context) metrics.Outcome {
	f.calls.Add(1)
	start := time.Now()
	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return metrics.Outcome{Start: start, Duration: time.Since(start), Err: ctx.Err()}
		}
	}
	o := metrics.Outcome{Start: start, Duration: time.Since(start), Status: 200}
	if f.fail {
		o.Status = 0
		o.Err = errors.New("boom")
	}
	return o
}

func drain(t *testing.T, r *runner.Runner) []metrics.Outcome {
	t.Helper()
	var out []metrics.Outcome
	for o := range r.Outcomes() {
		out = append(out, o)
	}
	return out
}

// TestRunExactRequestCount ensures a count-bound run dispatches exactly
// N requests and publishes exactly N outcomes.
func TestRunExactRequestCount(t *testing.T) {
	exec := &fakeExecutor{latency: time.Millisecond}
	r, err := runner.New(runner.Options{
		Executor:      exec,
		Workers:       8,
		TotalRequests: 25,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan runner.Result, 1)
	go func() { done <- r.Run(context.Background()) }()

	outcomes := drain(t, r)
	res := <-done

	if len(outcomes) != 25 {
		t.Fatalf("expected 25 outcomes, got %d", len(outcomes))
	}
	if res.Dispatched != 25 {
		t.Fatalf("expected 25 dispatched, got %d", res.Dispatched)
	}
	if got := exec.calls.Load(); got != 25 {
		t.Fatalf("expected executor called 25 times, got %d", got)
	}
}

// TestRunMoreWorkersThanRequests ensures excess workers never over-dispatch.
func TestRunMoreWorkersThanRequests(t *testing.T) {
	exec := &fakeExecutor{}
	r, err := runner.New(runner.Options{
		Executor:      exec,
		Workers:       50,
		TotalRequests: 5,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	go r.Run(context.Background())
	outcomes := drain(t, r)

	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}
}

// TestRunDurationBound ensures a duration-bound run stops admitting at
// the deadline while letting in-flight requests finish.
func TestRunDurationBound(t *testing.T) {
	exec := &fakeExecutor{latency: 5 * time.Millisecond}
	r, err := runner.New(runner.Options{
		Executor: exec,
		Workers:  10,
		Duration: 60 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan runner.Result, 1)
	start := time.Now()
	go func() { done <- r.Run(context.Background()) }()

	outcomes := drain(t, r)
	res := <-done
	elapsed := time.Since(start)

	if len(outcomes) == 0 {
		t.Fatal("expected some outcomes")
	}
	if int64(len(outcomes)) != res.Dispatched {
		t.Fatalf("outcomes %d != dispatched %d", len(outcomes), res.Dispatched)
	}
	if elapsed < 60*time.Millisecond || elapsed > 500*time.Millisecond {
		t.Fatalf("duration enforcement off: %s", elapsed)
	}
}

// TestRunCountAndDurationWhicheverFirst ensures the earlier limit wins.
func TestRunCountAndDurationWhicheverFirst(t *testing.T) {
	// Count exhausts long before the one-minute deadline.
	exec := &fakeExecutor{}
	r, err := runner.New(runner.Options{
		Executor:      exec,
		Workers:       4,
		TotalRequests: 10,
		Duration:      time.Minute,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan runner.Result, 1)
	go func() { done <- r.Run(context.Background()) }()

	outcomes := drain(t, r)
	res := <-done

	if len(outcomes) != 10 {
		t.Fatalf("expected 10 outcomes, got %d", len(outcomes))
	}
	if res.Duration > 10*time.Second {
		t.Fatalf("run should have ended at count exhaustion, took %s", res.Duration)
	}
}

// TestRunFailuresStillProduceOutcomes ensures failed requests count
// toward the total and carry their error.
func TestRunFailuresStillProduceOutcomes(t *testing.T) {
	exec := &fakeExecutor{fail: true}
	r, err := runner.New(runner.Options{
		Executor:      exec,
		Workers:       3,
		TotalRequests: 12,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	go r.Run(context.Background())
	outcomes := drain(t, r)

	if len(outcomes) != 12 {
		t.Fatalf("expected 12 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if !o.Failed() {
			t.Fatal("expected every outcome to be a failure")
		}
	}
}

// TestCancelStopsRun ensures Cancel ends the run early.
func TestCancelStopsRun(t *testing.T) {
	exec := &fakeExecutor{latency: 2 * time.Millisecond}
	r, err := runner.New(runner.Options{
		Executor: exec,
		Workers:  4,
		Duration: time.Minute,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan runner.Result, 1)
	go func() { done <- r.Run(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	r.Cancel()

	drain(t, r)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after Cancel")
	}
}

// TestContextCancelStopsRun ensures a canceled parent context unblocks
// paced workers.
func TestContextCancelStopsRun(t *testing.T) {
	exec := &fakeExecutor{}
	r, err := runner.New(runner.Options{
		Executor:      exec,
		Workers:       2,
		TotalRequests: 1000,
		Rate:          1, // one slot per second keeps workers parked
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan runner.Result, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	drain(t, r)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after context cancel")
	}
}

// TestCompletedTracksProgress ensures the live progress counter moves.
func TestCompletedTracksProgress(t *testing.T) {
	exec := &fakeExecutor{}
	r, err := runner.New(runner.Options{
		Executor:      exec,
		Workers:       2,
		TotalRequests: 40,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Total() != 40 {
		t.Fatalf("expected total 40, got %d", r.Total())
	}

	go r.Run(context.Background())
	drain(t, r)

	if got := r.Completed(); got != 40 {
		t.Fatalf("expected 40 completed, got %d", got)
	}
}

// TestNewRejectsBadOptions ensures option validation.
func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := runner.New(runner.Options{Workers: 1, TotalRequests: 10}); err == nil {
		t.Fatal("expected error for missing executor")
	}
	if _, err := runner.New(runner.Options{Executor: &fakeExecutor{}}); err == nil {
		t.Fatal("expected error when neither count nor duration is set")
	}
}
