package main

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// failureLogger writes failed-request lines to stderr at a bounded
// rate, so a fully broken target does not flood the terminal. Dropped
// lines are counted and reported when logging resumes.
type failureLogger struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	w       io.Writer
	dropped atomic.Int64
}

func newFailureLogger(w io.Writer) *failureLogger {
	return &failureLogger{
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		w:       w,
	}
}

func (l *failureLogger) LogFailure(err error) {
	if err == nil {
		return
	}
	if !l.limiter.Allow() {
		l.dropped.Add(1)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if dropped := l.dropped.Swap(0); dropped > 0 {
		fmt.Fprintf(l.w, "[pelt] %d failures suppressed\n", dropped)
	}
	fmt.Fprintf(l.w, "[pelt] request failed: %v\n", err)
}
