package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/peltload/pelt/internal/metrics"
)

// TestFailureLoggerThrottles verifies that a burst of failures produces a
// bounded number of lines and that the remainder is counted as suppressed.
func TestFailureLoggerThrottles(t *testing.T) {
	var buf bytes.Buffer
	logger := newFailureLogger(&buf)

	for i := 0; i < 100; i++ {
		logger.LogFailure(fmt.Errorf("boom %d", i))
	}

	lines := strings.Count(buf.String(), "\n")
	if lines == 0 {
		t.Fatal("expected at least one logged failure")
	}
	if lines > 15 {
		t.Fatalf("expected burst to be throttled, got %d lines", lines)
	}
	if logger.dropped.Load() == 0 {
		t.Fatal("expected suppressed failures to be counted")
	}
}

// TestFailureLoggerIgnoresNil verifies nil errors are not logged.
func TestFailureLoggerIgnoresNil(t *testing.T) {
	var buf bytes.Buffer
	logger := newFailureLogger(&buf)

	logger.LogFailure(nil)

	if buf.Len() != 0 {
		t.Fatalf("expected no output for nil error, got %q", buf.String())
	}
}

// TestFailureLoggerReportsSuppressed verifies the suppression notice is
// printed once logging resumes.
func TestFailureLoggerReportsSuppressed(t *testing.T) {
	var buf bytes.Buffer
	logger := newFailureLogger(&buf)
	logger.dropped.Store(7)

	logger.LogFailure(errors.New("boom"))

	if !strings.Contains(buf.String(), "7 failures suppressed") {
		t.Fatalf("expected suppression notice, got %q", buf.String())
	}
}

// TestLoggingExecutorPassesThrough verifies the wrapper forwards outcomes
// unchanged and only logs failures.
func TestLoggingExecutorPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	exec := &loggingExecutor{
		next:   fakeExecutor{outcome: metrics.Outcome{Status: 200}},
		logger: newFailureLogger(&buf),
	}

	outcome := exec.Do(context.Background())
	if outcome.Status != 200 {
		t.Fatalf("expected status 200, got %d", outcome.Status)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no log output for success, got %q", buf.String())
	}

	exec.next = fakeExecutor{outcome: metrics.Outcome{Err: errors.New("refused")}}
	exec.Do(context.Background())
	if !strings.Contains(buf.String(), "refused") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}
}

// TestRunJSONOutput runs a small load against a local server and checks the
// JSON report written to stdout.
func TestRunJSONOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	args := []string{"-n", "5", "-c", "2", "--no-tui", "--json", srv.URL}
	if err := run(args, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}

	report := buf.String()
	if got := gjson.Get(report, "total").Int(); got != 5 {
		t.Fatalf("expected total 5, got %d", got)
	}
	if got := gjson.Get(report, "successes").Int(); got != 5 {
		t.Fatalf("expected 5 successes, got %d", got)
	}
	if got := gjson.Get(report, "status_codes.200").Int(); got != 5 {
		t.Fatalf("expected 5 responses with status 200, got %d", got)
	}
}

// TestRunTextOutput checks the human-readable summary path.
func TestRunTextOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	args := []string{"-n", "3", "-c", "1", "--no-tui", srv.URL}
	if err := run(args, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Summary:") {
		t.Fatalf("expected summary section, got %q", out)
	}
	if !strings.Contains(out, "[200] 3 responses") {
		t.Fatalf("expected status distribution, got %q", out)
	}
}

// TestRunRejectsInvalidConfig verifies validation failures surface as errors.
func TestRunRejectsInvalidConfig(t *testing.T) {
	var buf bytes.Buffer
	err := run([]string{"-n", "0", "http://localhost:1"}, &buf)
	if err == nil {
		t.Fatal("expected validation error for zero requests")
	}
}

// TestRunHelpIsNotAnError verifies --help exits cleanly.
func TestRunHelpIsNotAnError(t *testing.T) {
	var buf bytes.Buffer
	if err := run([]string{"--help"}, &buf); err != nil {
		t.Fatalf("expected --help to succeed, got %v", err)
	}
}

type fakeExecutor struct {
	outcome metrics.Outcome
}

func (f fakeExecutor) Do(ctx context.Context) metrics.Outcome {
	return f.outcome
}
