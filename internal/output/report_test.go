package output_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/peltload/pelt/internal/metrics"
	"github.com/peltload/pelt/internal/output"
)

func sampleSummary() metrics.Summary {
	outcomes := []metrics.Outcome{
		{Duration: 10 * time.Millisecond, Status: 200, Bytes: 2048,
			Phases: metrics.PhaseTimings{DNS: time.Millisecond, Connect: 2 * time.Millisecond}},
		{Duration: 20 * time.Millisecond, Status: 200, Bytes: 2048},
		{Duration: 30 * time.Millisecond, Status: 404, Bytes: 512},
		{Duration: 5 * time.Millisecond, Err: errors.New("boom"), Phase: metrics.PhaseConnect},
	}
	return metrics.Summarize(outcomes, time.Second)
}

// TestPrintSummarySections checks the report carries every section.
func TestPrintSummarySections(t *testing.T) {
	var buf bytes.Buffer
	output.PrintSummary(&buf, sampleSummary())
	got := buf.String()

	for _, want := range []string{
		"Summary:",
		"Success rate:",
		"Requests/sec:",
		"Total data:",
		"Size/request:",
		"Latency distribution:",
		"50% in",
		"Details (average, fastest, slowest):",
		"DNS+dialup:",
		"DNS-lookup:",
		"Status code distribution:",
		"[200] 2 responses",
		"[404] 1 responses",
		"Error distribution:",
		"[1] connect: Error",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q\n%s", want, got)
		}
	}
}

// TestPrintSummaryEmptyRun ensures an interrupted empty run still
// renders without panicking.
func TestPrintSummaryEmptyRun(t *testing.T) {
	var buf bytes.Buffer
	output.PrintSummary(&buf, metrics.Summarize(nil, 0))
	got := buf.String()
	if !strings.Contains(got, "Summary:") {
		t.Fatalf("unexpected report:\n%s", got)
	}
	if strings.Contains(got, "Latency distribution:") {
		t.Error("empty run should not render a latency distribution")
	}
}

// TestPrintJSONSummary checks the machine-readable report shape.
func TestPrintJSONSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := output.PrintJSONSummary(&buf, sampleSummary()); err != nil {
		t.Fatalf("PrintJSONSummary: %v", err)
	}
	doc := buf.String()

	if got := gjson.Get(doc, "total").Int(); got != 4 {
		t.Errorf("total: got %d", got)
	}
	if got := gjson.Get(doc, "successes").Int(); got != 3 {
		t.Errorf("successes: got %d", got)
	}
	if got := gjson.Get(doc, "failures").Int(); got != 1 {
		t.Errorf("failures: got %d", got)
	}
	if got := gjson.Get(doc, "success_rate").Float(); got != 0.75 {
		t.Errorf("success_rate: got %g", got)
	}
	if got := gjson.Get(doc, "status_codes.200").Int(); got != 2 {
		t.Errorf("status_codes.200: got %d", got)
	}
	if got := gjson.Get(doc, "errors.connect: Error").Int(); got != 1 {
		t.Errorf("errors: got %s", gjson.Get(doc, "errors").Raw)
	}
	percentiles := gjson.Get(doc, "percentiles").Array()
	if len(percentiles) == 0 {
		t.Fatal("expected percentile points")
	}
	if q := percentiles[0].Get("quantile").Float(); q != 0.10 {
		t.Errorf("first quantile: got %g", q)
	}
}

// TestFormatBytes checks unit scaling.
func TestFormatBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KiB"},
		{3 * 1024 * 1024, "3.00 MiB"},
		{5 * 1024 * 1024 * 1024, "5.00 GiB"},
	}
	for _, tc := range cases {
		if got := output.FormatBytes(tc.n); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
