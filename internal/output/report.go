// Package output renders the final summary and live progress lines.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/peltload/pelt/internal/metrics"
)

// PrintSummary writes the human-readable end-of-run report.
func PrintSummary(w io.Writer, s metrics.Summary) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Success rate:\t%.4f\n", s.SuccessRate)
	fmt.Fprintf(w, "  Total:\t%.4f secs\n", s.Duration.Seconds())
	fmt.Fprintf(w, "  Slowest:\t%.4f secs\n", s.Slowest.Seconds())
	fmt.Fprintf(w, "  Fastest:\t%.4f secs\n", s.Fastest.Seconds())
	fmt.Fprintf(w, "  Average:\t%.4f secs\n", s.Mean.Seconds())
	fmt.Fprintf(w, "  Requests/sec:\t%.4f\n", s.RequestsPerSec)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Total data:\t%s\n", FormatBytes(s.TotalBytes))
	if s.Successes > 0 {
		fmt.Fprintf(w, "  Size/request:\t%s\n", FormatBytes(s.TotalBytes/s.Successes))
	}

	if len(s.Percentiles) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Latency distribution:")
		for _, p := range s.Percentiles {
			fmt.Fprintf(w, "  %.0f%% in %.4f secs\n", p.Quantile*100, p.Value.Seconds())
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Details (average, fastest, slowest):")
	fmt.Fprintf(w, "  DNS+dialup:\t%.4f secs, %.4f secs, %.4f secs\n",
		(s.DNS.Average + s.Connect.Average).Seconds(),
		(s.DNS.Fastest + s.Connect.Fastest).Seconds(),
		(s.DNS.Slowest + s.Connect.Slowest).Seconds())
	fmt.Fprintf(w, "  DNS-lookup:\t%.4f secs, %.4f secs, %.4f secs\n",
		s.DNS.Average.Seconds(), s.DNS.Fastest.Seconds(), s.DNS.Slowest.Seconds())

	if len(s.StatusCodes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Status code distribution:")
		for _, row := range metrics.SortStatusCounts(s.StatusCodes) {
			fmt.Fprintf(w, "  [%s] %d responses\n", row.Code, row.Count)
		}
	}

	if len(s.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Error distribution:")
		for _, row := range metrics.SortErrorCounts(s.Errors) {
			fmt.Fprintf(w, "  [%d] %s\n", row.Count, row.Class)
		}
	}
}

// PrintJSONSummary writes the summary as indented JSON.
func PrintJSONSummary(w io.Writer, s metrics.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// FormatBytes renders a byte count in binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
