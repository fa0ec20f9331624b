// Package metrics defines the Outcome record produced for every request
// attempt and the two aggregation paths over outcomes.
//
// # Outcome
//
// Each dispatched request yields exactly one [Outcome]: its total
// duration, per-phase timings (DNS, connect, TLS, write, wait, read),
// and either a status code with response size or a classified failure.
//
// # Running aggregate
//
// The [Collector] folds outcomes into a live aggregate as they arrive.
// It uses an HDR histogram for cheap approximate percentiles and is what
// the dashboard and progress reporter read. It is safe for concurrent
// use.
//
// # Final summary
//
// [Summarize] computes the report printed at the end of a run from the
// complete outcome set, sorting the raw latencies so percentiles are
// exact rather than histogram approximations. It tolerates an empty
// outcome set.
package metrics
