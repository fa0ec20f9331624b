// Package httpclient turns the run configuration into a reusable
// request template and executes timed request cycles against it.
//
// A [Connection] is the load generator's executor: every Do call sends
// one request, drains the response body, and reports a
// [github.com/peltload/pelt/internal/metrics.Outcome] with per-phase
// timings captured via net/http/httptrace. Timeouts are enforced with a
// context deadline so they are classified separately from transport
// failures.
package httpclient
