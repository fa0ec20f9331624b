// Package runner dispatches requests from a fixed worker pool until a
// stop condition is exhausted.
//
// A run is bounded by a request count, a wall-clock deadline, or both;
// with both, whichever limit is hit first ends the run. An optional
// rate spreads dispatches over distinct schedule slots anchored at the
// run start. Every admitted dispatch publishes exactly one Outcome, and
// the outcome channel is closed once the last worker exits.
package runner
