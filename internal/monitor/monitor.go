// Package monitor consumes the outcome stream during a run, feeding the
// running aggregate and, in TUI mode, a live terminal dashboard.
package monitor

import (
	"os"

	"github.com/peltload/pelt/internal/metrics"
)

// Monitor drains the outcome stream until it closes or the user
// interrupts the run. Every drained outcome is retained so the final
// report can be computed exactly.
type Monitor interface {
	// Run returns the outcomes seen so far and whether the run was cut
	// short. On an interrupted return the terminal has already been
	// restored.
	Run(outcomes <-chan metrics.Outcome) (collected []metrics.Outcome, interrupted bool)
}

// Headless drains outcomes without drawing anything. It is used with
// --no-tui and whenever stdout is not a terminal.
type Headless struct {
	collector *metrics.Collector
	interrupt <-chan os.Signal
}

func NewHeadless(collector *metrics.Collector, interrupt <-chan os.Signal) *Headless {
	return &Headless{
		collector: collector,
		interrupt: interrupt,
	}
}

func (h *Headless) Run(outcomes <-chan metrics.Outcome) ([]metrics.Outcome, bool) {
	var collected []metrics.Outcome
	for {
		select {
		case o, ok := <-outcomes:
			if !ok {
				return collected, false
			}
			h.collector.Record(o)
			collected = append(collected, o)
		case <-h.interrupt:
			return collected, true
		}
	}
}
