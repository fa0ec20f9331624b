package runner

import (
	"sync/atomic"
	"time"
)

// pacer spaces dispatches out over time. Pace blocks until the caller's
// slot comes due and reports false if the run ended first.
type pacer interface {
	Pace(done <-chan struct{}) bool
}

type noopPacer struct{}

func (noopPacer) Pace(<-chan struct{}) bool { return true }

// slotPacer assigns each dispatch a distinct slot on a fixed schedule
// anchored at the run start. Slots are claimed with a single atomic add,
// so concurrent workers never share one.
type slotPacer struct {
	start    time.Time
	interval time.Duration
	next     atomic.Int64
}

func newSlotPacer(rate int) *slotPacer {
	return &slotPacer{
		start:    time.Now(),
		interval: time.Second / time.Duration(rate),
	}
}

func (p *slotPacer) Pace(done <-chan struct{}) bool {
	slot := p.next.Add(1) - 1
	due := p.start.Add(time.Duration(slot) * p.interval)

	wait := time.Until(due)
	if wait <= 0 {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-done:
		return false
	}
}

func newPacer(rate int) pacer {
	if rate <= 0 {
		return noopPacer{}
	}
	return newSlotPacer(rate)
}
