package runner

import (
	"sync"
	"sync/atomic"
	"time"
)

// stopCondition decides when the run is over. TryClaim admits one more
// dispatch; Finish acknowledges that a claimed dispatch produced its
// outcome. Done is closed once no further dispatches will run to
// completion.
type stopCondition interface {
	TryClaim() bool
	Finish()
	Done() <-chan struct{}
	Cancel()
}

// countStop ends the run after exactly total requests have finished.
// Claims are handed out with a CAS loop so no more than total dispatches
// ever start.
type countStop struct {
	total    int64
	claimed  atomic.Int64
	finished atomic.Int64
	done     chan struct{}
	once     sync.Once
}

func newCountStop(total int) *countStop {
	return &countStop{
		total: int64(total),
		done:  make(chan struct{}),
	}
}

func (s *countStop) TryClaim() bool {
	for {
		claimed := s.claimed.Load()
		if claimed >= s.total {
			return false
		}
		if s.claimed.CompareAndSwap(claimed, claimed+1) {
			return true
		}
	}
}

func (s *countStop) Finish() {
	if s.finished.Add(1) >= s.total {
		s.Cancel()
	}
}

func (s *countStop) Done() <-chan struct{} {
	return s.done
}

func (s *countStop) Cancel() {
	s.once.Do(func() { close(s.done) })
}

// deadlineStop admits a dispatch only while the deadline has not
// passed. Requests already in flight at the deadline run to completion;
// Done merely stops admission.
type deadlineStop struct {
	deadline time.Time
	timer    *time.Timer
	done     chan struct{}
	once     sync.Once
}

func newDeadlineStop(d time.Duration) *deadlineStop {
	s := &deadlineStop{
		deadline: time.Now().Add(d),
		done:     make(chan struct{}),
	}
	s.timer = time.AfterFunc(d, s.Cancel)
	return s
}

func (s *deadlineStop) TryClaim() bool {
	return time.Now().Before(s.deadline)
}

func (s *deadlineStop) Finish() {}

func (s *deadlineStop) Done() <-chan struct{} {
	return s.done
}

func (s *deadlineStop) Cancel() {
	s.once.Do(func() {
		s.timer.Stop()
		close(s.done)
	})
}

// compositeStop combines conditions; the run ends when any one of them
// is exhausted, and a dispatch is admitted only if every one admits it.
type compositeStop struct {
	conds []stopCondition
	done  chan struct{}
	once  sync.Once
}

func newCompositeStop(conds ...stopCondition) *compositeStop {
	s := &compositeStop{
		conds: conds,
		done:  make(chan struct{}),
	}
	for _, cond := range conds {
		go func(ch <-chan struct{}) {
			select {
			case <-ch:
				s.once.Do(func() { close(s.done) })
			case <-s.done:
			}
		}(cond.Done())
	}
	return s
}

func (s *compositeStop) TryClaim() bool {
	for _, cond := range s.conds {
		if !cond.TryClaim() {
			return false
		}
	}
	return true
}

func (s *compositeStop) Finish() {
	for _, cond := range s.conds {
		cond.Finish()
	}
}

func (s *compositeStop) Done() <-chan struct{} {
	return s.done
}

func (s *compositeStop) Cancel() {
	for _, cond := range s.conds {
		cond.Cancel()
	}
	s.once.Do(func() { close(s.done) })
}

func newStopCondition(opts Options) stopCondition {
	switch {
	// Deadline goes first so a claim is never burned on an expired run.
	case opts.TotalRequests > 0 && opts.Duration > 0:
		return newCompositeStop(newDeadlineStop(opts.Duration), newCountStop(opts.TotalRequests))
	case opts.Duration > 0:
		return newDeadlineStop(opts.Duration)
	default:
		return newCountStop(opts.TotalRequests)
	}
}
