package rhythm

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// CancelFunc stops a periodic schedule. It is safe to call more than once and never blocks on the callback.
type CancelFunc func()

// Scheduler runs fn every interval until the returned CancelFunc is called.
type Scheduler interface {
	SchedulePeriodic(interval time.Duration, fn func()) CancelFunc
}

// ClockScheduler is a Scheduler backed by a clock ticker. Each schedule gets its own goroutine, so fn runs
// sequentially for a given schedule but may overlap with the caller of SchedulePeriodic.
type ClockScheduler struct {
	clock clock.WithTicker
}

// NewClockScheduler creates a scheduler on c. Pass clock.RealClock{} outside of tests.
func NewClockScheduler(c clock.WithTicker) *ClockScheduler {
	return &ClockScheduler{clock: c}
}

func (s *ClockScheduler) SchedulePeriodic(interval time.Duration, fn func()) CancelFunc {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
