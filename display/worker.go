package display

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// SendStateWorker re-sends the current state to the OSC receiver every tick until ctx is cancelled
func SendStateWorker(ctx context.Context, publisher *OSCPublisher, source StateSource, tick time.Duration, clk clock.Clock, wg *sync.WaitGroup) error {
	defer wg.Done()

	t := clk.NewTimer(tick)
	defer t.Stop()
	publisher.logger.Debugf("OSC resend timer started at %v", clk.Now())

	for {
		select {
		case <-ctx.Done():
			publisher.logger.Debug("SendStateWorker shutdown")
			return ctx.Err()
		case <-t.C():
			publisher.Resend(source.Snapshot())
			t.Reset(tick)
		}
	}
}
