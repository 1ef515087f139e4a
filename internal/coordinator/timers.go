package coordinator

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// schedule runs fn once after d. The timer is created synchronously so it is
// registered with the clock before the caller returns; the wait happens on
// its own goroutine. fn is skipped entirely once the coordinator is closed.
func (c *Coordinator) schedule(d time.Duration, fn func()) {
	t := c.clock.NewTimer(d)
	go func() {
		select {
		case <-t.Chan():
			// Both channels may be ready; teardown wins.
			select {
			case <-c.done:
				return
			default:
			}
			fn()
			c.notify()
		case <-c.done:
			stopAndDrainTimer(t)
		}
	}()
}

// stopAndDrainTimer safely stops a timer and drains its channel so the
// waiting goroutine does not leak. Follows the pattern recommended in the
// time.Timer.Stop() documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
