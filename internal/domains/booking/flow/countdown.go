package flow

import (
	"sync"
	"sync/atomic"
	"time"

	"agrirent/shared/clock"
)

// Countdown tracks a payment-hold deadline. Remaining time is always
// recomputed from the deadline and the injected clock, never decremented,
// so suspended timers and clock jumps cannot stretch a hold's lifetime.
type Countdown struct {
	clock     clock.Clock
	expiresAt time.Time
	interval  time.Duration

	onTick   func(remaining time.Duration)
	onExpire func()

	fired      atomic.Bool
	expireOnce sync.Once
	stopOnce   sync.Once
	stop       chan struct{}
}

func NewCountdown(clk clock.Clock, expiresAt time.Time, interval time.Duration, onTick func(time.Duration), onExpire func()) *Countdown {
	return &Countdown{
		clock:     clk,
		expiresAt: expiresAt,
		interval:  interval,
		onTick:    onTick,
		onExpire:  onExpire,
		stop:      make(chan struct{}),
	}
}

// Remaining returns the time left on the hold, floored at zero.
func (c *Countdown) Remaining() time.Duration {
	remaining := c.expiresAt.Sub(c.clock.Now())
	if remaining < 0 {
		return 0
	}

	return remaining
}

func (c *Countdown) ExpiresAt() time.Time {
	return c.expiresAt
}

// Expired reports whether the expiry callback has fired.
func (c *Countdown) Expired() bool {
	return c.fired.Load()
}

// Tick evaluates the deadline once. Past the deadline it fires onExpire
// exactly once, no matter how many ticks were missed or how far the clock
// jumped; otherwise it reports the remaining time through onTick.
func (c *Countdown) Tick() {
	remaining := c.Remaining()

	if remaining <= 0 {
		c.expireOnce.Do(func() {
			c.fired.Store(true)

			if c.onExpire != nil {
				c.onExpire()
			}
		})

		return
	}

	if c.onTick != nil {
		c.onTick(remaining)
	}
}

// Start runs the countdown loop in a goroutine until expiry or Stop.
func (c *Countdown) Start() {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.Tick()

				if c.Expired() {
					return
				}
			}
		}
	}()
}

// Stop halts the loop without firing expiry. Idempotent.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
