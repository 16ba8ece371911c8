package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Ticker is the subset of time.Ticker the clock depends on
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// SimulationClock drives a step function at a fixed interval while armed.
//
//	STOPPED --Arm--> ARMED     starts one ticker goroutine
//	ARMED   --Arm--> ARMED     previous goroutine is stopped and drained first
//	ARMED   --Disarm--> STOPPED
//	STOPPED --Disarm--> STOPPED no-op
//
// onTick runs on the ticker goroutine, so two ticks never overlap. A tick
// that is slower than the interval delays the next one instead of stacking.
// onTick must not call back into the clock.
type SimulationClock struct {
	mu        sync.Mutex
	newTicker TickerFunc
	cancel    context.CancelFunc
	done      chan struct{}
	interval  time.Duration
}

// NewSimulationClock creates a stopped clock; nil newTicker uses time.Ticker
func NewSimulationClock(newTicker TickerFunc) *SimulationClock {
	if newTicker == nil {
		newTicker = NewRealTicker
	}
	return &SimulationClock{newTicker: newTicker}
}

// Arm starts invoking onTick every interval until Disarm or ctx ends
func (c *SimulationClock) Arm(ctx context.Context, interval time.Duration, onTick func(context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s: %w", interval, ErrValidation)
	}
	if onTick == nil {
		return fmt.Errorf("tick function is required: %w", ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarmLocked()

	runCtx, cancel := context.WithCancel(ctx)
	ticker := c.newTicker(interval)
	done := make(chan struct{})

	c.cancel = cancel
	c.done = done
	c.interval = interval

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C():
				// Disarm may race the tick; drop it
				if runCtx.Err() != nil {
					return
				}
				onTick(runCtx)
			}
		}
	}()

	return nil
}

// Disarm stops the clock and waits for an in-flight tick to return
func (c *SimulationClock) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
}

func (c *SimulationClock) disarmLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
	c.done = nil
	c.interval = 0
}

// Armed reports whether a tick stream is active
func (c *SimulationClock) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return false
	}
	// The parent context may have ended the stream without a Disarm
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Interval returns the active tick interval, zero when stopped
func (c *SimulationClock) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}
