package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestClockRejectsBadArguments(t *testing.T) {
	c := NewSimulationClock(nil)

	if err := c.Arm(context.Background(), 0, func(context.Context) {}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero interval: err = %v, want ErrValidation", err)
	}
	if err := c.Arm(context.Background(), time.Second, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("nil onTick: err = %v, want ErrValidation", err)
	}
	if c.Armed() {
		t.Error("clock armed after rejected Arm")
	}
}

func TestClockTicksUntilDisarmed(t *testing.T) {
	f := &tickers{}
	c := NewSimulationClock(f.New)

	calls := make(chan struct{}, 10)
	if err := c.Arm(context.Background(), 8*time.Second, func(context.Context) { calls <- struct{}{} }); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if !c.Armed() || c.Interval() != 8*time.Second {
		t.Fatalf("Armed() = %v, Interval() = %s", c.Armed(), c.Interval())
	}

	tk := f.last(t)
	tk.fire(t)
	tk.fire(t)
	<-calls
	<-calls

	c.Disarm()
	if c.Armed() {
		t.Error("still armed after Disarm")
	}
	if !tk.isStopped() {
		t.Error("ticker not stopped")
	}
	if tk.tryFire() {
		t.Error("tick delivered after Disarm")
	}
	if c.Interval() != 0 {
		t.Errorf("Interval() = %s after Disarm", c.Interval())
	}
}

func TestClockDisarmIsIdempotent(t *testing.T) {
	c := NewSimulationClock(nil)
	c.Disarm()
	c.Disarm()

	if err := c.Arm(context.Background(), time.Hour, func(context.Context) {}); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	c.Disarm()
	c.Disarm()
	if c.Armed() {
		t.Error("armed after double Disarm")
	}
}

func TestClockRearmLeavesOneStream(t *testing.T) {
	f := &tickers{}
	c := NewSimulationClock(f.New)

	var first, second atomic.Int32
	if err := c.Arm(context.Background(), time.Second, func(context.Context) { first.Add(1) }); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	old := f.last(t)

	if err := c.Arm(context.Background(), 2*time.Second, func(context.Context) { second.Add(1) }); err != nil {
		t.Fatalf("re-Arm: %v", err)
	}
	cur := f.last(t)

	if f.count() != 2 || old == cur {
		t.Fatalf("expected a fresh ticker, have %d", f.count())
	}
	if !old.isStopped() {
		t.Error("previous ticker still running")
	}
	if old.tryFire() {
		t.Error("previous stream still receiving ticks")
	}

	for i := 0; i < 3; i++ {
		cur.fire(t)
	}
	c.Disarm()

	if first.Load() != 0 || second.Load() != 3 {
		t.Errorf("first = %d, second = %d; want 0 and 3", first.Load(), second.Load())
	}
}

func TestClockTicksDoNotOverlap(t *testing.T) {
	f := &tickers{}
	c := NewSimulationClock(f.New)

	var running, maxRunning atomic.Int32
	release := make(chan struct{})
	err := c.Arm(context.Background(), time.Second, func(context.Context) {
		n := running.Add(1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		<-release
		running.Add(-1)
	})
	if err != nil {
		t.Fatalf("Arm: %v", err)
	}

	tk := f.last(t)
	tk.fire(t)
	// The goroutine is busy in the first tick, so the second send cannot land
	if tk.tryFire() {
		t.Error("second tick delivered while the first was running")
	}
	close(release)
	c.Disarm()

	if maxRunning.Load() != 1 {
		t.Errorf("max concurrent ticks = %d", maxRunning.Load())
	}
}

func TestClockStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewSimulationClock(nil)
	if err := c.Arm(ctx, time.Hour, func(context.Context) {}); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	cancel()
	waitFor(t, "clock to stop", func() bool { return !c.Armed() })
	c.Disarm()
}

func TestClockRealTimeRearm(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	c := NewSimulationClock(nil)
	var count atomic.Int32
	onTick := func(context.Context) { count.Add(1) }

	if err := c.Arm(context.Background(), 20*time.Millisecond, onTick); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if err := c.Arm(context.Background(), 20*time.Millisecond, onTick); err != nil {
		t.Fatalf("re-Arm: %v", err)
	}

	time.Sleep(210 * time.Millisecond)
	c.Disarm()

	// One stream gives about ten ticks; two would give about twenty
	if n := count.Load(); n < 3 || n > 12 {
		t.Errorf("ticks over 210ms at 20ms = %d", n)
	}
}
