package monitor

import (
	"sync"
	"testing"
	"time"
)

// manualTicker fires only when the test says so
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// tickers hands out manual tickers and remembers each one
type tickers struct {
	mu        sync.Mutex
	created   []*manualTicker
	intervals []time.Duration
}

func (f *tickers) New(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	f.created = append(f.created, t)
	f.intervals = append(f.intervals, d)
	return t
}

func (f *tickers) last(t *testing.T) *manualTicker {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		t.Fatal("no ticker created")
	}
	return f.created[len(f.created)-1]
}

func (f *tickers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fire delivers one tick, failing if nothing is listening
func (m *manualTicker) fire(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("tick was not received")
	}
}

// tryFire reports whether a tick was received within a short wait
func (m *manualTicker) tryFire() bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
