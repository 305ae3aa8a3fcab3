package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/winkeep/internal/engine"
)

type countingCapturer struct {
	mu      sync.Mutex
	reasons []string
	panics  bool
	called  chan struct{}
}

func (c *countingCapturer) Capture(reason string) engine.CaptureResult {
	c.mu.Lock()
	c.reasons = append(c.reasons, reason)
	c.mu.Unlock()
	if c.called != nil {
		select {
		case c.called <- struct{}{}:
		default:
		}
	}
	if c.panics {
		panic("boom")
	}
	return engine.CaptureResult{Reason: reason}
}

func (c *countingCapturer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reasons)
}

func TestAutosaverSaveNow(t *testing.T) {
	target := &countingCapturer{}
	NewAutosaver(AutosaverConfig{Interval: time.Hour}, target).SaveNow()

	if target.count() != 1 || target.reasons[0] != "Autosave" {
		t.Fatalf("captures = %q, want one Autosave", target.reasons)
	}
}

func TestAutosaverRecoversFromPanic(t *testing.T) {
	target := &countingCapturer{panics: true}
	a := NewAutosaver(AutosaverConfig{Interval: time.Hour}, target)

	a.SaveNow()
	a.SaveNow()
	if target.count() != 2 {
		t.Fatalf("captures = %d, want 2", target.count())
	}
}

func TestAutosaverRunStopsWithContext(t *testing.T) {
	target := &countingCapturer{called: make(chan struct{}, 1)}
	a := NewAutosaver(AutosaverConfig{Interval: 10 * time.Millisecond}, target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	select {
	case <-target.called:
	case <-time.After(5 * time.Second):
		t.Fatal("autosaver never captured")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestNewAutosaverDefaultsInterval(t *testing.T) {
	a := NewAutosaver(AutosaverConfig{}, &countingCapturer{})
	if a.interval != 5*time.Minute {
		t.Fatalf("interval = %s, want 5m", a.interval)
	}
}
