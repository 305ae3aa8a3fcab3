package hotkeys

import (
	"sort"
	"testing"

	"github.com/1broseidon/winkeep/internal/engine"
)

type recordingActions struct {
	reasons []string
}

func (a *recordingActions) Capture(reason string) engine.CaptureResult {
	a.reasons = append(a.reasons, reason)
	return engine.CaptureResult{Reason: reason}
}

func (a *recordingActions) Restore(reason string) engine.RestoreResult {
	a.reasons = append(a.reasons, reason)
	return engine.RestoreResult{Reason: reason}
}

func TestBindingsSkipEmptySequences(t *testing.T) {
	actions := &recordingActions{}
	h := &Handler{actions: actions}

	if got := h.bindings("", ""); len(got) != 0 {
		t.Fatalf("bindings() = %d entries, want 0", len(got))
	}

	got := h.bindings("", "Mod4-r")
	if len(got) != 1 || got[0].name != "restore" || got[0].keys != "Mod4-r" {
		t.Fatalf("bindings() = %+v, want only restore", got)
	}
	got[0].run()
	if len(actions.reasons) != 1 || actions.reasons[0] != "Hotkey: Restore" {
		t.Fatalf("restore binding called with %q", actions.reasons)
	}
}

func TestBindingsRunTheirAction(t *testing.T) {
	actions := &recordingActions{}
	h := &Handler{actions: actions}

	for _, b := range h.bindings("Mod4-s", "Mod4-r") {
		b.run()
	}
	want := []string{"Hotkey: Capture", "Hotkey: Restore"}
	if len(actions.reasons) != 2 || actions.reasons[0] != want[0] || actions.reasons[1] != want[1] {
		t.Fatalf("actions called with %q, want %q", actions.reasons, want)
	}
}

func TestBindWithoutX11Fails(t *testing.T) {
	h := &Handler{actions: &recordingActions{}}
	if err := h.Bind("Mod4-s", "Mod4-r"); err == nil {
		t.Fatal("Bind() without an X11 connection succeeded")
	}
}

func TestIgnoreMasks(t *testing.T) {
	got := ignoreMasks([]uint16{2, 16})
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	want := []uint16{0, 2, 16, 18}
	if len(got) != len(want) {
		t.Fatalf("ignoreMasks() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ignoreMasks() = %v, want %v", got, want)
		}
	}
}
