package winstate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/1broseidon/winkeep/internal/platform"
)

type recordingMutator struct {
	calls []string
	fail  map[string]error
}

func (m *recordingMutator) record(call string) error {
	m.calls = append(m.calls, call)
	return m.fail[strings.Fields(call)[0]]
}

func (m *recordingMutator) MoveResize(id platform.WindowID, r platform.Rect) error {
	return m.record("move-resize " + rectString(r))
}

func (m *recordingMutator) Maximize(id platform.WindowID, flags platform.MaximizeFlags) error {
	return m.record("maximize " + flags.String())
}

func (m *recordingMutator) Unmaximize(id platform.WindowID, flags platform.MaximizeFlags) error {
	return m.record("unmaximize " + flags.String())
}

func (m *recordingMutator) Minimize(id platform.WindowID) error {
	return m.record("minimize")
}

func (m *recordingMutator) Unminimize(id platform.WindowID) error {
	return m.record("unminimize")
}

func rectString(r platform.Rect) string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

func TestCaptureCopiesAllFields(t *testing.T) {
	w := platform.Window{
		ID:         42,
		Title:      "editor",
		Frame:      platform.Rect{X: 10, Y: 20, Width: 300, Height: 200},
		Maximized:  platform.MaximizeVertical,
		Minimized:  true,
		Fullscreen: true,
	}

	got, err := Capture(w)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	want := Snapshot{X: 10, Y: 20, Width: 300, Height: 200, Maximized: platform.MaximizeVertical,
		Minimized: true, Fullscreen: true, ID: 42, Title: "editor"}
	if got != want {
		t.Fatalf("Capture() = %+v, want %+v", got, want)
	}
}

func TestCaptureRejectsEmptyFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame platform.Rect
	}{
		{"zero size", platform.Rect{X: 5, Y: 5}},
		{"zero width", platform.Rect{Width: 0, Height: 10}},
		{"negative height", platform.Rect{Width: 10, Height: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if snap, err := Capture(platform.Window{ID: 9, Frame: tt.frame}); err == nil {
				t.Fatalf("Capture() = %+v, want error", snap)
			}
		})
	}
}

func TestCaptureStoresValidUTF8Title(t *testing.T) {
	w := platform.Window{ID: 3, Title: "caf\xe9", Frame: platform.Rect{Width: 10, Height: 10}}

	snap, err := Capture(w)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if !utf8.ValidString(snap.Title) || snap.Title != "caf\uFFFD" {
		t.Fatalf("Title = %q, want %q", snap.Title, "caf\uFFFD")
	}

	s := NewStore()
	s.Inner(1).Replace([]Snapshot{snap})
	data, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !got.Equal(s) {
		t.Fatalf("title changed across a round trip: %q", got.Inner(1)[3].Title)
	}
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{X: 1, Y: 2, Width: 3, Height: 4, Maximized: platform.MaximizeBoth, ID: 9, Title: "term"}
	want := `x:1, y:2, w:3, h:4, maximized:both, minimized:false, fullscreen:false, id:9, title:"term"`
	if got := s.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if s.String() != s.String() {
		t.Fatal("String() is not deterministic")
	}
}

func TestSnapshotRestore(t *testing.T) {
	saved := Snapshot{X: 100, Y: 50, Width: 800, Height: 600, ID: 7}
	savedRect := platform.Rect{X: 100, Y: 50, Width: 800, Height: 600}

	tests := []struct {
		name      string
		saved     Snapshot
		live      platform.Window
		wantCalls []string
		wantEqual bool
	}{
		{
			name:  "maximized live window is unmaximized before resize",
			saved: saved,
			live: platform.Window{ID: 7, Frame: platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
				Maximized: platform.MaximizeBoth},
			wantCalls: []string{"unmaximize both", "move-resize 100,50,800,600"},
			wantEqual: false,
		},
		{
			name:      "matching window is untouched",
			saved:     saved,
			live:      platform.Window{ID: 7, Frame: savedRect},
			wantCalls: nil,
			wantEqual: true,
		},
		{
			name:      "moved window is moved back",
			saved:     saved,
			live:      platform.Window{ID: 7, Frame: platform.Rect{X: 5, Y: 50, Width: 800, Height: 600}},
			wantCalls: []string{"move-resize 100,50,800,600"},
		},
		{
			name:      "minimized state is restored after geometry",
			saved:     Snapshot{X: 100, Y: 50, Width: 800, Height: 600, Minimized: true},
			live:      platform.Window{ID: 7, Frame: platform.Rect{X: 1, Y: 1, Width: 10, Height: 10}},
			wantCalls: []string{"move-resize 100,50,800,600", "minimize"},
		},
		{
			name:      "minimized live window is unminimized",
			saved:     saved,
			live:      platform.Window{ID: 7, Frame: savedRect, Minimized: true},
			wantCalls: []string{"unminimize"},
			wantEqual: true,
		},
		{
			name:      "maximized state is reapplied last",
			saved:     Snapshot{X: 0, Y: 0, Width: 1920, Height: 1080, Maximized: platform.MaximizeBoth},
			live:      platform.Window{ID: 7, Frame: savedRect},
			wantCalls: []string{"move-resize 0,0,1920,1080", "maximize both"},
		},
		{
			name:      "maximized but same rect is unmaximized",
			saved:     saved,
			live:      platform.Window{ID: 7, Frame: savedRect, Maximized: platform.MaximizeBoth},
			wantCalls: []string{"unmaximize both"},
			wantEqual: true,
		},
		{
			name:      "extra axis is removed",
			saved:     Snapshot{X: 100, Y: 50, Width: 800, Height: 600, Maximized: platform.MaximizeHorizontal},
			live:      platform.Window{ID: 7, Frame: savedRect, Maximized: platform.MaximizeBoth},
			wantCalls: []string{"unmaximize vertical"},
			wantEqual: true,
		},
		{
			name:      "missing axis is added",
			saved:     Snapshot{X: 100, Y: 50, Width: 800, Height: 600, Maximized: platform.MaximizeBoth},
			live:      platform.Window{ID: 7, Frame: savedRect, Maximized: platform.MaximizeVertical},
			wantCalls: []string{"maximize both"},
			wantEqual: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &recordingMutator{}
			equal, err := tt.saved.Restore(m, tt.live)
			if err != nil {
				t.Fatalf("Restore() error: %v", err)
			}
			if equal != tt.wantEqual {
				t.Errorf("Restore() equalRect = %t, want %t", equal, tt.wantEqual)
			}
			if !reflect.DeepEqual(m.calls, tt.wantCalls) {
				t.Errorf("calls = %q, want %q", m.calls, tt.wantCalls)
			}
		})
	}
}

func TestSnapshotRestoreContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	m := &recordingMutator{fail: map[string]error{"move-resize": boom}}
	s := Snapshot{X: 100, Y: 50, Width: 800, Height: 600, Minimized: true}

	_, err := s.Restore(m, platform.Window{ID: 7, Frame: platform.Rect{Width: 1, Height: 1}})
	if !errors.Is(err, boom) {
		t.Fatalf("Restore() error = %v, want wrapped boom", err)
	}
	want := []string{"move-resize 100,50,800,600", "minimize"}
	if !reflect.DeepEqual(m.calls, want) {
		t.Fatalf("calls = %q, want %q", m.calls, want)
	}
}

func TestSnapshotDiff(t *testing.T) {
	s := Snapshot{X: 1, Y: 2, Width: 3, Height: 4, Maximized: platform.MaximizeBoth}
	live := platform.Window{Frame: platform.Rect{X: 1, Y: 2, Width: 3, Height: 4}, Maximized: platform.MaximizeBoth}
	if diffs := s.Diff(live); len(diffs) != 0 {
		t.Fatalf("Diff() = %q, want none", diffs)
	}
	live.Minimized = true
	live.Frame.X = 9
	if diffs := s.Diff(live); len(diffs) != 2 {
		t.Fatalf("Diff() = %q, want minimized and rect", diffs)
	}
}
