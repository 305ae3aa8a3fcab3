// Package winstate holds the saved window layouts: per-window snapshots, the
// two-level store keyed by display signature and window id, and its file codec.
package winstate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/1broseidon/winkeep/internal/platform"
)

// Snapshot is the captured geometry and state of one window.
// Fullscreen, ID and Title are kept for diagnostics only and are never restored.
type Snapshot struct {
	X          int
	Y          int
	Width      int
	Height     int
	Maximized  platform.MaximizeFlags
	Minimized  bool
	Fullscreen bool
	ID         platform.WindowID
	Title      string
}

// Capture records the current state of a live window. Windows without a
// positive size cannot be restored and are rejected with an error.
// Titles are stored as valid UTF-8; WM_NAME fallbacks may be Latin-1.
func Capture(w platform.Window) (Snapshot, error) {
	snap := Snapshot{
		X:          w.Frame.X,
		Y:          w.Frame.Y,
		Width:      w.Frame.Width,
		Height:     w.Frame.Height,
		Maximized:  w.Maximized,
		Minimized:  w.Minimized,
		Fullscreen: w.Fullscreen,
		ID:         w.ID,
		Title:      strings.ToValidUTF8(w.Title, "\uFFFD"),
	}
	if err := snap.validate(); err != nil {
		return Snapshot{}, fmt.Errorf("window %d: %w", w.ID, err)
	}
	return snap, nil
}

// Rect returns the saved frame rectangle.
func (s Snapshot) Rect() platform.Rect {
	return platform.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("x:%d, y:%d, w:%d, h:%d, maximized:%s, minimized:%t, fullscreen:%t, id:%d, title:%q",
		s.X, s.Y, s.Width, s.Height, s.Maximized, s.Minimized, s.Fullscreen, s.ID, s.Title)
}

func (s Snapshot) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("size %dx%d must be positive", s.Width, s.Height)
	}
	if !s.Maximized.Valid() {
		return fmt.Errorf("maximized flags %d out of range", s.Maximized)
	}
	return nil
}

// Restore applies the snapshot to a live window and reports whether the live
// frame already matched the saved one before anything was changed.
//
// Geometry is fixed first, unmaximizing beforehand because window managers
// ignore move/resize requests on maximized windows. Maximized and minimized
// state are reconciled afterwards. Every step is attempted; failures are joined.
func (s Snapshot) Restore(m platform.WindowMutator, live platform.Window) (bool, error) {
	var errs []error
	maximized := live.Maximized

	equalRect := s.Rect().Equal(live.Frame)
	if !equalRect {
		if maximized != platform.MaximizeNone {
			if err := m.Unmaximize(live.ID, platform.MaximizeBoth); err != nil {
				errs = append(errs, fmt.Errorf("unmaximize: %w", err))
			}
			maximized = platform.MaximizeNone
		}
		if err := m.MoveResize(live.ID, s.Rect()); err != nil {
			errs = append(errs, fmt.Errorf("move-resize: %w", err))
		}
	}

	if maximized != s.Maximized {
		if err := s.restoreMaximized(m, live.ID, maximized); err != nil {
			errs = append(errs, err)
		}
	}

	if live.Minimized != s.Minimized {
		var err error
		if s.Minimized {
			err = m.Minimize(live.ID)
		} else {
			err = m.Unminimize(live.ID)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("set minimized=%t: %w", s.Minimized, err))
		}
	}

	return equalRect, errors.Join(errs...)
}

func (s Snapshot) restoreMaximized(m platform.WindowMutator, id platform.WindowID, current platform.MaximizeFlags) error {
	if s.Maximized == platform.MaximizeNone {
		if err := m.Unmaximize(id, platform.MaximizeBoth); err != nil {
			return fmt.Errorf("unmaximize: %w", err)
		}
		return nil
	}

	// Drop axes the saved state does not have before adding the missing ones.
	if extra := current &^ s.Maximized; extra != platform.MaximizeNone {
		if err := m.Unmaximize(id, extra); err != nil {
			return fmt.Errorf("unmaximize %s: %w", extra, err)
		}
	}
	if missing := s.Maximized &^ current; missing != platform.MaximizeNone {
		if err := m.Maximize(id, s.Maximized); err != nil {
			return fmt.Errorf("maximize %s: %w", s.Maximized, err)
		}
	}
	return nil
}

// Diff lists the fields where a live window does not match the snapshot.
func (s Snapshot) Diff(live platform.Window) []string {
	var diffs []string
	if live.Minimized != s.Minimized {
		diffs = append(diffs, fmt.Sprintf("minimized:%t", live.Minimized))
	}
	if live.Maximized != s.Maximized {
		diffs = append(diffs, fmt.Sprintf("maximized:%s", live.Maximized))
	}
	if !s.Rect().Equal(live.Frame) {
		r := live.Frame
		diffs = append(diffs, fmt.Sprintf("rect:x:%d, y:%d, w:%d, h:%d", r.X, r.Y, r.Width, r.Height))
	}
	return diffs
}
