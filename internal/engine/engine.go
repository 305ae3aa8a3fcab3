// Package engine captures the layout of all top-level windows into a store
// keyed by display signature and restores it on demand.
package engine

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/statefile"
	"github.com/1broseidon/winkeep/internal/winstate"
)

// Host enumerates live windows and applies the mutations decided on restore.
type Host interface {
	platform.WindowMutator
	DisplaySize() (width, height int, err error)
	ListWindows() ([]platform.Window, error)
	Window(windowID platform.WindowID) (platform.Window, error)
}

// StateFile is the durable copy of the store.
type StateFile interface {
	WriteAtomic(data []byte) error
	ReadAll() ([]byte, error)
	Path() string
}

// Options configures a new Engine.
type Options struct {
	Host    Host
	File    StateFile
	Process *Process
	Logger  *slog.Logger
	// VerifyRestore re-reads every restored window and logs remaining differences.
	VerifyRestore bool
}

// CaptureResult summarizes one capture.
type CaptureResult struct {
	Reason    string             `json:"reason"`
	Signature winstate.Signature `json:"signature"`
	Windows   int                `json:"windows"`
	Skipped   int                `json:"skipped"`
	Saved     bool               `json:"saved"`
}

// RestoreResult summarizes one restore.
type RestoreResult struct {
	Reason    string             `json:"reason"`
	Signature winstate.Signature `json:"signature"`
	Restored  int                `json:"restored"`
	Moved     int                `json:"moved"`
	NotFound  int                `json:"not_found"`
	Failed    int                `json:"failed"`
	Saved     bool               `json:"saved"`
}

// Stats are cumulative counters for one Engine.
type Stats struct {
	Captures        int `json:"captures"`
	Restores        int `json:"restores"`
	WindowsCaptured int `json:"windows_captured"`
	WindowsSkipped  int `json:"windows_skipped"`
	WindowsRestored int `json:"windows_restored"`
	WindowsMoved    int `json:"windows_moved"`
	WindowsNotFound int `json:"windows_not_found"`
	RestoreErrors   int `json:"restore_errors"`
	LoadFailures    int `json:"load_failures"`
	Saves           int `json:"saves"`
	SaveFailures    int `json:"save_failures"`
	Displays        int `json:"displays"`
	SavedWindows    int `json:"saved_windows"`
}

// Engine runs capture and restore against a lazily loaded store. Operations
// are serialized; none of them report errors to the caller.
type Engine struct {
	mu      sync.Mutex
	host    Host
	file    StateFile
	process *Process
	logger  *slog.Logger
	verify  bool

	store  *winstate.Store
	closed bool
	stats  Stats
}

// New creates an Engine. The store is not touched until the first operation.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	process := opts.Process
	if process == nil {
		process = DefaultProcess()
	}
	return &Engine{
		host:    opts.Host,
		file:    opts.File,
		process: process,
		logger:  logger,
		verify:  opts.VerifyRestore,
	}
}

// CaptureAll replaces the saved windows for the current display with the live ones.
func (e *Engine) CaptureAll(reason string) CaptureResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := CaptureResult{Reason: reason}
	if e.closed {
		e.logger.Warn("capture after teardown ignored", "reason", reason)
		return res
	}

	sig, inner, ok := e.currentInner(reason)
	if !ok {
		return res
	}
	res.Signature = sig

	windows, err := e.listWindows()
	if err != nil {
		e.logger.Warn("failed to list windows, keeping previous capture", "reason", reason, "error", err)
		return res
	}

	snapshots := make([]winstate.Snapshot, 0, len(windows))
	for _, w := range windows {
		snap, err := winstate.Capture(w)
		if err != nil {
			res.Skipped++
			e.logger.Warn("skipping window without a usable frame", "reason", reason, "window_id", w.ID, "title", w.Title, "error", err)
			continue
		}
		snapshots = append(snapshots, snap)
		e.logger.Debug("captured window", "reason", reason, "snapshot", snap.String())
	}
	inner.Replace(snapshots)

	res.Windows = len(snapshots)
	e.stats.Captures++
	e.stats.WindowsCaptured += res.Windows
	e.stats.WindowsSkipped += res.Skipped
	e.logger.Info("captured windows", "reason", reason, "windows", res.Windows, "signature", int64(sig))

	res.Saved = e.save()
	return res
}

// RestoreAll applies the saved snapshots for the current display to the live
// windows with matching ids. Windows without a snapshot are left alone.
func (e *Engine) RestoreAll(reason string) RestoreResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := RestoreResult{Reason: reason}
	if e.closed {
		e.logger.Warn("restore after teardown ignored", "reason", reason)
		return res
	}

	sig, inner, ok := e.currentInner(reason)
	if !ok {
		return res
	}
	res.Signature = sig

	windows, err := e.listWindows()
	if err != nil {
		e.logger.Warn("failed to list windows, nothing restored", "reason", reason, "error", err)
		return res
	}

	for _, w := range windows {
		snap, found := inner[w.ID]
		if !found {
			res.NotFound++
			e.logger.Debug("no saved state for window", "reason", reason, "window_id", w.ID, "title", w.Title)
			continue
		}

		res.Restored++
		equalRect, err := snap.Restore(e.host, w)
		if err != nil {
			res.Failed++
			e.logger.Warn("failed to restore window",
				"reason", reason,
				"window_id", w.ID,
				"title", w.Title,
				"error", err)
		}
		if !equalRect {
			res.Moved++
		}
		if e.verify {
			e.verifyRestored(snap)
		}
	}

	e.stats.Restores++
	e.stats.WindowsRestored += res.Restored
	e.stats.WindowsMoved += res.Moved
	e.stats.WindowsNotFound += res.NotFound
	e.stats.RestoreErrors += res.Failed
	e.logger.Info("restored windows",
		"reason", reason,
		"moved", res.Moved,
		"restored", res.Restored,
		"not_found", res.NotFound,
		"signature", int64(sig))

	res.Saved = e.save()
	return res
}

// Teardown saves the store a final time and releases it. An operation that is
// already running completes first. Later calls to the engine are no-ops.
func (e *Engine) Teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if e.store != nil {
		e.save()
		e.store.Clear()
		e.store = nil
	}
	e.closed = true
	e.logger.Debug("engine torn down", "process_id", e.process.ID)
}

// Stats returns a copy of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.stats
	if e.store != nil {
		s.Displays = e.store.Len()
		s.SavedWindows = e.store.WindowCount()
	}
	return s
}

func (e *Engine) currentInner(reason string) (winstate.Signature, winstate.Inner, bool) {
	width, height, err := e.host.DisplaySize()
	if err != nil || width <= 0 || height <= 0 {
		e.logger.Warn("failed to read display size", "reason", reason, "width", width, "height", height, "error", err)
		return 0, nil, false
	}
	sig := winstate.DisplaySignature(width, height)
	inner := e.loadStore().Inner(sig)
	e.logger.Debug("resolved display",
		"reason", reason,
		"saved_windows", len(inner),
		"width", width,
		"height", height,
		"process_id", e.process.ID,
		"process_started", e.process.StartedAt)
	return sig, inner, true
}

func (e *Engine) listWindows() ([]platform.Window, error) {
	windows, err := e.host.ListWindows()
	if err != nil {
		return nil, err
	}
	out := windows[:0:0]
	for _, w := range windows {
		if w.SkipTaskbar {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// loadStore returns the in-memory store, reading the state file only when an
// earlier engine in this process has saved it.
func (e *Engine) loadStore() *winstate.Store {
	if e.store != nil {
		return e.store
	}
	if !e.process.SavedTo(e.file.Path()) {
		e.logger.Debug("starting with empty window state, nothing saved in this process", "state_file", e.file.Path())
		e.store = winstate.NewStore()
		return e.store
	}

	data, err := e.file.ReadAll()
	var store *winstate.Store
	if err == nil {
		store, err = winstate.Decode(data)
	}
	if err != nil {
		e.stats.LoadFailures++
		var decodeErr *winstate.DecodeError
		switch {
		case errors.Is(err, statefile.ErrUnavailable):
			e.logger.Debug("state file unavailable, starting empty")
		case errors.Is(err, statefile.ErrNotFound), errors.Is(err, statefile.ErrEmpty):
			e.logger.Info("no saved window state, starting empty", "error", err)
		case errors.As(err, &decodeErr):
			e.logger.Warn("saved window state is corrupt, starting empty", "error", err)
		default:
			e.logger.Warn("failed to load saved window state, starting empty", "error", err)
		}
		store = winstate.NewStore()
	}
	e.store = store
	return e.store
}

func (e *Engine) save() bool {
	if e.store == nil {
		return false
	}
	data, err := winstate.Encode(e.store)
	if err != nil {
		e.stats.SaveFailures++
		e.logger.Error("failed to encode window state", "error", err)
		return false
	}
	if err := e.file.WriteAtomic(data); err != nil {
		e.stats.SaveFailures++
		if errors.Is(err, statefile.ErrUnavailable) {
			e.logger.Debug("state file unavailable, window state kept in memory only")
		} else {
			e.logger.Error("failed to save window state", "error", err)
		}
		return false
	}
	e.process.MarkSaved(e.file.Path())
	e.stats.Saves++
	return true
}

func (e *Engine) verifyRestored(snap winstate.Snapshot) {
	live, err := e.host.Window(snap.ID)
	if err != nil {
		e.logger.Debug("could not re-read restored window", "window_id", snap.ID, "error", err)
		return
	}
	if diffs := snap.Diff(live); len(diffs) > 0 {
		e.logger.Debug("window differs after restore",
			"window_id", snap.ID,
			"differences", diffs,
			"expecting", snap.String())
	}
}
