package hotkeys

import (
	"fmt"
	"log"
	"sync"

	"github.com/1broseidon/winkeep/internal/engine"
	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Actions are the operations reachable from global hotkeys.
type Actions interface {
	Capture(reason string) engine.CaptureResult
	Restore(reason string) engine.RestoreResult
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	actions Actions
}

type binding struct {
	name string
	keys string
	run  func()
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend platform.Backend, actions Actions) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:      xu,
		root:    root,
		actions: actions,
	}
}

// Bind replaces all registered hotkeys with the capture and restore
// bindings. An empty key sequence leaves that action unbound.
func (h *Handler) Bind(captureKeys, restoreKeys string) error {
	if h.xu == nil {
		return fmt.Errorf("hotkeys need an X11 backend")
	}
	h.UnregisterAll()

	for _, b := range h.bindings(captureKeys, restoreKeys) {
		if err := h.RegisterFunc(b.keys, b.run); err != nil {
			return fmt.Errorf("failed to register %s hotkey %q: %w", b.name, b.keys, err)
		}
		log.Printf("Registered %s hotkey: %s", b.name, b.keys)
	}
	return nil
}

func (h *Handler) bindings(captureKeys, restoreKeys string) []binding {
	var out []binding
	if captureKeys != "" {
		out = append(out, binding{name: "capture", keys: captureKeys, run: func() {
			res := h.actions.Capture("Hotkey: Capture")
			log.Printf("Hotkey capture: %d windows (saved: %t)", res.Windows, res.Saved)
		}})
	}
	if restoreKeys != "" {
		out = append(out, binding{name: "restore", keys: restoreKeys, run: func() {
			res := h.actions.Restore("Hotkey: Restore")
			log.Printf("Hotkey restore: %d moved, %d restored", res.Moved, res.Restored)
		}})
	}
	return out
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// UnregisterAll removes every hotkey registered on the root window.
func (h *Handler) UnregisterAll() {
	if h.xu == nil {
		return
	}
	keybind.Detach(h.xu, h.root)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	if xu == nil {
		return
	}

	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns every combination of the given modifier masks,
// including the empty one.
func ignoreMasks(base []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
