package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stateMaxHorz     = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateMaxVert     = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateHidden      = "_NET_WM_STATE_HIDDEN"
	stateFullscreen  = "_NET_WM_STATE_FULLSCREEN"
	stateSkipTaskbar = "_NET_WM_STATE_SKIP_TASKBAR"

	// source indication for client messages: pager/direct user action
	sourcePager = 2
)

// WindowStates is the parsed _NET_WM_STATE of a client window.
type WindowStates struct {
	MaximizedHorz bool
	MaximizedVert bool
	Hidden        bool
	Fullscreen    bool
	SkipTaskbar   bool
}

// Frame is the position and size of a window including decorations.
type Frame struct {
	X, Y, Width, Height int
}

// RootSize returns the size of the root window, which spans all monitors.
func (c *Connection) RootSize() (int, int, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return int(geom.Width), int(geom.Height), nil
}

// ClientWindows returns the managed client windows from _NET_CLIENT_LIST.
func (c *Connection) ClientWindows() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// FrameRect returns the window geometry including window manager decorations.
func (c *Connection) FrameRect(windowID xproto.Window) (Frame, error) {
	geom, err := xwindow.New(c.XUtil, windowID).DecorGeometry()
	if err != nil {
		return Frame{}, fmt.Errorf("failed to get frame geometry of window %d: %w", windowID, err)
	}
	return Frame{X: geom.X(), Y: geom.Y(), Width: geom.Width(), Height: geom.Height()}, nil
}

// WindowStates reads and parses _NET_WM_STATE. Iconic windows whose window
// manager does not set _NET_WM_STATE_HIDDEN are reported hidden via WM_STATE.
func (c *Connection) WindowStates(windowID xproto.Window) (WindowStates, error) {
	var ws WindowStates
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		states = nil
	}
	for _, state := range states {
		switch state {
		case stateMaxHorz:
			ws.MaximizedHorz = true
		case stateMaxVert:
			ws.MaximizedVert = true
		case stateHidden:
			ws.Hidden = true
		case stateFullscreen:
			ws.Fullscreen = true
		case stateSkipTaskbar:
			ws.SkipTaskbar = true
		}
	}
	if !ws.Hidden {
		if wmState, err := icccm.WmStateGet(c.XUtil, windowID); err == nil && wmState.State == icccm.StateIconic {
			ws.Hidden = true
		}
	}
	return ws, nil
}

// WindowTitle returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// MoveResizeFrame moves and resizes a window so that its frame, decorations
// included, covers the given geometry.
func (c *Connection) MoveResizeFrame(windowID xproto.Window, x, y, width, height int) error {
	win := xwindow.New(c.XUtil, windowID)
	if err := win.WMMoveResize(x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		win.MoveResize(x, y, width, height)
	}
	return nil
}

// SetMaximized adds or removes the maximized state on the requested axes.
func (c *Connection) SetMaximized(windowID xproto.Window, horz, vert, add bool) error {
	action := ewmh.StateRemove
	if add {
		action = ewmh.StateAdd
	}

	var err error
	switch {
	case horz && vert:
		err = ewmh.WmStateReqExtra(c.XUtil, windowID, action, stateMaxHorz, stateMaxVert, sourcePager)
	case horz:
		err = ewmh.WmStateReqExtra(c.XUtil, windowID, action, stateMaxHorz, "", sourcePager)
	case vert:
		err = ewmh.WmStateReqExtra(c.XUtil, windowID, action, stateMaxVert, "", sourcePager)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to change maximized state of window %d: %w", windowID, err)
	}
	return nil
}

// Iconify asks the window manager to minimize a window via WM_CHANGE_STATE.
func (c *Connection) Iconify(windowID xproto.Window) error {
	if err := c.sendRootMessage(windowID, "WM_CHANGE_STATE", icccm.StateIconic); err != nil {
		return fmt.Errorf("failed to iconify window %d: %w", windowID, err)
	}
	return nil
}

// Activate raises and focuses a window using _NET_ACTIVE_WINDOW, which also
// deiconifies it.
func (c *Connection) Activate(windowID xproto.Window) error {
	if err := c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", sourcePager); err != nil {
		return fmt.Errorf("failed to activate window %d: %w", windowID, err)
	}
	return nil
}

// sendRootMessage sends a 32-bit client message about windowID to the root
// window. The message is built by hand because some xgbutil ewmh request
// helpers panic on this library version (uint vs int type assertion).
func (c *Connection) sendRootMessage(windowID xproto.Window, atomName string, data ...uint32) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}

	payload := make([]uint32, 5)
	copy(payload, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New(payload),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION",
			"_NET_WM_WINDOW_TYPE_MENU",
			"_NET_WM_WINDOW_TYPE_TOOLBAR":
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}
