//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/1broseidon/winkeep/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// QuitEventLoop stops a running EventLoop.
func (b *LinuxBackend) QuitEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// DisplaySize returns the root window size, or the bounding box of all
// monitors when the root geometry cannot be read.
func (b *LinuxBackend) DisplaySize() (int, int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, 0, err
	}

	width, height, err := conn.RootSize()
	if err == nil {
		return width, height, nil
	}

	monitors, monErr := conn.GetMonitors()
	if monErr != nil || len(monitors) == 0 {
		return 0, 0, err
	}
	width, height = x11.BoundingBox(monitors)
	return width, height, nil
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// ListWindows lists normal client windows on all desktops, skipping the ones
// that ask to be left out of task bars. Windows whose geometry cannot be read
// (typically destroyed while listing) are skipped.
func (b *LinuxBackend) ListWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientWindows()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		if !conn.IsNormalWindow(windowID) {
			continue
		}
		w, err := b.window(conn, windowID)
		if err != nil || w.SkipTaskbar {
			continue
		}
		windows = append(windows, w)
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})

	return windows, nil
}

// Window returns the current geometry and state of a single window.
func (b *LinuxBackend) Window(windowID WindowID) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return Window{}, err
	}
	return b.window(conn, xproto.Window(windowID))
}

// MoveResize moves and resizes a window so its frame matches bounds.
func (b *LinuxBackend) MoveResize(windowID WindowID, bounds Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	return conn.MoveResizeFrame(
		xproto.Window(windowID),
		bounds.X,
		bounds.Y,
		bounds.Width,
		bounds.Height,
	)
}

// Maximize adds the maximized state on the axes in flags.
func (b *LinuxBackend) Maximize(windowID WindowID, flags MaximizeFlags) error {
	return b.setMaximized(windowID, flags, true)
}

// Unmaximize removes the maximized state on the axes in flags.
func (b *LinuxBackend) Unmaximize(windowID WindowID, flags MaximizeFlags) error {
	return b.setMaximized(windowID, flags, false)
}

// Minimize minimizes a window via WM_CHANGE_STATE.
func (b *LinuxBackend) Minimize(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Iconify(xproto.Window(windowID))
}

// Unminimize maps a minimized window again by activating it.
func (b *LinuxBackend) Unminimize(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Activate(xproto.Window(windowID))
}

func (b *LinuxBackend) setMaximized(windowID WindowID, flags MaximizeFlags, add bool) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetMaximized(
		xproto.Window(windowID),
		flags&MaximizeHorizontal != 0,
		flags&MaximizeVertical != 0,
		add,
	)
}

func (b *LinuxBackend) window(conn *x11.Connection, windowID xproto.Window) (Window, error) {
	frame, err := conn.FrameRect(windowID)
	if err != nil {
		return Window{}, err
	}
	states, err := conn.WindowStates(windowID)
	if err != nil {
		return Window{}, err
	}
	return windowFromX11(WindowID(windowID), conn.WindowTitle(windowID), frame, states), nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func windowFromX11(id WindowID, title string, frame x11.Frame, states x11.WindowStates) Window {
	var maximized MaximizeFlags
	if states.MaximizedHorz {
		maximized |= MaximizeHorizontal
	}
	if states.MaximizedVert {
		maximized |= MaximizeVertical
	}
	return Window{
		ID:          id,
		Title:       title,
		Frame:       Rect{X: frame.X, Y: frame.Y, Width: frame.Width, Height: frame.Height},
		Maximized:   maximized,
		Minimized:   states.Hidden,
		Fullscreen:  states.Fullscreen,
		SkipTaskbar: states.SkipTaskbar,
	}
}
