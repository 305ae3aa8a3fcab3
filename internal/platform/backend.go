package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Equal reports whether both rectangles have identical position and size.
func (r Rect) Equal(o Rect) bool {
	return r.X == o.X && r.Y == o.Y && r.Width == o.Width && r.Height == o.Height
}

// MaximizeFlags records which axes of a window are maximized.
// The numeric values match the window manager flags so saved state stays portable.
type MaximizeFlags uint8

const (
	MaximizeNone       MaximizeFlags = 0
	MaximizeHorizontal MaximizeFlags = 1
	MaximizeVertical   MaximizeFlags = 2
	MaximizeBoth       MaximizeFlags = MaximizeHorizontal | MaximizeVertical
)

func (m MaximizeFlags) String() string {
	switch m {
	case MaximizeNone:
		return "none"
	case MaximizeHorizontal:
		return "horizontal"
	case MaximizeVertical:
		return "vertical"
	case MaximizeBoth:
		return "both"
	default:
		return "invalid"
	}
}

// Valid reports whether m is one of the four defined values.
func (m MaximizeFlags) Valid() bool {
	return m <= MaximizeBoth
}

// Display describes a physical display.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
}

// Window contains the live geometry and state of a top-level window.
type Window struct {
	ID          WindowID
	Title       string
	Frame       Rect
	Maximized   MaximizeFlags
	Minimized   bool
	Fullscreen  bool
	SkipTaskbar bool
}

// WindowMutator applies geometry and state changes to live windows.
type WindowMutator interface {
	MoveResize(windowID WindowID, frame Rect) error
	Maximize(windowID WindowID, flags MaximizeFlags) error
	Unmaximize(windowID WindowID, flags MaximizeFlags) error
	Minimize(windowID WindowID) error
	Unminimize(windowID WindowID) error
}

// Backend abstracts the window-system operations used to capture and restore layouts.
type Backend interface {
	WindowMutator

	// DisplaySize returns the size of the whole screen (all monitors).
	DisplaySize() (width, height int, err error)
	// ListWindows returns the top-level windows eligible for capture/restore.
	// Windows that ask to be skipped by task bars are not returned.
	ListWindows() ([]Window, error)
	// Window returns a fresh view of a single window.
	Window(windowID WindowID) (Window, error)
	Displays() ([]Display, error)
}
