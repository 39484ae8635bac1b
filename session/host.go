package session

import (
	"time"

	"replmux/cmd"
	"replmux/config"
	"replmux/session/local"
	"replmux/session/tmux"
)

// Host is the editing-environment collaborator: everything the manager needs
// from the surrounding display host. Handles are opaque strings owned by the
// host. Lines are 1-based, columns are 0-based byte offsets.
type Host interface {
	// CreateSurface allocates a fresh, hidden, scratch surface and returns
	// its handle.
	CreateSurface() (string, error)

	// SurfaceName returns the host's external identifier for the surface.
	// An empty result means the surface has been closed.
	SurfaceName(surface string) string

	// OpenWindow obtains a display container for the surface using the given
	// open directive and returns the window handle.
	OpenWindow(directive, surface string) (string, error)

	// ShowSurface binds the surface into an existing window.
	ShowSurface(surface, window string) error

	// HideSurface removes the surface from view without destroying it or the
	// process bound to it.
	HideSurface(surface string) error

	// FixWindowWidth marks the window non-resizable so later layout changes
	// don't squeeze it away.
	FixWindowWidth(window string) error

	// ActiveWindow returns the currently focused window, or "".
	ActiveWindow() string

	// ActiveSurface returns the surface shown in the focused window, or "".
	ActiveSurface() string

	// IsWindowOpen reports whether the window still exists.
	IsWindowOpen(window string) bool

	// WindowOf returns the window currently holding the surface, or "".
	WindowOf(surface string) string

	// FocusWindow gives the window input focus.
	FocusWindow(window string) error

	// ContextOf resolves the content context of a surface, or "".
	ContextOf(surface string) string

	// Cursor returns the cursor position within the surface.
	Cursor(surface string) (line, col int, err error)

	// SetCursor moves the cursor within the surface. Hosts that cannot move
	// a cursor (the running program owns it) treat this as a no-op.
	SetCursor(surface string, line, col int) error

	// ScrollToEnd repositions the surface's view on its last line so new
	// output is visible without manual scrolling.
	ScrollToEnd(surface string) error

	// Line reads a single line of surface content.
	Line(surface string, line int) (string, error)

	// Lines reads an inclusive line range of surface content.
	Lines(surface string, first, last int) ([]string, error)

	// SetMark places a lightweight position marker on the surface.
	SetMark(surface, name string, line, col int)

	// Mark queries a marker placed with SetMark.
	Mark(surface, name string) (line, col int, ok bool)

	// DeleteMark discards a marker.
	DeleteMark(surface, name string)

	// RunCommand runs an arbitrary host command string.
	RunCommand(command string) error

	// Notify reports a user-visible, non-blocking message.
	Notify(message string)

	// WipeSurface forcibly destroys the surface and anything running on it.
	WipeSurface(surface string) error

	// Defer schedules a one-shot action on the host's event loop. The action
	// must tolerate firing after its targets have disappeared.
	Defer(d time.Duration, fn func())
}

// Runner is the process collaborator: launching external processes bound to
// surfaces and feeding their input streams.
type Runner interface {
	// StartProcess starts argv bound to the surface and returns the process
	// handle.
	StartProcess(surface string, argv []string) (string, error)

	// WriteInput writes the payload to the process input stream.
	WriteInput(process string, payload []byte) error

	// LookPath reports whether the executable name resolves on the system.
	LookPath(name string) bool
}

// Backend is a host that also runs processes. Both shipped hosts implement
// the full set.
type Backend interface {
	Host
	Runner
}

// HostKind selects a host backend.
type HostKind string

const (
	HostTmux  HostKind = "tmux"
	HostLocal HostKind = "local"
)

// DefaultHostKind prefers tmux when it is installed and falls back to the
// headless local host.
func DefaultHostKind() HostKind {
	if tmux.IsAvailable() {
		return HostTmux
	}
	return HostLocal
}

// NewBackend creates a host backend of the given kind. An empty kind picks
// the platform default.
func NewBackend(kind HostKind) Backend {
	switch kind {
	case HostTmux:
		return tmux.NewHost(cmd.MakeExecutor())
	case HostLocal:
		return local.NewHost()
	default:
		return NewBackend(DefaultHostKind())
	}
}

// NewMemory returns the shipped keying strategy for a configuration name,
// defaulting to context-only.
func NewMemory(strategy string) Memory {
	if strategy == config.ManagerScoped {
		return NewScopedMemory(nil)
	}
	return NewContextMemory()
}
