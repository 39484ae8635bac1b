// Package local implements a headless replmux host. It exists for
// environments without a terminal multiplexer: surfaces are in-memory
// scrollback buffers fed from ptys, and the processes behind them are owned
// by this process rather than by an external server.
package local

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"

	"replmux/log"
)

// scrollbackLimit caps how many lines a surface retains.
const scrollbackLimit = 2000

type surfaceState struct {
	window  string
	context string
	closed  bool

	lines   []string
	partial string

	cursorLine int
	cursorCol  int
	marks      map[string][2]int

	cmd  *exec.Cmd
	ptmx *os.File
}

// Host keeps every surface, window and process in memory.
type Host struct {
	mu       sync.Mutex
	seq      int
	surfaces map[string]*surfaceState
	windows  map[string]bool
	fixed    map[string]bool
	active   string
	notices  []string
}

func NewHost() *Host {
	h := &Host{
		surfaces: make(map[string]*surfaceState),
		windows:  make(map[string]bool),
		fixed:    make(map[string]bool),
	}
	// The host starts with one focused window, the "editor".
	h.active = h.newWindowLocked()
	return h
}

func (h *Host) newWindowLocked() string {
	h.seq++
	win := fmt.Sprintf("win-%d", h.seq)
	h.windows[win] = true
	return win
}

// CreateSurface allocates a fresh hidden surface.
func (h *Host) CreateSurface() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	id := fmt.Sprintf("surf-%d", h.seq)
	h.surfaces[id] = &surfaceState{marks: make(map[string][2]int)}
	return id, nil
}

// SurfaceName returns the surface id while it is open. A surface closes when
// it is wiped or its process exits.
func (h *Host) SurfaceName(surface string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok || s.closed {
		return ""
	}
	return surface
}

// OpenWindow allocates a new window for the surface. The directive is
// meaningless without a display and is ignored.
func (h *Host) OpenWindow(directive, surface string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return "", fmt.Errorf("unknown surface %s", surface)
	}
	win := h.newWindowLocked()
	s.window = win
	return win, nil
}

// ShowSurface binds the surface into an existing window.
func (h *Host) ShowSurface(surface, window string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return fmt.Errorf("unknown surface %s", surface)
	}
	if !h.windows[window] {
		return fmt.Errorf("unknown window %s", window)
	}
	s.window = window
	return nil
}

// HideSurface detaches the surface from its window.
func (h *Host) HideSurface(surface string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return fmt.Errorf("unknown surface %s", surface)
	}
	s.window = ""
	return nil
}

// FixWindowWidth records the window as non-resizable.
func (h *Host) FixWindowWidth(window string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.windows[window] {
		return fmt.Errorf("unknown window %s", window)
	}
	h.fixed[window] = true
	return nil
}

// ActiveWindow returns the focused window.
func (h *Host) ActiveWindow() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// ActiveSurface returns the surface shown in the focused window, or "".
func (h *Host) ActiveSurface() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.surfaces {
		if !s.closed && s.window == h.active {
			return id
		}
	}
	return ""
}

// IsWindowOpen reports whether the window exists.
func (h *Host) IsWindowOpen(window string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.windows[window]
}

// CloseWindow destroys a window; surfaces bound to it are detached.
func (h *Host) CloseWindow(window string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.windows, window)
	delete(h.fixed, window)
	for _, s := range h.surfaces {
		if s.window == window {
			s.window = ""
		}
	}
}

// WindowOf returns the window holding the surface, or "".
func (h *Host) WindowOf(surface string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.surfaces[surface]; ok {
		return s.window
	}
	return ""
}

// FocusWindow gives the window focus.
func (h *Host) FocusWindow(window string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.windows[window] {
		return fmt.Errorf("unknown window %s", window)
	}
	h.active = window
	return nil
}

// ContextOf returns the surface's content context.
func (h *Host) ContextOf(surface string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.surfaces[surface]; ok {
		return s.context
	}
	return ""
}

// SetContext tags the surface with a content context.
func (h *Host) SetContext(surface, context string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return fmt.Errorf("unknown surface %s", surface)
	}
	s.context = context
	return nil
}

// Cursor returns the surface cursor, defaulting to the end of content.
func (h *Host) Cursor(surface string) (int, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return 0, 0, fmt.Errorf("unknown surface %s", surface)
	}
	if s.cursorLine > 0 {
		return s.cursorLine, s.cursorCol, nil
	}
	line := len(s.lines)
	if line == 0 {
		line = 1
	}
	return line, 0, nil
}

// SetCursor moves the surface cursor.
func (h *Host) SetCursor(surface string, line, col int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return fmt.Errorf("unknown surface %s", surface)
	}
	s.cursorLine, s.cursorCol = line, col
	return nil
}

// ScrollToEnd is trivial here: the scrollback view is always at the end.
func (h *Host) ScrollToEnd(surface string) error {
	return nil
}

// AppendLines adds content to a surface's scrollback directly, used by hosts
// driving editing surfaces without a process behind them.
func (h *Host) AppendLines(surface string, lines ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return fmt.Errorf("unknown surface %s", surface)
	}
	s.appendLines(lines)
	return nil
}

func (s *surfaceState) appendLines(lines []string) {
	s.lines = append(s.lines, lines...)
	if overflow := len(s.lines) - scrollbackLimit; overflow > 0 {
		s.lines = append([]string(nil), s.lines[overflow:]...)
	}
}

// Line reads one line of surface content.
func (h *Host) Line(surface string, line int) (string, error) {
	lines, err := h.Lines(surface, line, line)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}

// Lines reads an inclusive 1-based line range, clamped to content.
func (h *Host) Lines(surface string, first, last int) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return nil, fmt.Errorf("unknown surface %s", surface)
	}
	if first < 1 {
		first = 1
	}
	if last > len(s.lines) {
		last = len(s.lines)
	}
	if first > last {
		return nil, nil
	}
	out := make([]string, last-first+1)
	copy(out, s.lines[first-1:last])
	return out, nil
}

// SetMark places a position marker on the surface.
func (h *Host) SetMark(surface, name string, line, col int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.surfaces[surface]; ok {
		s.marks[name] = [2]int{line, col}
	}
}

// Mark queries a marker.
func (h *Host) Mark(surface, name string) (int, int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return 0, 0, false
	}
	pos, ok := s.marks[name]
	return pos[0], pos[1], ok
}

// DeleteMark discards a marker.
func (h *Host) DeleteMark(surface, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.surfaces[surface]; ok {
		delete(s.marks, name)
	}
}

// RunCommand has no command language headless; commands are logged and
// dropped.
func (h *Host) RunCommand(command string) error {
	log.Debug("local host ignoring command %q", command)
	return nil
}

// Notify records the message. Notices keeps them retrievable for the
// embedding program.
func (h *Host) Notify(message string) {
	log.InfoLog.Printf("notify: %s", message)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, message)
}

// Notices drains recorded user messages.
func (h *Host) Notices() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.notices
	h.notices = nil
	return out
}

// WipeSurface tears the surface down, killing its process group.
func (h *Host) WipeSurface(surface string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return nil
	}
	s.closed = true
	if s.ptmx != nil {
		_ = s.ptmx.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		if err := killProcess(s.cmd); err != nil {
			log.WarningLog.Printf("could not kill process for surface %s: %v", surface, err)
		}
	}
	delete(h.surfaces, surface)
	return nil
}

// Defer schedules a one-shot action.
func (h *Host) Defer(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// StartProcess runs argv under a pty bound to the surface. Output feeds the
// surface's scrollback; when the process exits the surface reads as closed,
// which is what the lazy liveness check looks for.
func (h *Host) StartProcess(surface string, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command for surface %s", surface)
	}

	h.mu.Lock()
	s, ok := h.surfaces[surface]
	h.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown surface %s", surface)
	}

	c := exec.Command(argv[0], argv[1:]...)
	ptmx, err := pty.Start(c)
	if err != nil {
		return "", fmt.Errorf("error starting %v: %w", argv, err)
	}

	// Match the controlling terminal's size when there is one.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			_ = pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
		}
	}

	h.mu.Lock()
	s.cmd = c
	s.ptmx = ptmx
	h.mu.Unlock()

	go h.readOutput(surface, ptmx)
	go func() {
		_ = c.Wait()
		h.mu.Lock()
		defer h.mu.Unlock()
		if cur, ok := h.surfaces[surface]; ok && cur.cmd == c {
			cur.closed = true
		}
	}()

	return surface, nil
}

func (h *Host) readOutput(surface string, ptmx *os.File) {
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			h.feed(surface, string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

func (h *Host) feed(surface, chunk string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[surface]
	if !ok {
		return
	}

	text := s.partial + strings.ReplaceAll(chunk, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	s.partial = parts[len(parts)-1]
	s.appendLines(parts[:len(parts)-1])
}

// WriteInput writes the payload to the process's pty.
func (h *Host) WriteInput(process string, payload []byte) error {
	h.mu.Lock()
	s, ok := h.surfaces[process]
	h.mu.Unlock()
	if !ok || s.ptmx == nil {
		return fmt.Errorf("no process on surface %s", process)
	}
	_, err := s.ptmx.Write(payload)
	return err
}

// LookPath reports whether the executable resolves on the system path.
func (h *Host) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
