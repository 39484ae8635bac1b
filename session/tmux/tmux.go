// Package tmux implements the replmux host on top of a running tmux server.
// Surfaces are panes, windows are tmux windows. Processes are launched with
// respawn-pane so they stay bound to their pane, and payloads are delivered
// through the paste buffer so multi-line blocks arrive intact.
package tmux

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"replmux/cmd"
	"replmux/log"
)

// contextOption is the pane user option carrying a surface's content context.
const contextOption = "@replmux_context"

// pasteBufferName is the tmux buffer used for payload delivery.
const pasteBufferName = "replmux"

// Host drives a tmux server through its command interface.
type Host struct {
	tmuxPath string
	cmdExec  cmd.Executor

	mu    sync.Mutex
	marks map[string]map[string][2]int
}

// NewHost creates a tmux host using the given executor.
func NewHost(cmdExec cmd.Executor) *Host {
	return &Host{
		tmuxPath: findTmuxPath(),
		cmdExec:  cmdExec,
		marks:    make(map[string]map[string][2]int),
	}
}

// findTmuxPath locates the tmux binary. GUI-launched processes on macOS
// don't inherit the shell PATH, so common install locations are probed too.
func findTmuxPath() string {
	if path, err := exec.LookPath("tmux"); err == nil {
		return path
	}

	commonPaths := []string{
		"/opt/homebrew/bin/tmux",
		"/usr/local/bin/tmux",
		"/usr/bin/tmux",
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return "tmux"
}

// IsAvailable checks if tmux is installed on the system.
func IsAvailable() bool {
	return exec.Command("tmux", "-V").Run() == nil
}

func (h *Host) run(args ...string) error {
	return h.cmdExec.Run(exec.Command(h.tmuxPath, args...))
}

func (h *Host) output(args ...string) (string, error) {
	out, err := h.cmdExec.Output(exec.Command(h.tmuxPath, args...))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (h *Host) display(target, format string) (string, error) {
	return h.output("display-message", "-p", "-t", target, format)
}

// CreateSurface allocates a detached background window and returns its pane.
// The pane runs the default shell until a process is bound to it.
func (h *Host) CreateSurface() (string, error) {
	pane, err := h.output("new-window", "-d", "-P", "-F", "#{pane_id}", "-n", "repl")
	if err != nil {
		return "", fmt.Errorf("error creating scratch pane: %w", err)
	}
	return pane, nil
}

// SurfaceName returns the pane id if the pane is still open, "" otherwise.
func (h *Host) SurfaceName(surface string) string {
	out, err := h.output("list-panes", "-a", "-F", "#{pane_id}")
	if err != nil {
		return ""
	}
	for _, id := range strings.Split(out, "\n") {
		if strings.TrimSpace(id) == surface {
			return surface
		}
	}
	return ""
}

// OpenWindow attaches the pane next to the active window using the open
// directive. A "split-window ..." directive is interpreted as the equivalent
// join-pane: the pane already exists, it only needs a container.
func (h *Host) OpenWindow(directive, surface string) (string, error) {
	fields := strings.Fields(directive)
	if len(fields) > 0 && (fields[0] == "split-window" || fields[0] == "join-pane") {
		fields = fields[1:]
	}

	args := append([]string{"join-pane"}, fields...)
	args = append(args, "-s", surface)
	if err := h.run(args...); err != nil {
		return "", fmt.Errorf("error opening window for pane %s: %w", surface, err)
	}
	return h.WindowOf(surface), nil
}

// ShowSurface binds the pane into the given window.
func (h *Host) ShowSurface(surface, window string) error {
	if h.WindowOf(surface) == window {
		return h.run("select-window", "-t", window)
	}
	return h.run("join-pane", "-h", "-s", surface, "-t", window)
}

// HideSurface breaks the pane out into a detached background window.
func (h *Host) HideSurface(surface string) error {
	return h.run("break-pane", "-d", "-s", surface, "-n", "repl")
}

// FixWindowWidth pins the window's size so layout changes don't resize it.
func (h *Host) FixWindowWidth(window string) error {
	return h.run("set-window-option", "-t", window, "window-size", "manual")
}

// ActiveWindow returns the focused window id, or "".
func (h *Host) ActiveWindow() string {
	out, err := h.output("display-message", "-p", "#{window_id}")
	if err != nil {
		return ""
	}
	return out
}

// ActiveSurface returns the focused pane id, or "".
func (h *Host) ActiveSurface() string {
	out, err := h.output("display-message", "-p", "#{pane_id}")
	if err != nil {
		return ""
	}
	return out
}

// IsWindowOpen reports whether the window still exists.
func (h *Host) IsWindowOpen(window string) bool {
	out, err := h.output("list-windows", "-a", "-F", "#{window_id}")
	if err != nil {
		return false
	}
	for _, id := range strings.Split(out, "\n") {
		if strings.TrimSpace(id) == window {
			return true
		}
	}
	return false
}

// WindowOf returns the window currently holding the pane, or "".
func (h *Host) WindowOf(surface string) string {
	out, err := h.display(surface, "#{window_id}")
	if err != nil {
		return ""
	}
	return out
}

// FocusWindow selects the window.
func (h *Host) FocusWindow(window string) error {
	return h.run("select-window", "-t", window)
}

// ContextOf reads the pane's context option.
func (h *Host) ContextOf(surface string) string {
	out, err := h.output("show-options", "-pqv", "-t", surface, contextOption)
	if err != nil {
		return ""
	}
	return out
}

// SetContext tags the pane with a content context, making it routable.
func (h *Host) SetContext(surface, context string) error {
	return h.run("set-option", "-p", "-t", surface, contextOption, context)
}

// Cursor returns the pane's cursor position (1-based line, 0-based column).
func (h *Host) Cursor(surface string) (int, int, error) {
	out, err := h.display(surface, "#{cursor_y} #{cursor_x}")
	if err != nil {
		return 0, 0, fmt.Errorf("error querying cursor for pane %s: %w", surface, err)
	}
	parts := strings.Fields(out)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected cursor report %q for pane %s", out, surface)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected cursor row %q: %w", parts[0], err)
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected cursor column %q: %w", parts[1], err)
	}
	return y + 1, x, nil
}

// SetCursor is a no-op: the program running in the pane owns its cursor.
func (h *Host) SetCursor(surface string, line, col int) error {
	return nil
}

// ScrollToEnd leaves copy mode so the pane view follows live output again.
func (h *Host) ScrollToEnd(surface string) error {
	out, err := h.display(surface, "#{pane_in_mode}")
	if err != nil {
		return fmt.Errorf("error querying pane mode for %s: %w", surface, err)
	}
	if out == "1" {
		return h.run("send-keys", "-t", surface, "-X", "cancel")
	}
	return nil
}

// Line reads a single line of pane content.
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

// Lines reads an inclusive 1-based line range of pane content.
func (h *Host) Lines(surface string, first, last int) ([]string, error) {
	out, err := h.cmdExec.Output(exec.Command(h.tmuxPath,
		"capture-pane", "-p", "-t", surface,
		"-S", strconv.Itoa(first-1), "-E", strconv.Itoa(last-1)))
	if err != nil {
		return nil, fmt.Errorf("error capturing pane %s: %w", surface, err)
	}
	return strings.Split(strings.TrimSuffix(string(out), "\n"), "\n"), nil
}

// SetMark records a position marker for the pane. tmux has no content-anchored
// marks, so these live in host memory and vanish with the process; that is
// enough for the transient motion marker they serve.
func (h *Host) SetMark(surface, name string, line, col int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.marks[surface] == nil {
		h.marks[surface] = make(map[string][2]int)
	}
	h.marks[surface][name] = [2]int{line, col}
}

// Mark queries a marker placed with SetMark.
func (h *Host) Mark(surface, name string) (int, int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pos, ok := h.marks[surface][name]
	return pos[0], pos[1], ok
}

// DeleteMark discards a marker.
func (h *Host) DeleteMark(surface, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.marks[surface], name)
}

// RunCommand runs an arbitrary tmux command string.
func (h *Host) RunCommand(command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	return h.run(fields...)
}

// Notify shows a non-blocking message in the tmux status line.
func (h *Host) Notify(message string) {
	log.InfoLog.Printf("notify: %s", message)
	if err := h.run("display-message", message); err != nil {
		log.WarningLog.Printf("could not display message: %v", err)
	}
}

// WipeSurface kills the pane and whatever runs on it.
func (h *Host) WipeSurface(surface string) error {
	h.mu.Lock()
	delete(h.marks, surface)
	h.mu.Unlock()
	return h.run("kill-pane", "-t", surface)
}

// Defer schedules a one-shot action.
func (h *Host) Defer(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// StartProcess launches argv bound to the pane via respawn-pane. The pane id
// doubles as the process handle: input reaches the process through its pane.
func (h *Host) StartProcess(surface string, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command for pane %s", surface)
	}
	args := append([]string{"respawn-pane", "-k", "-t", surface}, argv...)
	if err := h.run(args...); err != nil {
		return "", fmt.Errorf("error starting %v in pane %s: %w", argv, surface, err)
	}
	return surface, nil
}

// WriteInput delivers the payload through the tmux paste buffer. Pasting
// (with -p) lets repls that negotiate bracketed paste receive multi-line
// blocks as one unit instead of evaluating line by line.
func (h *Host) WriteInput(process string, payload []byte) error {
	load := exec.Command(h.tmuxPath, "load-buffer", "-b", pasteBufferName, "-")
	load.Stdin = bytes.NewReader(payload)
	if err := h.cmdExec.Run(load); err != nil {
		return fmt.Errorf("error loading paste buffer: %w", err)
	}
	if err := h.run("paste-buffer", "-d", "-p", "-b", pasteBufferName, "-t", process); err != nil {
		return fmt.Errorf("error pasting to pane %s: %w", process, err)
	}
	return nil
}

// LookPath reports whether the executable resolves on the system path.
func (h *Host) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
