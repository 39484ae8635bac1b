package session

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"replmux/log"
)

// motionMark is the host marker a motion capture leaves behind; the cursor is
// restored there after the send and the marker discarded.
const motionMark = "replmux-motion"

// ActiveView carries the host's ambient "current window/surface" state as
// explicit parameters, so the routing core never queries it ad hoc.
type ActiveView struct {
	Window  string
	Surface string
	// Context is the resolved content context of the surface. Empty means
	// "ask the host".
	Context Context
}

// Commands is the thin public operation surface built on the manager. These
// are the operations a host binds to its own command or keybinding layer.
type Commands struct {
	m    *Manager
	host Host
}

func NewCommands(m *Manager, host Host) *Commands {
	return &Commands{m: m, host: host}
}

// Manager exposes the underlying manager.
func (c *Commands) Manager() *Manager {
	return c.m
}

func (c *Commands) context(v ActiveView) Context {
	if v.Context != "" {
		return v.Context
	}
	return Context(c.host.ContextOf(v.Surface))
}

func (c *Commands) reportNoContext() {
	log.WarningLog.Print(ErrNoContextDetected)
	c.host.Notify("replmux: " + ErrNoContextDetected.Error())
}

// surfaceView adapts a session's surface to the visibility policy's view
// capability.
type surfaceView struct {
	host Host
	s    *Session
}

func (v surfaceView) Visible() bool {
	win := v.host.WindowOf(v.s.Surface)
	return win != "" && win == v.host.ActiveWindow()
}

func (v surfaceView) Hide() error {
	if err := v.host.HideSurface(v.s.Surface); err != nil {
		return err
	}
	v.s.Window = ""
	return nil
}

// OpenHere opens or switches to the context's session in the current window.
func (c *Commands) OpenHere(v ActiveView) (*Session, error) {
	ctx := c.context(v)
	if ctx == "" {
		c.reportNoContext()
		return nil, ErrNoContextDetected
	}

	s, created, err := c.m.EnsureHere(ctx, v.Window)
	if err != nil {
		return nil, err
	}
	if !created && v.Window != "" {
		if err := c.host.ShowSurface(s.Surface, v.Window); err != nil {
			return nil, fmt.Errorf("failed to show session surface: %w", err)
		}
		s.Window = v.Window
	}
	return s, nil
}

// ToggleWindow applies the configured visibility policy to the context's
// session in a side window: toggle hides a visible session and shows a hidden
// one, focus always brings it up. A session created by this very call is left
// alone, its surface is already frontmost.
func (c *Commands) ToggleWindow(v ActiveView) error {
	ctx := c.context(v)
	if ctx == "" {
		c.reportNoContext()
		return ErrNoContextDetected
	}

	s, created, err := c.m.EnsureExists(ctx)
	if err != nil {
		return err
	}
	if created {
		return nil
	}

	return c.m.Visibility().Apply(surfaceView{host: c.host, s: s}, func() error {
		return c.m.ShowSession(s)
	})
}

// Restart replaces the session for the active surface (or its context) with
// a fresh one.
func (c *Commands) Restart(v ActiveView) (*Session, error) {
	return c.m.Restart(v.Surface)
}

// SendLine sends the current line to the context's session. An empty line is
// a silent no-op.
func (c *Commands) SendLine(v ActiveView) error {
	ctx := c.context(v)
	if ctx == "" {
		c.reportNoContext()
		return ErrNoContextDetected
	}

	line, _, err := c.host.Cursor(v.Surface)
	if err != nil {
		return fmt.Errorf("failed to locate cursor: %w", err)
	}
	text, err := c.host.Line(v.Surface, line)
	if err != nil {
		return fmt.Errorf("failed to read line %d: %w", line, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.m.Send(ctx, []string{text})
}

// SendMotion sends the text covered by a captured motion. Character-wise
// motions trim the first and last line to the captured column bounds; other
// motions send whole lines. After a successful send the cursor returns to the
// saved motion marker and the marker is discarded. The captured range becomes
// the new repeat target.
func (c *Commands) SendMotion(v ActiveView, start, end Pos, mode Mode) error {
	err := c.sendRange(v, Range{Start: start, End: end, Mode: mode})

	if l, col, ok := c.host.Mark(v.Surface, motionMark); ok {
		_ = c.host.SetCursor(v.Surface, l, col)
		c.host.DeleteMark(v.Surface, motionMark)
	}
	return err
}

// SendVisual sends a visual selection, always trimming the first and last
// line to the selection's column bounds. The captured range becomes the new
// repeat target.
func (c *Commands) SendVisual(v ActiveView, start, end Pos) error {
	return c.sendRange(v, Range{Start: start, End: end, Mode: CharWise})
}

// RepeatLast re-sends the most recently recorded range. Without history it is
// a silent no-op; with history but no resolvable context it reports the
// condition and aborts.
func (c *Commands) RepeatLast(v ActiveView) error {
	r, ok := c.m.LastRange()
	if !ok {
		return nil
	}

	ctx := c.context(v)
	if ctx == "" {
		c.reportNoContext()
		return ErrNoContextDetected
	}

	lines, err := captureRange(c.host, v.Surface, r)
	if err != nil {
		return fmt.Errorf("failed to capture repeat range: %w", err)
	}
	return c.m.Send(ctx, lines)
}

func (c *Commands) sendRange(v ActiveView, r Range) error {
	ctx := c.context(v)
	if ctx == "" {
		c.reportNoContext()
		return ErrNoContextDetected
	}

	lines, err := captureRange(c.host, v.Surface, r)
	if err != nil {
		return fmt.Errorf("failed to capture range: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}
	if err := c.m.Send(ctx, lines); err != nil {
		return err
	}
	c.m.RecordRange(r)
	return nil
}

// captureRange reads the lines a range covers, applying character-wise
// column trimming. End.Col is the exclusive bound.
func captureRange(h Host, surface string, r Range) ([]string, error) {
	lines, err := h.Lines(surface, r.Start.Line, r.End.Line)
	if err != nil || len(lines) == 0 {
		return nil, err
	}
	if r.Mode == CharWise {
		last := len(lines) - 1
		if end := r.End.Col; end < len(lines[last]) {
			lines[last] = lines[last][:end]
		}
		if start := r.Start.Col; start > 0 {
			if start > len(lines[0]) {
				start = len(lines[0])
			}
			lines[0] = lines[0][start:]
		}
	}
	return lines, nil
}

// SendClipboard routes the system clipboard into the context's session.
func (c *Commands) SendClipboard(v ActiveView) error {
	ctx := c.context(v)
	if ctx == "" {
		c.reportNoContext()
		return ErrNoContextDetected
	}

	text, err := clipboard.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}
	return c.m.SendText(ctx, text)
}

// Register adds or overwrites a labeled launch definition for a context.
func (c *Commands) Register(ctx Context, label string, def Definition) {
	c.m.Catalog().Register(ctx, label, def)
}

// MergeCatalog merges another catalog's definitions into the active one.
func (c *Commands) MergeCatalog(other *Catalog) {
	c.m.Catalog().Merge(other)
}

// ListContexts returns all registered context keys.
func (c *Commands) ListContexts() []Context {
	return c.m.Catalog().Contexts()
}

// Definitions returns the context's definitions in registration order, and
// reports UnknownContext when none are registered.
func (c *Commands) Definitions(ctx Context) ([]Labeled, error) {
	defs, err := c.m.Catalog().Definitions(ctx)
	if err != nil {
		log.WarningLog.Printf("%v: %s", err, ctx)
		c.host.Notify(fmt.Sprintf("replmux: %s (context %q)", err.Error(), ctx))
		return nil, err
	}
	return defs, nil
}
