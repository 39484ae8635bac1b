package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"replmux/config"
	"replmux/log"
)

// focusRestoreDelay is how long after session creation input focus is handed
// back to the previously active window.
const focusRestoreDelay = 75 * time.Millisecond

// Mode describes how a captured range maps to text.
type Mode int

const (
	// LineWise sends whole lines.
	LineWise Mode = iota
	// CharWise trims the first and last line to the captured column bounds.
	CharWise
)

// Pos is a position in a surface. Line is 1-based; Col is a 0-based byte
// offset. For a range end, Col is the exclusive bound.
type Pos struct {
	Line int
	Col  int
}

// Range records a captured text region for the repeat operation.
type Range struct {
	Start Pos
	End   Pos
	Mode  Mode
}

// Manager is the session lifecycle and routing core. All its state is owned
// and injected explicitly: the catalog, the keying strategy, the visibility
// policy and the host collaborators. A single mutex serializes operations;
// they are short and never block apart from process spawn handoff.
type Manager struct {
	mu         sync.Mutex
	catalog    *Catalog
	memory     Memory
	visibility Visibility
	host       Host
	runner     Runner
	cfg        *config.Config

	// openWindowFn, when set, replaces the configured open directive with a
	// caller-supplied action receiving the surface handle.
	openWindowFn func(surface string) (string, error)

	lastRange *Range
}

// NewManager assembles a manager from a resolved configuration and a backend.
func NewManager(cfg *config.Config, catalog *Catalog, backend Backend) *Manager {
	return NewManagerWithDeps(cfg, catalog, NewMemory(cfg.Manager), NewVisibility(cfg.Visibility), backend, backend)
}

// NewManagerWithDeps assembles a manager from explicit dependencies, for
// callers and tests that inject their own strategies or hosts.
func NewManagerWithDeps(cfg *config.Config, catalog *Catalog, memory Memory, visibility Visibility, host Host, runner Runner) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Manager{
		catalog:    catalog,
		memory:     memory,
		visibility: visibility,
		host:       host,
		runner:     runner,
		cfg:        cfg,
	}
}

// Catalog returns the manager's launch catalog.
func (m *Manager) Catalog() *Catalog {
	return m.catalog
}

// Visibility returns the active visibility policy.
func (m *Manager) Visibility() Visibility {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visibility
}

// Sessions returns every session currently recorded, live or stale.
func (m *Manager) Sessions() []*Session {
	entries := m.memory.Entries()
	out := make([]*Session, 0, len(entries))
	for _, s := range entries {
		out = append(out, s)
	}
	return out
}

// Entries returns the full key→session mapping, for persistence.
func (m *Manager) Entries() map[string]*Session {
	return m.memory.Entries()
}

// Adopt records a session under an already-derived key, used when re-adopting
// persisted sessions from a previous invocation.
func (m *Manager) Adopt(key string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memory.Set(key, s)
}

// SetOpenWindowFunc installs a caller-supplied window-open action used in
// place of the configured open directive.
func (m *Manager) SetOpenWindowFunc(fn func(surface string) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openWindowFn = fn
}

// Reconfigure replaces the whole configuration with the given overrides
// resolved over built-in defaults. The keying strategy and visibility policy
// are rebuilt from the new configuration; it never merges with a previous
// custom configuration.
func (m *Manager) Reconfigure(overrides *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := config.Merge(overrides)
	if cfg.Manager != m.cfg.Manager {
		log.InfoLog.Printf("switching keying strategy to %q, existing sessions are forgotten", cfg.Manager)
		m.memory = NewMemory(cfg.Manager)
	}
	m.visibility = NewVisibility(cfg.Visibility)
	m.cfg = cfg
}

// SelectDefinition picks the launch definition for a context. An explicit
// preference in the configuration is trusted without an availability check;
// otherwise the first definition, in registration order, whose executable
// resolves on the system wins. Returns ErrUnknownContext when the context has
// no catalog entries and ErrNoReplAvailable when nothing probes as runnable.
func (m *Manager) SelectDefinition(ctx Context) (Labeled, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectLocked(ctx)
}

func (m *Manager) selectLocked(ctx Context) (Labeled, error) {
	if label, ok := m.cfg.Preferred[string(ctx)]; ok {
		if def, found := m.catalog.Lookup(ctx, label); found {
			return Labeled{Label: label, Definition: def}, nil
		}
		// A preference pointing at an unregistered label is a configuration
		// mistake; fall through to ordered probing.
		log.WarningLog.Printf("preferred repl %q is not registered for context %q", label, ctx)
	}

	defs, err := m.catalog.Definitions(ctx)
	if err != nil {
		return Labeled{}, err
	}
	for _, ld := range defs {
		if len(ld.Definition.Command) > 0 && m.runner.LookPath(ld.Definition.Command[0]) {
			return ld, nil
		}
	}
	return Labeled{}, ErrNoReplAvailable
}

// EnsureExists returns the live session for the context, creating one through
// selection if none exists or the recorded one has gone stale. The second
// result reports whether a session was created by this call.
func (m *Manager) EnsureExists(ctx Context) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(ctx, nil)
}

// EnsureExistsWith is EnsureExists with a caller-supplied creator invoked
// when no live session is found.
func (m *Manager) EnsureExistsWith(ctx Context, creator func(Context) (*Session, error)) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(ctx, creator)
}

func (m *Manager) ensureLocked(ctx Context, creator func(Context) (*Session, error)) (*Session, bool, error) {
	key := m.memory.Key(ctx)

	// Liveness is re-validated lazily, at the moment of use: the host is
	// asked whether the recorded surface still resolves to an open one.
	if s, ok := m.memory.Get(key); ok && m.host.SurfaceName(s.Surface) != "" {
		return s, false, nil
	}

	if creator == nil {
		creator = m.defaultCreate
	}
	s, err := creator(ctx)
	if err != nil {
		return nil, false, err
	}
	m.memory.Set(key, s)
	return s, true, nil
}

func (m *Manager) defaultCreate(ctx Context) (*Session, error) {
	ld, err := m.selectLocked(ctx)
	if err != nil {
		m.report(ctx, err)
		return nil, err
	}
	return m.createLocked(ctx, ld, CreateOptions{OpenNewWindow: true})
}

// CreateOptions controls where a new session's surface ends up.
type CreateOptions struct {
	// OpenNewWindow opens a fresh window through the configured open
	// directive (or the installed open-window function).
	OpenNewWindow bool
	// ReuseWindow binds the surface into this window instead. When empty,
	// the window of the context's previous (possibly stale) session entry is
	// reused.
	ReuseWindow string
}

// CreateNew launches a session for the context from the given definition and
// records it. The previously active window gets input focus back shortly
// after creation; creation never keeps the user's editing focus.
func (m *Manager) CreateNew(ctx Context, ld Labeled, opts CreateOptions) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(ctx, ld, opts)
}

func (m *Manager) createLocked(ctx Context, ld Labeled, opts CreateOptions) (*Session, error) {
	prevWin := m.host.ActiveWindow()

	surface, err := m.host.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("failed to create session surface: %w", err)
	}

	var win string
	if opts.OpenNewWindow {
		if m.openWindowFn != nil {
			win, err = m.openWindowFn(surface)
		} else {
			win, err = m.host.OpenWindow(m.cfg.ReplOpenCmd, surface)
		}
		if err != nil {
			_ = m.host.WipeSurface(surface)
			return nil, fmt.Errorf("failed to open session window: %w", err)
		}
		if err := m.host.FixWindowWidth(win); err != nil {
			log.WarningLog.Printf("could not fix window width for %s: %v", win, err)
		}
	} else {
		win = opts.ReuseWindow
		if win == "" {
			if old, ok := m.memory.Get(m.memory.Key(ctx)); ok {
				win = old.Window
			}
		}
		if win != "" && m.host.IsWindowOpen(win) {
			if err := m.host.ShowSurface(surface, win); err != nil {
				log.WarningLog.Printf("could not show surface %s in window %s: %v", surface, win, err)
			}
		}
	}

	proc, err := m.runner.StartProcess(surface, ld.Definition.Command)
	if err != nil {
		_ = m.host.WipeSurface(surface)
		return nil, fmt.Errorf("failed to start %v: %w", ld.Definition.Command, err)
	}

	// Hand editing focus back once the host has settled. The window may be
	// gone by the time this fires; that is a no-op, not an error.
	m.host.Defer(focusRestoreDelay, func() {
		if prevWin != "" && m.host.IsWindowOpen(prevWin) {
			_ = m.host.FocusWindow(prevWin)
		}
	})

	s := &Session{
		ID:         uuid.NewString(),
		Context:    ctx,
		Label:      ld.Label,
		Surface:    surface,
		Process:    proc,
		Window:     win,
		Definition: ld.Definition,
	}
	m.memory.Set(m.memory.Key(ctx), s)
	log.InfoLog.Printf("created session %s (%s/%s) on surface %s", s.ID, ctx, ld.Label, surface)
	return s, nil
}

// Restart replaces the session associated with the active surface. If the
// active surface is itself a tracked session's surface, a replacement is
// created in the same window and the old surface is wiped without
// confirmation. Otherwise the active surface's own context is restarted and
// focus returns to the previously active window. Either way the replacement
// session is returned.
func (m *Manager) Restart(active string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old := m.sessionBySurface(active); old != nil {
		fresh, err := m.createLocked(old.Context, Labeled{Label: old.Label, Definition: old.Definition}, CreateOptions{
			ReuseWindow: m.host.WindowOf(active),
		})
		if err != nil {
			return nil, err
		}
		// Explicit user-accepted data loss: the old surface goes away
		// unconditionally.
		if err := m.host.WipeSurface(active); err != nil {
			log.WarningLog.Printf("could not wipe surface %s: %v", active, err)
		}
		return fresh, nil
	}

	ctx := Context(m.host.ContextOf(active))
	if ctx == "" {
		m.report(ctx, ErrNoContextDetected)
		return nil, ErrNoContextDetected
	}

	old, ok := m.memory.Get(m.memory.Key(ctx))
	if !ok || m.host.SurfaceName(old.Surface) == "" {
		m.report(ctx, ErrNoSessionToRestart)
		return nil, ErrNoSessionToRestart
	}

	prevWin := m.host.ActiveWindow()
	if err := m.host.WipeSurface(old.Surface); err != nil {
		log.WarningLog.Printf("could not wipe surface %s: %v", old.Surface, err)
	}
	fresh, _, err := m.ensureLocked(ctx, nil)
	if err != nil {
		return nil, err
	}
	if prevWin != "" && m.host.IsWindowOpen(prevWin) {
		_ = m.host.FocusWindow(prevWin)
	}
	return fresh, nil
}

func (m *Manager) sessionBySurface(surface string) *Session {
	if surface == "" {
		return nil
	}
	for _, s := range m.memory.Entries() {
		if s.Surface == surface {
			return s
		}
	}
	return nil
}

// Send routes a block of lines to the context's session. This is the only
// path that writes to a process input stream: the target is guaranteed live,
// the block is formatted by the session's definition, and the surface view is
// moved to its last line before the write so new output stays visible.
func (m *Manager) Send(ctx Context, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(lines) == 0 {
		return nil
	}

	s, _, err := m.ensureLocked(ctx, nil)
	if err != nil {
		return err
	}

	payload := FormatLines(s.Definition, lines)
	if len(payload) == 0 {
		return nil
	}

	if err := m.host.ScrollToEnd(s.Surface); err != nil {
		log.WarningLog.Printf("could not scroll surface %s: %v", s.Surface, err)
	}

	data := strings.Join(payload, "\n") + "\n"
	if err := m.runner.WriteInput(s.Process, []byte(data)); err != nil {
		return fmt.Errorf("failed to write to session %s: %w", s.ID, err)
	}
	return nil
}

// SendText splits a text block on line boundaries and sends it.
func (m *Manager) SendText(ctx Context, text string) error {
	if text == "" {
		return nil
	}
	return m.Send(ctx, SplitLines(text))
}

// SplitLines normalizes a text block to an ordered sequence of lines.
func SplitLines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// RecordRange overwrites the process-wide last-send-range slot.
func (m *Manager) RecordRange(r Range) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRange = &r
}

// LastRange returns the most recently recorded range, if any.
func (m *Manager) LastRange() (Range, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastRange == nil {
		return Range{}, false
	}
	return *m.lastRange, true
}

// report surfaces a non-fatal condition to the user. Nothing here aborts the
// host; the triggering operation just stops.
func (m *Manager) report(ctx Context, err error) {
	msg := "replmux: " + err.Error()
	if ctx != "" {
		msg = fmt.Sprintf("replmux: %s (context %q)", err.Error(), ctx)
	}
	log.WarningLog.Print(msg)
	m.host.Notify(msg)
}

// EnsureHere returns the live session for the context, creating one bound to
// the given window when none exists.
func (m *Manager) EnsureHere(ctx Context, window string) (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked(ctx, func(ctx Context) (*Session, error) {
		ld, err := m.selectLocked(ctx)
		if err != nil {
			m.report(ctx, err)
			return nil, err
		}
		return m.createLocked(ctx, ld, CreateOptions{ReuseWindow: window})
	})
}

// ShowSession brings an existing session's surface into view: focusing the
// window already holding it, or opening a fresh one through the configured
// open directive.
func (m *Manager) ShowSession(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if win := m.host.WindowOf(s.Surface); win != "" && m.host.IsWindowOpen(win) {
		s.Window = win
		return m.host.FocusWindow(win)
	}

	var win string
	var err error
	if m.openWindowFn != nil {
		win, err = m.openWindowFn(s.Surface)
	} else {
		win, err = m.host.OpenWindow(m.cfg.ReplOpenCmd, s.Surface)
	}
	if err != nil {
		return fmt.Errorf("failed to open session window: %w", err)
	}
	s.Window = win
	return m.host.FocusWindow(win)
}
