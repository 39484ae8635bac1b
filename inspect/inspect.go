// Package inspect provides structured introspection of replmux state for
// debugging and automated tooling. It lets external tools understand session
// state without a display attached: what is registered, what is running and
// where it lives on the host.
package inspect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"replmux/config"
	"replmux/session"
)

var (
	enabled     bool
	enabledOnce sync.Once
	inspectFile string
)

// IsEnabled returns true if inspection mode is active.
func IsEnabled() bool {
	enabledOnce.Do(func() {
		enabled = os.Getenv("REPLMUX_INSPECT") == "1"
		if enabled {
			inspectFile = filepath.Join(os.TempDir(), "replmux-inspect.json")
		}
	})
	return enabled
}

// File returns the path of the inspection output file.
func File() string {
	if !IsEnabled() {
		return ""
	}
	return inspectFile
}

// Snapshot is a point-in-time view of replmux state.
type Snapshot struct {
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Host      HostInfo      `json:"host"`
	Config    ConfigInfo    `json:"config"`
	Contexts  []ContextInfo `json:"contexts"`
	Sessions  []SessionInfo `json:"sessions"`
}

// HostInfo identifies the host backend in use.
type HostInfo struct {
	Kind string `json:"kind"`
}

// ConfigInfo is the resolved configuration, minus the preference map which is
// already reflected in selection results.
type ConfigInfo struct {
	Visibility  string `json:"visibility"`
	Manager     string `json:"manager"`
	ReplOpenCmd string `json:"repl_open_cmd"`
}

// ContextInfo lists the repls registered for one context.
type ContextInfo struct {
	Context string     `json:"context"`
	Repls   []ReplInfo `json:"repls"`
}

// ReplInfo describes one registered launch definition.
type ReplInfo struct {
	Label     string   `json:"label"`
	Command   []string `json:"command"`
	Available bool     `json:"available"`
}

// SessionInfo describes one registry entry, live or stale.
type SessionInfo struct {
	Key     string `json:"key"`
	ID      string `json:"id"`
	Context string `json:"context"`
	Label   string `json:"label"`
	Surface string `json:"surface"`
	Window  string `json:"window,omitempty"`
	Live    bool   `json:"live"`
}

// Capture builds a snapshot of the manager's state over the given backend.
func Capture(version string, kind session.HostKind, m *session.Manager, backend session.Backend, cfg *config.Config) *Snapshot {
	snap := &Snapshot{
		Timestamp: time.Now(),
		Version:   version,
		Host:      HostInfo{Kind: string(kind)},
		Config: ConfigInfo{
			Visibility:  cfg.Visibility,
			Manager:     cfg.Manager,
			ReplOpenCmd: cfg.ReplOpenCmd,
		},
	}

	for _, ctx := range m.Catalog().Contexts() {
		defs, err := m.Catalog().Definitions(ctx)
		if err != nil {
			continue
		}
		ci := ContextInfo{Context: string(ctx)}
		for _, ld := range defs {
			available := len(ld.Definition.Command) > 0 && backend.LookPath(ld.Definition.Command[0])
			ci.Repls = append(ci.Repls, ReplInfo{
				Label:     ld.Label,
				Command:   ld.Definition.Command,
				Available: available,
			})
		}
		snap.Contexts = append(snap.Contexts, ci)
	}

	entries := m.Entries()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := entries[k]
		snap.Sessions = append(snap.Sessions, SessionInfo{
			Key:     k,
			ID:      s.ID,
			Context: string(s.Context),
			Label:   s.Label,
			Surface: s.Surface,
			Window:  s.Window,
			Live:    backend.SurfaceName(s.Surface) != "",
		})
	}
	return snap
}

// Write writes the snapshot to the inspection file when inspection mode is
// active.
func Write(snap *Snapshot) error {
	if !IsEnabled() {
		return nil
	}
	return WriteTo(snap, inspectFile)
}

// WriteTo writes the snapshot as JSON to a specific path.
func WriteTo(snap *Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// FormatText renders the snapshot as stable, human-readable text. The
// timestamp is deliberately left out so output is comparable across runs.
func FormatText(snap *Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "host: %s\n", snap.Host.Kind)
	fmt.Fprintf(&b, "visibility: %s\n", snap.Config.Visibility)
	fmt.Fprintf(&b, "manager: %s\n", snap.Config.Manager)
	fmt.Fprintf(&b, "open cmd: %s\n", snap.Config.ReplOpenCmd)

	fmt.Fprintf(&b, "contexts: %d\n", len(snap.Contexts))
	for _, c := range snap.Contexts {
		for _, r := range c.Repls {
			status := "missing"
			if r.Available {
				status = "available"
			}
			fmt.Fprintf(&b, "  %s/%s: %s [%s]\n", c.Context, r.Label,
				strings.Join(r.Command, " "), status)
		}
	}

	fmt.Fprintf(&b, "sessions: %d\n", len(snap.Sessions))
	for _, s := range snap.Sessions {
		state := "closed"
		if s.Live {
			state = "live"
		}
		fmt.Fprintf(&b, "  %s/%s on %s (%s)\n", s.Context, s.Label, s.Surface, state)
	}
	return b.String()
}
