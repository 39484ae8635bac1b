package inspect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replmux/config"
	"replmux/session"
	"replmux/session/local"
	"replmux/testing/golden"
)

// captureFixture builds a manager over the headless host with one live and
// one stale session. Command names are chosen to never resolve on a real
// system so availability output is stable.
func captureFixture(t *testing.T) *Snapshot {
	t.Helper()

	h := local.NewHost()
	catalog := session.NewCatalog()
	catalog.Register("python", "fakepy", session.Definition{Command: []string{"replmux-fake-python", "-q"}})
	catalog.Register("python", "fakealt", session.Definition{Command: []string{"replmux-fake-alt"}})
	catalog.Register("r", "faker", session.Definition{Command: []string{"replmux-fake-r"}})

	cfg := config.DefaultConfig()
	m := session.NewManagerWithDeps(cfg, catalog, session.NewContextMemory(), session.ToggleVisibility{}, h, h)

	surface, err := h.CreateSurface()
	require.NoError(t, err)
	m.Adopt("python", &session.Session{
		ID: "s1", Context: "python", Label: "fakepy", Surface: surface,
	})
	m.Adopt("r", &session.Session{
		ID: "s2", Context: "r", Label: "faker", Surface: "surf-99",
	})

	return Capture("test", session.HostLocal, m, h, cfg)
}

func TestCapture(t *testing.T) {
	snap := captureFixture(t)

	assert.Equal(t, "local", snap.Host.Kind)
	assert.Equal(t, "toggle", snap.Config.Visibility)

	require.Len(t, snap.Contexts, 2)
	assert.Equal(t, "python", snap.Contexts[0].Context)
	require.Len(t, snap.Contexts[0].Repls, 2)
	assert.Equal(t, "fakepy", snap.Contexts[0].Repls[0].Label)
	assert.False(t, snap.Contexts[0].Repls[0].Available)

	require.Len(t, snap.Sessions, 2)
	assert.True(t, snap.Sessions[0].Live)
	assert.False(t, snap.Sessions[1].Live, "unknown surface reads as closed")
}

func TestFormatText(t *testing.T) {
	snap := captureFixture(t)
	golden.Assert(t, "snapshot", FormatText(snap))
}

func TestWriteTo(t *testing.T) {
	snap := captureFixture(t)
	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, WriteTo(snap, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Snapshot
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, snap.Host, got.Host)
	assert.Equal(t, snap.Sessions, got.Sessions)
}
