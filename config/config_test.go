package config

import (
	"testing"

	"replmux/log"

	"github.com/stretchr/testify/require"
)

func init() {
	log.Initialize()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, VisibilityToggle, cfg.Visibility)
	require.Equal(t, ManagerContext, cfg.Manager)
	require.NotNil(t, cfg.Preferred)
	require.Empty(t, cfg.Preferred)
	require.Equal(t, "split-window -h", cfg.ReplOpenCmd)
}

func TestMergeNilReturnsDefaults(t *testing.T) {
	require.Equal(t, DefaultConfig(), Merge(nil))
}

func TestMergeOverlaysOntoDefaults(t *testing.T) {
	cfg := Merge(&Config{
		Visibility: VisibilityFocus,
		Preferred:  map[string]string{"python": "ipython"},
	})

	require.Equal(t, VisibilityFocus, cfg.Visibility)
	require.Equal(t, "ipython", cfg.Preferred["python"])
	// Unset fields come from the defaults.
	require.Equal(t, ManagerContext, cfg.Manager)
	require.Equal(t, "split-window -h", cfg.ReplOpenCmd)
}

func TestMergeDoesNotAccumulate(t *testing.T) {
	// A second partial merge must not inherit fields from a previous custom
	// configuration; it always rebuilds from defaults.
	first := Merge(&Config{Visibility: VisibilityFocus, Manager: ManagerScoped})
	require.Equal(t, ManagerScoped, first.Manager)

	second := Merge(&Config{Host: "local"})
	require.Equal(t, VisibilityToggle, second.Visibility)
	require.Equal(t, ManagerContext, second.Manager)
	require.Equal(t, "local", second.Host)
}

func TestMergeCopiesPreferredMap(t *testing.T) {
	overrides := &Config{Preferred: map[string]string{"lua": "luajit"}}
	cfg := Merge(overrides)

	overrides.Preferred["lua"] = "changed"
	require.Equal(t, "luajit", cfg.Preferred["lua"])
}
