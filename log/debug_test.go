package log

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitDebugDisabledByDefault(t *testing.T) {
	os.Unsetenv("REPLMUX_DEBUG")
	Initialize()
	defer Close()

	require.False(t, DebugEnabled)
	require.NotNil(t, DebugLog)
	// Must not panic even when disabled.
	Debug("ignored %d", 1)
}

func TestInitDebugEnabled(t *testing.T) {
	t.Setenv("REPLMUX_DEBUG", "1")
	DebugEnabled = false
	Initialize()
	defer func() {
		Close()
		DebugEnabled = false
	}()

	require.True(t, DebugEnabled)
	require.NotNil(t, DebugLog)
	Debug("hello %s", "world")
}
