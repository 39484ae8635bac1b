package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceLifecycle(t *testing.T) {
	h := NewHost()

	surface, err := h.CreateSurface()
	require.NoError(t, err)
	assert.Equal(t, surface, h.SurfaceName(surface))
	assert.Empty(t, h.WindowOf(surface))

	win, err := h.OpenWindow("split-window -h", surface)
	require.NoError(t, err)
	assert.True(t, h.IsWindowOpen(win))
	assert.Equal(t, win, h.WindowOf(surface))

	require.NoError(t, h.HideSurface(surface))
	assert.Empty(t, h.WindowOf(surface))

	require.NoError(t, h.WipeSurface(surface))
	assert.Empty(t, h.SurfaceName(surface))
}

func TestFocusAndActiveSurface(t *testing.T) {
	h := NewHost()
	home := h.ActiveWindow()
	require.NotEmpty(t, home)

	surface, err := h.CreateSurface()
	require.NoError(t, err)
	win, err := h.OpenWindow("", surface)
	require.NoError(t, err)

	assert.Empty(t, h.ActiveSurface())
	require.NoError(t, h.FocusWindow(win))
	assert.Equal(t, surface, h.ActiveSurface())

	require.NoError(t, h.FocusWindow(home))
	assert.Empty(t, h.ActiveSurface())

	assert.Error(t, h.FocusWindow("win-999"))
}

func TestCloseWindowDetachesSurfaces(t *testing.T) {
	h := NewHost()
	surface, err := h.CreateSurface()
	require.NoError(t, err)
	win, err := h.OpenWindow("", surface)
	require.NoError(t, err)

	h.CloseWindow(win)
	assert.False(t, h.IsWindowOpen(win))
	assert.Empty(t, h.WindowOf(surface))
	// Surface survives its window.
	assert.Equal(t, surface, h.SurfaceName(surface))
}

func TestFeedSplitsLines(t *testing.T) {
	h := NewHost()
	surface, err := h.CreateSurface()
	require.NoError(t, err)

	h.feed(surface, ">>> 1 +")
	h.feed(surface, " 1\r\n2\r\n>>> ")

	lines, err := h.Lines(surface, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{">>> 1 + 1", "2"}, lines)

	// The unterminated prompt stays pending until its newline arrives.
	h.feed(surface, "exit()\n")
	lines, err = h.Lines(surface, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{">>> exit()"}, lines)
}

func TestLinesClamped(t *testing.T) {
	h := NewHost()
	surface, err := h.CreateSurface()
	require.NoError(t, err)
	require.NoError(t, h.AppendLines(surface, "a", "b", "c"))

	lines, err := h.Lines(surface, 0, 99)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lines)

	line, err := h.Line(surface, 2)
	require.NoError(t, err)
	assert.Equal(t, "b", line)

	lines, err = h.Lines(surface, 5, 9)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCursorDefaultsToEnd(t *testing.T) {
	h := NewHost()
	surface, err := h.CreateSurface()
	require.NoError(t, err)

	line, col, err := h.Cursor(surface)
	require.NoError(t, err)
	assert.Equal(t, 1, line)
	assert.Equal(t, 0, col)

	require.NoError(t, h.AppendLines(surface, "a", "b"))
	line, _, err = h.Cursor(surface)
	require.NoError(t, err)
	assert.Equal(t, 2, line)

	require.NoError(t, h.SetCursor(surface, 1, 3))
	line, col, err = h.Cursor(surface)
	require.NoError(t, err)
	assert.Equal(t, 1, line)
	assert.Equal(t, 3, col)
}

func TestMarks(t *testing.T) {
	h := NewHost()
	surface, err := h.CreateSurface()
	require.NoError(t, err)

	_, _, ok := h.Mark(surface, "m")
	assert.False(t, ok)

	h.SetMark(surface, "m", 4, 2)
	line, col, ok := h.Mark(surface, "m")
	require.True(t, ok)
	assert.Equal(t, 4, line)
	assert.Equal(t, 2, col)

	h.DeleteMark(surface, "m")
	_, _, ok = h.Mark(surface, "m")
	assert.False(t, ok)
}

func TestContextTagging(t *testing.T) {
	h := NewHost()
	surface, err := h.CreateSurface()
	require.NoError(t, err)

	assert.Empty(t, h.ContextOf(surface))
	require.NoError(t, h.SetContext(surface, "python"))
	assert.Equal(t, "python", h.ContextOf(surface))
}

func TestNoticesDrain(t *testing.T) {
	h := NewHost()
	h.Notify("first")
	h.Notify("second")
	assert.Equal(t, []string{"first", "second"}, h.Notices())
	assert.Empty(t, h.Notices())
}

func TestStartProcessRejectsEmptyArgv(t *testing.T) {
	h := NewHost()
	surface, err := h.CreateSurface()
	require.NoError(t, err)
	_, err = h.StartProcess(surface, nil)
	assert.Error(t, err)
}

func TestWriteInputWithoutProcess(t *testing.T) {
	h := NewHost()
	surface, err := h.CreateSurface()
	require.NoError(t, err)
	assert.Error(t, h.WriteInput(surface, []byte("1+1\n")))
}
