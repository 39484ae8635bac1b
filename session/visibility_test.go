package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	visible bool
	hideErr error
}

func (v *fakeView) Visible() bool { return v.visible }

func (v *fakeView) Hide() error {
	if v.hideErr != nil {
		return v.hideErr
	}
	v.visible = false
	return nil
}

func TestToggleVisibilitySymmetry(t *testing.T) {
	v := &fakeView{}
	show := func() error {
		v.visible = true
		return nil
	}

	p := ToggleVisibility{}
	require.NoError(t, p.Apply(v, show))
	assert.True(t, v.visible)
	require.NoError(t, p.Apply(v, show))
	assert.False(t, v.visible)
	require.NoError(t, p.Apply(v, show))
	assert.True(t, v.visible)
}

func TestToggleVisibilityHideError(t *testing.T) {
	boom := errors.New("boom")
	v := &fakeView{visible: true, hideErr: boom}
	err := ToggleVisibility{}.Apply(v, func() error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestFocusVisibilityAlwaysShows(t *testing.T) {
	v := &fakeView{visible: true}
	shown := 0
	show := func() error {
		shown++
		return nil
	}

	p := FocusVisibility{}
	require.NoError(t, p.Apply(v, show))
	require.NoError(t, p.Apply(v, show))
	assert.Equal(t, 2, shown)
	assert.True(t, v.visible)
}

func TestNewVisibility(t *testing.T) {
	assert.IsType(t, ToggleVisibility{}, NewVisibility("toggle"))
	assert.IsType(t, FocusVisibility{}, NewVisibility("focus"))
	assert.IsType(t, ToggleVisibility{}, NewVisibility(""))
}
