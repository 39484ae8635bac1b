package session

import "replmux/config"

// View is the visibility state the policy acts on. The manager supplies a
// View bound to a concrete surface; policies never talk to the host directly.
type View interface {
	// Visible reports whether the surface is currently displayed and focused.
	Visible() bool
	// Hide removes the surface from view.
	Hide() error
}

// Visibility decides how a session's surface is shown, hidden or focused.
// show is a deferred action performing the actual display attachment.
type Visibility interface {
	Apply(v View, show func() error) error
}

// ToggleVisibility hides a visible surface and shows a hidden one. Repeated
// identical calls are symmetric as long as surface state is not changed
// externally in between.
type ToggleVisibility struct{}

func (ToggleVisibility) Apply(v View, show func() error) error {
	if v.Visible() {
		return v.Hide()
	}
	return show()
}

// FocusVisibility unconditionally brings the surface into view with input
// focus, regardless of prior visibility.
type FocusVisibility struct{}

func (FocusVisibility) Apply(v View, show func() error) error {
	return show()
}

// NewVisibility returns the shipped policy for a configuration name,
// defaulting to toggle.
func NewVisibility(name string) Visibility {
	switch name {
	case config.VisibilityFocus:
		return FocusVisibility{}
	default:
		return ToggleVisibility{}
	}
}
