package session

// Session is a live pairing of a display surface, a running external process
// and the definition that created it. It is the only owner of the process
// handle; nothing else writes to a process directly.
type Session struct {
	// ID uniquely identifies the session across invocations.
	ID string
	// Context is the context key the session was created for.
	Context Context
	// Label is the catalog label of the definition in use.
	Label string
	// Surface is the host display-surface handle. An empty surface name
	// reported by the host means the surface has been closed.
	Surface string
	// Process is the host process/stream handle.
	Process string
	// Window is the display container currently holding the surface, if any.
	Window string
	// Definition is the launch definition the session was created from.
	Definition Definition
}
