package session

import "errors"

// User-facing failure conditions. All of these are non-fatal: they are
// reported through the host's message surface and the triggering operation
// aborts without changing any session state.
var (
	// ErrUnknownContext means no launch definitions are registered for a
	// context.
	ErrUnknownContext = errors.New("no repls registered for context")
	// ErrNoReplAvailable means definitions exist for the context but none of
	// their executables resolve on the system, and no explicit preference
	// overrides selection.
	ErrNoReplAvailable = errors.New("no repl executable available for context")
	// ErrNoSessionToRestart means restart was requested for a context with no
	// live session.
	ErrNoSessionToRestart = errors.New("no session to restart")
	// ErrNoContextDetected means the current surface has no resolvable
	// context.
	ErrNoContextDetected = errors.New("no context detected for current surface")
)
