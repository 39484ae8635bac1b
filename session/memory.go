package session

import (
	"os"
	"sync"

	"github.com/go-git/go-git/v5"

	"replmux/log"
)

// Memory is the key→session mapping the manager consults. Key derivation is
// strategy-supplied; the store itself never assumes a key's internal shape.
// At most one live session is recorded per derived key.
type Memory interface {
	// Key derives the lookup key for a context under this strategy.
	Key(ctx Context) string
	// Get returns the session recorded under key, if any. No side effects.
	Get(key string) (*Session, bool)
	// Set records the session under key, unconditionally overwriting any
	// previous entry. The caller decides whether overwriting is correct.
	Set(key string, s *Session)
	// Entries returns a copy of the full key→session mapping, for reverse
	// lookups and persistence snapshots.
	Entries() map[string]*Session
}

// store is the shared map backing both keying strategies.
type store struct {
	mu sync.Mutex
	m  map[string]*Session
}

func newStore() *store {
	return &store{m: make(map[string]*Session)}
}

func (s *store) Get(key string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[key]
	return sess, ok
}

func (s *store) Set(key string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = sess
}

func (s *store) Entries() map[string]*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Session, len(s.m))
	for k, sess := range s.m {
		out[k] = sess
	}
	return out
}

// ContextMemory keys sessions by the raw context identifier: one session per
// context globally.
type ContextMemory struct {
	*store
}

func NewContextMemory() *ContextMemory {
	return &ContextMemory{store: newStore()}
}

func (m *ContextMemory) Key(ctx Context) string {
	return string(ctx)
}

// ScopedMemory keys sessions by (context, scope), allowing one session per
// context per scope. The scope function supplies the ambient scope value at
// derivation time; nil means RepoScope.
type ScopedMemory struct {
	*store
	scope func() string
}

func NewScopedMemory(scope func() string) *ScopedMemory {
	if scope == nil {
		scope = RepoScope
	}
	return &ScopedMemory{store: newStore(), scope: scope}
}

func (m *ScopedMemory) Key(ctx Context) string {
	return string(ctx) + "\x00" + m.scope()
}

// RepoScope returns the ambient scope for the scoped keying strategy: the
// root of the enclosing git repository when the working directory is inside
// one, so every buffer in a repo shares a session per context. Outside a
// repository the working directory itself is the scope.
func RepoScope() string {
	wd, err := os.Getwd()
	if err != nil {
		log.WarningLog.Printf("could not resolve working directory: %v", err)
		return ""
	}

	repo, err := git.PlainOpenWithOptions(wd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return wd
	}
	tree, err := repo.Worktree()
	if err != nil {
		return wd
	}
	return tree.Filesystem.Root()
}
