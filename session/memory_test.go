package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMemoryKeying(t *testing.T) {
	m := NewContextMemory()
	assert.Equal(t, "python", m.Key("python"))

	s := &Session{ID: "1", Context: "python"}
	m.Set(m.Key("python"), s)

	got, ok := m.Get("python")
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("r")
	assert.False(t, ok)
}

func TestScopedMemoryKeying(t *testing.T) {
	scope := "/repo/a"
	m := NewScopedMemory(func() string { return scope })

	m.Set(m.Key("python"), &Session{ID: "a"})
	scope = "/repo/b"
	m.Set(m.Key("python"), &Session{ID: "b"})

	// One session per (context, scope): both coexist.
	scope = "/repo/a"
	got, ok := m.Get(m.Key("python"))
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)

	scope = "/repo/b"
	got, ok = m.Get(m.Key("python"))
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)

	assert.Len(t, m.Entries(), 2)
}

func TestSetOverwrites(t *testing.T) {
	m := NewContextMemory()
	m.Set("python", &Session{ID: "old"})
	m.Set("python", &Session{ID: "new"})

	got, ok := m.Get("python")
	require.True(t, ok)
	assert.Equal(t, "new", got.ID)
	assert.Len(t, m.Entries(), 1)
}

func TestEntriesIsASnapshot(t *testing.T) {
	m := NewContextMemory()
	m.Set("python", &Session{ID: "1"})

	entries := m.Entries()
	delete(entries, "python")

	_, ok := m.Get("python")
	assert.True(t, ok)
}

func TestNewMemoryStrategies(t *testing.T) {
	assert.IsType(t, &ContextMemory{}, NewMemory("context"))
	assert.IsType(t, &ScopedMemory{}, NewMemory("scoped"))
	assert.IsType(t, &ContextMemory{}, NewMemory(""))
}
