package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memState is an in-memory config.SessionStorage.
type memState struct {
	data  json.RawMessage
	saves int
}

func newMemState() *memState {
	return &memState{data: json.RawMessage("[]")}
}

func (s *memState) SaveSessions(sessionsJSON json.RawMessage) error {
	s.data = sessionsJSON
	s.saves++
	return nil
}

func (s *memState) GetSessions() json.RawMessage { return s.data }

func (s *memState) DeleteAllSessions() error {
	s.data = json.RawMessage("[]")
	return nil
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := newFakeBackend()
	b.available["python3"] = true
	m := newTestManager(t, b, nil)
	st := NewStorage(newMemState())

	s, _, err := m.EnsureExists("python")
	require.NoError(t, err)
	require.NoError(t, st.SaveSessions(m))

	// A fresh manager over the same host re-adopts the session.
	m2 := newTestManager(t, b, nil)
	require.NoError(t, st.LoadSessions(m2, b))

	got, created, err := m2.EnsureExists("python")
	require.NoError(t, err)
	assert.False(t, created, "adopted session must satisfy ensure")
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Surface, got.Surface)
	assert.Equal(t, s.Process, got.Process)
	assert.Equal(t, []string{"python3"}, got.Definition.Command)
}

func TestLoadDropsClosedSurfaces(t *testing.T) {
	b := newFakeBackend()
	b.available["python3"] = true
	m := newTestManager(t, b, nil)
	state := newMemState()
	st := NewStorage(state)

	s, _, err := m.EnsureExists("python")
	require.NoError(t, err)
	require.NoError(t, st.SaveSessions(m))
	savesBefore := state.saves

	b.closeSurface(s.Surface)

	m2 := newTestManager(t, b, nil)
	require.NoError(t, st.LoadSessions(m2, b))
	assert.Empty(t, m2.Sessions())
	assert.Greater(t, state.saves, savesBefore, "cleaned registry is written back")
}

func TestLoadDropsUnregisteredDefinitions(t *testing.T) {
	b := newFakeBackend()
	b.available["python3"] = true
	m := newTestManager(t, b, nil)
	st := NewStorage(newMemState())

	_, _, err := m.EnsureExists("python")
	require.NoError(t, err)
	require.NoError(t, st.SaveSessions(m))

	// The next invocation never registered a python catalog.
	m2 := NewManagerWithDeps(nil, NewCatalog(), NewContextMemory(), ToggleVisibility{}, b, b)
	require.NoError(t, st.LoadSessions(m2, b))
	assert.Empty(t, m2.Sessions())
}

func TestLoadRejectsMalformedData(t *testing.T) {
	b := newFakeBackend()
	m := newTestManager(t, b, nil)
	state := newMemState()
	state.data = json.RawMessage("{not json")

	err := NewStorage(state).LoadSessions(m, b)
	assert.Error(t, err)
}
