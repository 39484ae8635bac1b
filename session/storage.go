package session

import (
	"encoding/json"
	"sort"

	"replmux/config"
	"replmux/log"
)

// SessionData is the serializable form of a session registry entry. The
// derived memory key is persisted alongside the session so re-adoption does
// not depend on the ambient scope of a later invocation.
type SessionData struct {
	Key     string `json:"key"`
	ID      string `json:"id"`
	Context string `json:"context"`
	Label   string `json:"label"`
	Surface string `json:"surface"`
	Process string `json:"process"`
	Window  string `json:"window"`
}

// Storage persists the session registry through the state interface. On
// hosts like tmux the sessions themselves outlive the library process, so a
// later invocation can re-adopt them instead of spawning duplicates.
type Storage struct {
	state config.SessionStorage
}

func NewStorage(state config.SessionStorage) *Storage {
	return &Storage{state: state}
}

// SaveSessions snapshots the manager's registry to disk.
func (st *Storage) SaveSessions(m *Manager) error {
	entries := m.Entries()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := make([]SessionData, 0, len(entries))
	for _, k := range keys {
		s := entries[k]
		data = append(data, SessionData{
			Key:     k,
			ID:      s.ID,
			Context: string(s.Context),
			Label:   s.Label,
			Surface: s.Surface,
			Process: s.Process,
			Window:  s.Window,
		})
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return log.Every("failed to marshal sessions: %w", err)
	}
	return st.state.SaveSessions(jsonData)
}

// LoadSessions re-adopts persisted sessions into the manager. Entries whose
// surface no longer resolves, or whose definition label is gone from the
// catalog, are filtered out; the cleaned registry is saved back to disk when
// anything was dropped.
func (st *Storage) LoadSessions(m *Manager, host Host) error {
	jsonData := st.state.GetSessions()

	var data []SessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return log.Every("failed to unmarshal sessions: %w", err)
	}

	skipped := 0
	for _, d := range data {
		if host.SurfaceName(d.Surface) == "" {
			log.InfoLog.Printf("dropping stale session %q: surface %s is closed", d.ID, d.Surface)
			skipped++
			continue
		}
		def, ok := m.Catalog().Lookup(Context(d.Context), d.Label)
		if !ok {
			log.WarningLog.Printf("dropping session %q: definition %s/%s no longer registered", d.ID, d.Context, d.Label)
			skipped++
			continue
		}
		m.Adopt(d.Key, &Session{
			ID:         d.ID,
			Context:    Context(d.Context),
			Label:      d.Label,
			Surface:    d.Surface,
			Process:    d.Process,
			Window:     d.Window,
			Definition: def,
		})
	}

	if skipped > 0 {
		if err := st.SaveSessions(m); err != nil {
			log.WarningLog.Printf("failed to save cleaned session state: %v", err)
		}
	}
	return nil
}
