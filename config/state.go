package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"replmux/log"
)

const StateFileName = "state.json"

// SessionStorage handles persistence of the session registry. Sessions on
// the tmux host outlive the library process, so the registry is written to
// disk and re-adopted by the next invocation.
type SessionStorage interface {
	// SaveSessions saves the raw session registry data
	SaveSessions(sessionsJSON json.RawMessage) error
	// GetSessions returns the raw session registry data
	GetSessions() json.RawMessage
	// DeleteAllSessions removes all stored sessions
	DeleteAllSessions() error
}

// State represents the application state that persists between invocations
type State struct {
	// SessionsData stores the serialized session registry as raw JSON
	SessionsData json.RawMessage `json:"sessions"`

	// lastModTime tracks when we last read the state file (not serialized)
	lastModTime time.Time `json:"-"`
}

// DefaultState returns the default state
func DefaultState() *State {
	return &State{
		SessionsData: json.RawMessage("[]"),
	}
}

// LoadState loads the state from disk. If it cannot be done, we return the
// default state. Acquires a shared lock to allow concurrent reads.
func LoadState() *State {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultState()
	}

	statePath := filepath.Join(configDir, StateFileName)

	lock := NewFileLock(statePath)
	if err := lock.RLock(); err != nil {
		log.WarningLog.Printf("failed to acquire read lock: %v", err)
		// Continue without lock - better to have stale data than fail
	} else {
		defer lock.Unlock()
	}

	var modTime time.Time
	if info, err := os.Stat(statePath); err == nil {
		modTime = info.ModTime()
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			defaultState := DefaultState()
			defaultState.lastModTime = time.Now()
			if saveErr := SaveState(defaultState); saveErr != nil {
				log.WarningLog.Printf("failed to save default state: %v", saveErr)
			}
			return defaultState
		}

		log.WarningLog.Printf("failed to get state file: %v", err)
		return DefaultState()
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.ErrorLog.Printf("failed to parse state file: %v", err)
		return DefaultState()
	}

	if len(state.SessionsData) == 0 {
		state.SessionsData = json.RawMessage("[]")
	}
	state.lastModTime = modTime
	return &state
}

// SaveState saves the state to disk.
// Acquires an exclusive lock to prevent concurrent writes.
func SaveState(state *State) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	statePath := filepath.Join(configDir, StateFileName)

	lock := NewFileLock(statePath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(statePath, data, 0o644); err != nil {
		return err
	}

	if info, err := os.Stat(statePath); err == nil {
		state.lastModTime = info.ModTime()
	}

	return nil
}

// SessionStorage interface implementation

// SaveSessions saves the raw session registry data
func (s *State) SaveSessions(sessionsJSON json.RawMessage) error {
	s.SessionsData = sessionsJSON
	return SaveState(s)
}

// GetSessions returns the raw session registry data
func (s *State) GetSessions() json.RawMessage {
	return s.SessionsData
}

// DeleteAllSessions removes all stored sessions
func (s *State) DeleteAllSessions() error {
	s.SessionsData = json.RawMessage("[]")
	return SaveState(s)
}

// GetLastModTime returns the modification time when this state was last read
// from disk.
func (s *State) GetLastModTime() time.Time {
	return s.lastModTime
}

// NeedsRefresh checks if the state file has been modified since the given time.
func NeedsRefresh(since time.Time) bool {
	configDir, err := GetConfigDir()
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(configDir, StateFileName))
	if err != nil {
		return false
	}
	return info.ModTime().After(since)
}

// RefreshFromDisk reloads the state from disk if it has been modified.
// Returns true if the state was refreshed.
func (s *State) RefreshFromDisk() (bool, error) {
	if !NeedsRefresh(s.lastModTime) {
		return false, nil
	}
	fresh := LoadState()
	s.SessionsData = fresh.SessionsData
	s.lastModTime = fresh.lastModTime
	return true, nil
}
