package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	currentFile = "current.json"
)

// CurrentState represents the persisted current-session state: the session
// CLI commands operate on when no id is given.
type CurrentState struct {
	// SessionID is the id of the current session.
	SessionID string `json:"session_id"`

	// SetAt is when the session was made current.
	SetAt time.Time `json:"set_at"`
}

// LoadCurrentState loads the current-session state from a target .trail/current.json.
// Returns nil, nil if no state exists.
// If overrideDir is non-empty, it is used instead of the default .trail/ location.
func (m *Manager) LoadCurrentState(overrideDir string) (*CurrentState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	path := filepath.Join(dir, currentFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading current session state: %w", err)
	}

	state := &CurrentState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing current session state: %w", err)
	}

	return state, nil
}

// SaveCurrent persists the current-session state to a target .trail/current.json.
func (m *Manager) SaveCurrent(state *CurrentState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil current session state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return errors.New("no .trail directory resolved")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling current session state: %w", err)
	}

	path := filepath.Join(dir, currentFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing current session state: %w", err)
	}

	return nil
}

// ClearCurrent removes the current-session state file.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearCurrent(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}

	path := filepath.Join(dir, currentFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing current session state: %w", err)
	}

	return nil
}
