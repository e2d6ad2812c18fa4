// Package dotdir manages the .trail/ and ~/.trail directories.
//
// The current-session state marks the session a user is actively working in,
// so CLI commands can default to it instead of requiring an id every time.
// The state is persisted as a JSON file in the resolved .trail/ directory.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the trail directory.
	dirName = ".trail"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .trail/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.trail/ dir
//  3. Home ~/.trail/ dir, if it exists
//
// Returns an empty string when nothing resolves; callers fall back to
// defaults.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating trail directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if m.localDirExists() {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return filepath.Abs(filepath.Join(cwd, dirName))
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	dir := filepath.Join(home, dirName)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", nil
	}

	return filepath.Abs(dir)
}

// localDirExists checks whether a .trail/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
