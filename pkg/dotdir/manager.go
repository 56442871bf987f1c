// Package dotdir manages the .recollect/ and ~/.recollect directories.
//
// The dot directory holds the config.toml as well as the payloads/ directory
// used for durable failure artifacts.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the recollect directory.
	dirName = ".recollect"

	// payloadsDirName is the subdirectory holding payload and failure artifacts.
	payloadsDirName = "payloads"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .recollect/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.recollect/ dir
//  3. Home ~/.recollect/ dir
//  4. If none found, attempt to create ~/.recollect/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating recollect directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// PayloadsDir resolves (and creates if needed) the payloads/ subdirectory
// under the target .recollect/ directory.
func (m *Manager) PayloadsDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, payloadsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating payloads directory %s: %w", dir, err)
	}

	return dir, nil
}

// localDirExists checks whether a .recollect/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
