package config

import (
	"os"
	"path/filepath"
)

const lockFileName = "state.lock"

// FileLock provides advisory file locking for cross-process synchronization
// of the state file. It locks a sibling lock file rather than the data file
// itself, so readers of the data file are never blocked mid-write.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock guarding the given path. The lock file is
// placed in the same directory as the path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		path: filepath.Join(filepath.Dir(path), lockFileName),
	}
}

// GetStateLock returns a FileLock for the default state file location.
func GetStateLock() (*FileLock, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	return NewFileLock(filepath.Join(configDir, StateFileName)), nil
}
