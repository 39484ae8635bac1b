//go:build windows

package config

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// Lock acquires an exclusive lock. Blocks until the lock is available.
func (l *FileLock) Lock() error {
	return l.lockFile(windows.LOCKFILE_EXCLUSIVE_LOCK, os.O_CREATE|os.O_RDWR)
}

// RLock acquires a shared lock. Multiple processes may hold a shared lock
// simultaneously. Blocks until the lock is available.
func (l *FileLock) RLock() error {
	return l.lockFile(0, os.O_CREATE|os.O_RDONLY)
}

func (l *FileLock) lockFile(flags uint32, openFlags int) error {
	if l.file != nil {
		return fmt.Errorf("lock already held")
	}

	f, err := os.OpenFile(l.path, openFlags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}

	// Lock the first byte; all lockers use the same range.
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, ol); err != nil {
		f.Close()
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	l.file = f
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	ol := new(windows.Overlapped)
	if err := windows.UnlockFileEx(windows.Handle(l.file.Fd()), 0, 1, 0, ol); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close lock file: %w", err)
	}

	l.file = nil
	return nil
}
