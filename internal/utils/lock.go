package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// FileLock serializes writers of one file across versemark processes.
type FileLock struct {
	lock *flock.Flock
	path string
}

// NewFileLock creates a lock guarding path. The lock lives next to it.
func NewFileLock(path string) (*FileLock, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &FileLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *FileLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another versemark process is writing %s, waiting for it to finish...\n", l.path)
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the lock.
func (l *FileLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// DefaultDataDir is where versemark keeps its database when none is configured.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "versemark"), nil
}

// GetAbsDBPath resolves the database path, defaulting to the data dir.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "versemark.sqlite"), nil
	}
	return filepath.Abs(dbPath)
}
