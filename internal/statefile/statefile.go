// Package statefile provides the durability primitives for hook state
// shared across invocations: an exclusive advisory file lock to
// serialize read-modify-write cycles, and temp-file-plus-rename
// replacement so a concurrent reader never observes a torn file.
//
// Locking is best-effort. Invocations hold the lock only for the
// milliseconds of one load/modify/replace cycle, so a blocking flock is
// acceptable; the rename remains the actual corruption safeguard.
package statefile

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock is a held advisory lock on a state file's sibling .lock file.
type Lock struct {
	f *os.File
}

// Acquire takes an exclusive advisory lock guarding path. The lock lives
// on path+".lock" so replacing the state file itself does not release it.
func Acquire(path string) (*Lock, error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("Acquire: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("Acquire: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("Acquire: flock: %w", err)
	}

	return &Lock{f: f}, nil
}

// Release drops the lock. The flock is also released automatically if
// the process exits while holding it.
func (l *Lock) Release() {
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	_ = l.f.Close()
}

// Replace atomically replaces the file at path with data by writing a
// temporary file in the same directory and renaming it into place.
func Replace(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("Replace: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("Replace: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("Replace: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("Replace: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("Replace: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("Replace: %w", err)
	}
	return nil
}
