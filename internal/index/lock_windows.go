//go:build windows

// Package index serializes index rebuilds across canon processes.
package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const lockFile = "index.lock"

// ErrLocked is returned when another process is rebuilding the index.
var ErrLocked = errors.New("index is being rebuilt by another canon process")

// Lock is an exclusive lock on the state directory's index. On Windows it
// relies on O_EXCL creation of the lock file.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the rebuild lock in stateDir without blocking.
func AcquireLock(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	path := filepath.Join(stateDir, lockFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			if pid := HolderPID(stateDir); pid > 0 {
				return nil, fmt.Errorf("%w (PID %d)", ErrLocked, pid)
			}
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// Release drops the lock and removes the lock file. Safe on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}

// HolderPID returns the PID recorded in stateDir's lock file, or 0.
func HolderPID(stateDir string) int {
	content, err := os.ReadFile(filepath.Join(stateDir, lockFile))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0
	}
	return pid
}
