//go:build !windows

// Package index serializes index rebuilds across canon processes.
package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const lockFile = "index.lock"

// ErrLocked is returned when another process is rebuilding the index.
var ErrLocked = errors.New("index is being rebuilt by another canon process")

// Lock is an exclusive advisory lock on the state directory's index.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the rebuild lock in stateDir without blocking.
// The holder's PID is written into the lock file for diagnostics.
func AcquireLock(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	path := filepath.Join(stateDir, lockFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if pid := HolderPID(stateDir); pid > 0 {
			return nil, fmt.Errorf("%w (PID %d)", ErrLocked, pid)
		}
		return nil, ErrLocked
	}

	l := &Lock{path: path, file: file}
	if err := l.writePID(); err != nil {
		l.unlock()
		return nil, err
	}
	return l, nil
}

func (l *Lock) writePID() error {
	if err := l.file.Truncate(0); err != nil {
		return fmt.Errorf("truncating lock file: %w", err)
	}
	if _, err := l.file.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		return fmt.Errorf("writing PID to lock file: %w", err)
	}
	return nil
}

func (l *Lock) unlock() {
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
}

// Release drops the lock and removes the lock file. Safe on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	l.unlock()
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
