//go:build !windows

package index

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireLock_RecordsHolder(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".canon")

	lock, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	if got := HolderPID(stateDir); got != os.Getpid() {
		t.Errorf("HolderPID() = %d, want %d", got, os.Getpid())
	}

	lock.Release()
	if _, err := os.Stat(filepath.Join(stateDir, lockFile)); !os.IsNotExist(err) {
		t.Error("lock file should be removed after release")
	}
	if got := HolderPID(stateDir); got != 0 {
		t.Errorf("HolderPID() after release = %d, want 0", got)
	}
}

func TestAcquireLock_Contended(t *testing.T) {
	stateDir := t.TempDir()

	first, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("first AcquireLock() error = %v", err)
	}
	defer first.Release()

	second, err := AcquireLock(stateDir)
	if err == nil {
		second.Release()
		t.Fatal("second AcquireLock() should fail while the first is held")
	}
	if !errors.Is(err, ErrLocked) {
		t.Errorf("error = %v, want ErrLocked", err)
	}
	if !strings.Contains(err.Error(), "PID") {
		t.Errorf("error %q should name the holder PID", err)
	}
}

func TestAcquireLock_AfterRelease(t *testing.T) {
	stateDir := t.TempDir()

	first, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	first.Release()
	first.Release()

	second, err := AcquireLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireLock() after release error = %v", err)
	}
	second.Release()
}

func TestRelease_NilSafe(t *testing.T) {
	var lock *Lock
	lock.Release()
}
