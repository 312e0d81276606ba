package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

func TestInstanceLock(t *testing.T) {
	dir := t.TempDir()
	lock := NewInstanceLock(dir)

	locked, _, err := lock.Check()
	if err != nil || locked {
		t.Fatalf("fresh dir: locked=%v err=%v", locked, err)
	}

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	// Our own PID does not count as another instance
	locked, _, err = lock.Check()
	if err != nil || locked {
		t.Errorf("own lock reported as foreign: locked=%v err=%v", locked, err)
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Errorf("second Unlock should be a no-op, got %v", err)
	}
}

func TestInstanceLockInvalidContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nailchat.lock")
	if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}

	locked, _, err := NewInstanceLock(dir).Check()
	if err != nil || locked {
		t.Errorf("invalid lock: locked=%v err=%v", locked, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid lock file should be cleaned up")
	}
}

func TestInstanceLockStalePID(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pid probing differs on windows")
	}

	tests := []struct {
		name       string
		pid        int
		wantLocked bool
	}{
		// Above the kernel's pid_max, so no such process can exist
		{"dead process", 4194399, false},
		{"running process", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "nailchat.lock")
			if err := os.WriteFile(path, []byte(strconv.Itoa(tt.pid)), 0600); err != nil {
				t.Fatal(err)
			}

			locked, pid, err := NewInstanceLock(dir).Check()
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if locked != tt.wantLocked {
				t.Errorf("locked = %v, want %v (pid %d)", locked, tt.wantLocked, pid)
			}

			_, statErr := os.Stat(path)
			if tt.wantLocked && statErr != nil {
				t.Errorf("live lock file should be kept: %v", statErr)
			}
			if !tt.wantLocked && !os.IsNotExist(statErr) {
				t.Error("stale lock file should be removed")
			}
		})
	}
}
