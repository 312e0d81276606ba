package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

// InstanceLock guards a data directory against two clients writing the
// same history concurrently.
// Lock file: <data_dir>/nailchat.lock
// Content: PID of the running instance
type InstanceLock struct {
	path string
}

func NewInstanceLock(dataDir string) *InstanceLock {
	return &InstanceLock{path: filepath.Join(dataDir, "nailchat.lock")}
}

// Lock records this process as the owner of the data directory
func (l *InstanceLock) Lock() error {
	// Write PID to lock file (0600 - user-only access)
	return os.WriteFile(l.path, []byte(fmt.Sprintf("%d", os.Getpid())), 0600)
}

// Unlock removes the lock file
func (l *InstanceLock) Unlock() error {
	// Ignore error if file doesn't exist
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Check reports whether another instance holds the lock
// Returns (isLocked bool, runningPID int, err error)
func (l *InstanceLock) Check() (bool, int, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		// Invalid lock file, clean it up
		_ = os.Remove(l.path)
		return false, 0, nil
	}

	if pid == os.Getpid() {
		return false, 0, nil
	}

	if !processAlive(pid) {
		_ = os.Remove(l.path)
		return false, 0, nil
	}

	return true, pid, nil
}

// processAlive reports whether pid names a running process. On Unix
// os.FindProcess always succeeds, so a null signal checks for it.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	err = proc.Signal(syscall.Signal(0))
	// EPERM: alive but owned by another user
	return err == nil || errors.Is(err, syscall.EPERM)
}
