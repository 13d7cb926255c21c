package lockfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DaemonLockInfo is the metadata recorded in a store's daemon.lock file,
// letting a second invocation of fzcored report who holds the lock
// instead of just failing.
type DaemonLockInfo struct {
	PID       int       `json:"pid"`
	StoreDir  string    `json:"store_dir"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

// DaemonLock is a held lock on a store's daemon.lock file.
type DaemonLock struct {
	file *os.File
}

// Close releases the daemon lock and closes the underlying file.
func (l *DaemonLock) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// TryDaemonLock attempts to acquire the exclusive daemon lock for
// storeDir, writing JSON metadata into daemon.lock and a plain PID into
// daemon.pid (the latter kept for fast liveness checks that do not need
// to parse JSON). Returns ErrLocked if another process already holds it.
func TryDaemonLock(storeDir, version string) (*DaemonLock, error) {
	lockPath := filepath.Join(storeDir, "daemon.lock")

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}

	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		if err == errDaemonLocked {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("cannot lock file: %w", err)
	}

	info := DaemonLockInfo{
		PID:       os.Getpid(),
		StoreDir:  storeDir,
		Version:   version,
		StartedAt: time.Now().UTC(),
	}
	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	_ = enc.Encode(info)
	_ = f.Sync()

	pidFile := filepath.Join(storeDir, "daemon.pid")
	_ = os.WriteFile(pidFile, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0600)

	return &DaemonLock{file: f}, nil
}

// ReadDaemonLockInfo reads and parses an existing daemon.lock file
// without attempting to acquire the lock, for reporting who holds it.
func ReadDaemonLockInfo(storeDir string) (DaemonLockInfo, error) {
	var info DaemonLockInfo
	data, err := os.ReadFile(filepath.Join(storeDir, "daemon.lock"))
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("cannot parse daemon.lock: %w", err)
	}
	return info, nil
}

// IsDaemonRunning reports whether the PID recorded in storeDir's
// daemon.lock corresponds to a live process.
func IsDaemonRunning(storeDir string) bool {
	info, err := ReadDaemonLockInfo(storeDir)
	if err != nil {
		return false
	}
	return isProcessRunning(info.PID)
}
