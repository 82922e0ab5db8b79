package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	homedir "github.com/mitchellh/go-homedir"
)

const (
	lockFileSuffix = ".lock"
	lockRetryDelay = 250 * time.Millisecond
)

// DBLock serializes catalog imports across histmap processes. Readers never
// take it.
type DBLock struct {
	lock *flock.Flock
	path string
}

func NewDBLock(dbPath string) (*DBLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog db path: %w", err)
	}
	return &DBLock{lock: flock.New(absPath + lockFileSuffix), path: absPath + lockFileSuffix}, nil
}

// Lock waits for the import lock until ctx is done.
func (l *DBLock) Lock(ctx context.Context) error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	if ok {
		return nil
	}

	Log.Warnf("Another import holds %s, waiting", l.path)
	ok, err = l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", l.path)
	}
	return nil
}

// Unlock releases the lock. The lock file stays behind; flock ignores it
// once no process holds it.
func (l *DBLock) Unlock() error {
	err := l.lock.Unlock()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return nil
}

// GetAbsDBPath resolves the catalog database path. An empty path means
// ~/.config/histmap/catalog.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath != "" {
		return filepath.Abs(dbPath)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "histmap", "catalog.sqlite"), nil
}
