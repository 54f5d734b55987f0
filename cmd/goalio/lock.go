package main

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/willbda/happy-to-have-lived-sub002/internal/config"
)

// importLock serializes CLI imports against one SQLite file. Other drivers
// need no lock and get a no-op.
type importLock struct {
	lock *flock.Flock
}

func acquireImportLock(cfg config.StoreConfig) (*importLock, error) {
	if cfg.Driver != config.DriverSQLite {
		return &importLock{}, nil
	}

	lockPath := cfg.DSN + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another goalio import is running against " + cfg.DSN)
	}
	return &importLock{lock: lock}, nil
}

func (l *importLock) Release() error {
	if l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
