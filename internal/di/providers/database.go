package providers

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/samber/do/v2"

	"github.com/minutesapp/minutes-server/internal/config"
	"github.com/minutesapp/minutes-server/internal/logger"
	"github.com/minutesapp/minutes-server/internal/store/sqlite"
)

const lockFileName = "minutes.lock"

// DataLock holds an exclusive lock on the data directory so two servers
// never share a database and index.
type DataLock struct {
	*flock.Flock
}

// Shutdown implements do.Shutdownable.
func (l *DataLock) Shutdown() error {
	return l.Unlock()
}

// ProvideDataLock creates the data directory and locks it.
func ProvideDataLock(i do.Injector) (*DataLock, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	lockPath := filepath.Join(cfg.Data.BasePath, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another minutes server is already using " + cfg.Data.BasePath)
	}

	log.Info("Data directory locked", "lock", lockPath)
	return &DataLock{Flock: lock}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the SQLite database and applies pending migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	do.MustInvoke[*DataLock](i)

	db, err := sqlite.Open(cfg.Data.DBPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.DBPath)
	return &StoreHandle{Store: db}, nil
}

// ProvideSlogLogger provides the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
