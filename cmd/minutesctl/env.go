package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/minutesapp/minutes-server/internal/auth"
	"github.com/minutesapp/minutes-server/internal/config"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/search"
	"github.com/minutesapp/minutes-server/internal/service"
	"github.com/minutesapp/minutes-server/internal/store/sqlite"
	"github.com/minutesapp/minutes-server/internal/summary"
	"github.com/minutesapp/minutes-server/internal/validation"
)

// commandEnv opens the data directory on first use and closes whatever was
// opened after the command ran.
type commandEnv struct {
	dataPath *string
	envFile  *string

	cfg   *config.Config
	lock  *flock.Flock
	store *sqlite.Store
	index *search.Index
}

func newCommandEnv(dataPath, envFile *string) *commandEnv {
	return &commandEnv{dataPath: dataPath, envFile: envFile}
}

func (e *commandEnv) config() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	args := []string{"-env-file", *e.envFile}
	if *e.dataPath != "" {
		args = append(args, "-data-path", *e.dataPath)
	}
	cfg, err := config.Load(args)
	if err != nil {
		return nil, err
	}
	e.cfg = cfg
	return cfg, nil
}

// acquire locks the data directory. Commands that write need it so they
// never run next to a live server.
func (e *commandEnv) acquire() error {
	if e.lock != nil {
		return nil
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	lock := flock.New(filepath.Join(cfg.Data.BasePath, "minutes.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire data lock: %w", err)
	}
	if !ok {
		return errors.New("the data directory is in use by a running server")
	}
	e.lock = lock
	return nil
}

func (e *commandEnv) openStore() (*sqlite.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	st, err := sqlite.Open(cfg.Data.DBPath, quietLogger())
	if err != nil {
		return nil, err
	}
	e.store = st
	return st, nil
}

func (e *commandEnv) openIndex() (*search.Index, error) {
	if e.index != nil {
		return e.index, nil
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	index, err := search.Open(search.Options{Dir: cfg.Data.IndexPath, Logger: quietLogger()})
	if err != nil {
		return nil, err
	}
	e.index = index
	return index, nil
}

// serviceSet is what the write commands use.
type serviceSet struct {
	identity       *service.IdentityService
	transcriptions *service.TranscriptionService
	moms           *service.MoMService
	search         *service.SearchService
}

func (e *commandEnv) services() (*serviceSet, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	st, err := e.openStore()
	if err != nil {
		return nil, err
	}
	index, err := e.openIndex()
	if err != nil {
		return nil, err
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(key)
	if err != nil {
		return nil, err
	}

	logger := quietLogger()
	m := metrics.New()
	searchService := service.NewSearchService(index, st, logger)
	generator := summary.NewGenerator(summary.Options{
		MaxSentences: cfg.Summary.MaxSentences,
		MaxChars:     cfg.Summary.MaxChars,
	})

	return &serviceSet{
		identity: service.NewIdentityService(st, tokens, validation.New(), m, service.IdentityConfig{
			SessionDuration:  cfg.Auth.SessionDuration,
			RememberDuration: cfg.Auth.RememberDuration,
		}, logger),
		transcriptions: service.NewTranscriptionService(st, searchService, m, cfg.Dashboard.PageSize, logger),
		moms:           service.NewMoMService(st, generator, searchService, m, logger),
		search:         searchService,
	}, nil
}

func (e *commandEnv) close() error {
	var errs []error
	if e.index != nil {
		errs = append(errs, e.index.Close())
		e.index = nil
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
		e.store = nil
	}
	if e.lock != nil {
		errs = append(errs, e.lock.Unlock())
		e.lock = nil
	}
	return errors.Join(errs...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
