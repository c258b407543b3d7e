package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cashcheck-dev/cashcheck/internal/config"
	"github.com/cashcheck-dev/cashcheck/internal/ingest"
	"github.com/cashcheck-dev/cashcheck/internal/logger"
	"github.com/cashcheck-dev/cashcheck/internal/store"
	"github.com/cashcheck-dev/cashcheck/internal/store/postgres"
)

// StateFile is where the in-memory store is persisted between runs when no
// database is configured. It is relative to the project root.
const StateFile = ".cashcheck/state.json"

// app holds everything a command needs, built from the project config.
type app struct {
	root   string
	cfg    *config.Config
	logger *zap.Logger
	repo   store.Repository
	svc    *ingest.Service

	pool   *pgxpool.Pool
	memory *store.Memory
}

// openApp loads the config at configPath and connects the store it names.
func openApp(ctx context.Context, configPath string) (*app, error) {
	root, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	config.LoadDotEnv(filepath.Join(root, ".env"))
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &app{root: root, cfg: cfg, logger: log}
	if cfg.Database.URL != "" {
		a.pool, err = postgres.NewPool(ctx, cfg.Database.URL, log)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, a.pool); err != nil {
			a.pool.Close()
			return nil, err
		}
		a.repo = postgres.NewRepository(a.pool, log)
	} else {
		a.memory, err = store.LoadMemoryFile(a.path(StateFile))
		if err != nil {
			return nil, err
		}
		a.repo = a.memory
	}

	loc, _ := cfg.Location()
	a.svc = ingest.NewService(a.repo, log,
		ingest.WithLocation(loc),
		ingest.WithWindowDays(cfg.Transfers.WindowDays),
	)
	return a, nil
}

// path resolves p against the project root unless it is absolute.
func (a *app) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.root, p)
}

func (a *app) sessionID() string { return a.cfg.Session.ID }

// close persists in-memory state and releases connections.
func (a *app) close() error {
	defer func() { _ = a.logger.Sync() }()
	if a.pool != nil {
		a.pool.Close()
	}
	if a.memory != nil {
		if err := store.SaveMemoryFile(a.path(StateFile), a.memory); err != nil {
			return err
		}
	}
	return nil
}

// withApp opens the app, runs fn, and closes the app, keeping fn's error.
func withApp(configPath string, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := openApp(ctx, configPath)
	if err != nil {
		return err
	}
	runErr := fn(ctx, a)
	if err := a.close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}
