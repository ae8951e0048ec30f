// Package server wires configuration, storage, services and transports into
// the running catalog backend and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mygardenbook/gardenbook/internal/dbx"
	"github.com/mygardenbook/gardenbook/internal/filex"
	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/mygardenbook/gardenbook/internal/server/assets"
	"github.com/mygardenbook/gardenbook/internal/server/auth"
	"github.com/mygardenbook/gardenbook/internal/server/config"
	"github.com/mygardenbook/gardenbook/internal/server/httpapi"
	"github.com/mygardenbook/gardenbook/internal/server/metrics"
	"github.com/mygardenbook/gardenbook/internal/server/repositories/repomanager"
	"github.com/mygardenbook/gardenbook/internal/server/scancode"
	"github.com/mygardenbook/gardenbook/internal/server/services"

	gs "github.com/mygardenbook/gardenbook/internal/server/grpc"
)

const (
	dbRetryDelay   = time.Second
	staleUploadAge = time.Hour
)

// Seams replaced in tests.
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

// Storage bundles the database handle and the repository manager bound to it.
type Storage struct {
	DB      *sql.DB
	Manager repomanager.RepositoryManager
}

// OpenStorage connects to PostgreSQL, waits for it to answer and applies
// pending migrations.
func OpenStorage(ctx context.Context, cfg *config.Config, l logging.Logger) (*Storage, error) {
	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	err = dbx.WaitForDB(ctx, db, cfg.DBConnectAttempts, dbRetryDelay, func(n uint, err error) {
		l.Warn(ctx, "database not ready, retrying", "attempt", n+1, "error", err)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db unreachable: %w", err)
	}

	m := newRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return &Storage{DB: db, Manager: m}, nil
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage *Storage
	metrics *metrics.Metrics
	http    *httpapi.Server
	health  *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	uploadDir, err := filex.EnsureUploadDir(c.UploadDir)
	if err != nil {
		return nil, err
	}
	c.UploadDir = uploadDir
	if n, err := filex.SweepStale(uploadDir, httpapi.StagedFilePattern, staleUploadAge); err != nil {
		logger.Warn(ctx, "stale upload sweep failed", "dir", uploadDir, "error", err)
	} else if n > 0 {
		logger.Info(ctx, "removed stale staged uploads", "dir", uploadDir, "count", n)
	}

	st, err := OpenStorage(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	store, err := assets.Open(ctx, c)
	if err != nil {
		_ = st.DB.Close()
		return nil, fmt.Errorf("asset store init error: %w", err)
	}

	mt := metrics.New()
	deps := httpapi.Deps{
		Specimens:  services.NewSpecimenService(st.DB, st.Manager, store, scancode.NewQREncoder(c.ScanCodeSize), c, logger, mt),
		Categories: services.NewCategoryService(st.DB, st.Manager, logger, mt),
		Catalog:    services.NewCatalogService(st.DB, st.Manager),
		Admins:     services.NewAdminService(st.DB, st.Manager, c, logger),
		Gate:       auth.NewAdminGate(st.Manager.Admins(st.DB), c.SecretKey),
		Metrics:    mt,
	}

	app := &App{
		config:  c,
		logger:  logger,
		storage: st,
		metrics: mt,
		http:    httpapi.NewServer(c, logger, deps),
	}
	if c.EndpointAddrGRPC != "" {
		app.health = gs.NewHealthServer(c.EndpointAddrGRPC, logger, st.DB, 0)
	}
	return app, nil
}

// Run serves until SIGINT/SIGTERM or until either server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	return app.serve(ctx)
}

func (app *App) serve(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		app.logger.Error(ctx, err.Error())
		once.Do(func() { firstErr = err })
		cancelFunc()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			fail(fmt.Errorf("http server: %w", err))
		}
	}()

	if app.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.health.Run(ctx); err != nil {
				fail(fmt.Errorf("grpc server: %w", err))
			}
		}()
	}

	wg.Wait()

	if err := app.storage.DB.Close(); err != nil {
		app.logger.Warn(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	return firstErr
}
