package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"relist/internal/catalog"
	"relist/internal/claims"
	"relist/internal/config"
	"relist/internal/history"
	"relist/internal/identity"
	"relist/internal/logging"
	"relist/internal/workflow"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	engine   *workflow.Engine
	claims   *claims.Manager
	sweeper  *claims.Sweeper
	identity *identity.Service
	history  *history.Reader
	logPath  string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	CatalogDBPath string
	LockFilePath  string
	StageCounts   map[catalog.Stage]int
	ActiveClaims  int
}

// New constructs a daemon with initialized dependencies.
func New(
	cfg *config.Config,
	store *catalog.Store,
	logger *slog.Logger,
	engine *workflow.Engine,
	claimMgr *claims.Manager,
	sweeper *claims.Sweeper,
	identitySvc *identity.Service,
) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || engine == nil || claimMgr == nil || identitySvc == nil {
		return nil, errors.New("daemon requires config, store, logger, engine, claims, and identity")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "relistd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		engine:   engine,
		claims:   claimMgr,
		sweeper:  sweeper,
		identity: identitySvc,
		history:  history.NewReader(store),
		logPath:  filepath.Join(cfg.Paths.LogDir, "relist.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the claim sweep and HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another relist daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}
	if d.sweeper != nil {
		d.sweeper.Start(d.ctx)
	}

	d.running.Store(true)
	d.logger.Info("relist daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.sweeper != nil {
		d.sweeper.Stop()
	}
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("relist daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound address of the HTTP API, or empty when the API is
// disabled or not yet started.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		CatalogDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
	}
	if counts, err := d.store.Stats(ctx); err == nil {
		status.StageCounts = counts
	}
	if active, err := d.claims.List(ctx); err == nil {
		status.ActiveClaims = len(active)
	}
	return status
}
