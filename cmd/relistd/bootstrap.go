package main

import (
	"context"
	"fmt"
	"log/slog"

	"relist/internal/catalog"
	"relist/internal/claims"
	"relist/internal/config"
	"relist/internal/daemon"
	"relist/internal/identity"
	"relist/internal/logging"
	"relist/internal/marketplace"
	"relist/internal/preflight"
	"relist/internal/workflow"
)

// bootstrap wires the daemon's dependencies and refuses to start when a
// required preflight check fails.
func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if !result.Passed {
			return nil, fmt.Errorf("preflight %s: %s", result.Name, result.Detail)
		}
		logger.Debug("preflight check passed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}

	identitySvc, err := identity.NewService(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	publisher := marketplace.NewClient(cfg, store, logger)
	engine := workflow.New(cfg, store, publisher, logger)
	claimMgr := claims.NewManager(cfg, store, logger)
	sweeper := claims.NewSweeper(cfg, claimMgr, logger)

	d, err := daemon.New(cfg, store, logger, engine, claimMgr, sweeper, identitySvc)
	if err != nil {
		store.Close()
		return nil, err
	}
	return d, nil
}
