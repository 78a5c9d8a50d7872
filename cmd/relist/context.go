package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"relist/internal/catalog"
	"relist/internal/claims"
	"relist/internal/config"
	"relist/internal/history"
	"relist/internal/identity"
	"relist/internal/logging"
	"relist/internal/marketplace"
	"relist/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the catalog store for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *catalog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withEngine opens the store and builds a workflow engine around it. CLI
// invocations run the engine in-process against the same database the daemon
// uses; the conditional stage commit keeps the two safe side by side.
func (c *commandContext) withEngine(fn func(*config.Config, *catalog.Store, *workflow.Engine) error) error {
	return c.withStore(func(cfg *config.Config, store *catalog.Store) error {
		logger := cliLogger()
		publisher := marketplace.NewClient(cfg, store, logger)
		engine := workflow.New(cfg, store, publisher, logger)
		return fn(cfg, store, engine)
	})
}

func (c *commandContext) withClaims(fn func(*config.Config, *catalog.Store, *claims.Manager) error) error {
	return c.withStore(func(cfg *config.Config, store *catalog.Store) error {
		return fn(cfg, store, claims.NewManager(cfg, store, cliLogger()))
	})
}

func (c *commandContext) withIdentity(fn func(*config.Config, *catalog.Store, *identity.Service) error) error {
	return c.withStore(func(cfg *config.Config, store *catalog.Store) error {
		svc, err := identity.NewService(cfg, store, cliLogger())
		if err != nil {
			return err
		}
		return fn(cfg, store, svc)
	})
}

func (c *commandContext) withHistory(fn func(*config.Config, *catalog.Store, *history.Reader) error) error {
	return c.withStore(func(cfg *config.Config, store *catalog.Store) error {
		return fn(cfg, store, history.NewReader(store))
	})
}

// cliLogger keeps command output clean; engine logs go nowhere unless
// debugging.
func cliLogger() *slog.Logger {
	return logging.NewNop()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
