package preflight

import (
	"context"

	"relist/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Data and photo directories (always checked)
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Photos directory", cfg.Paths.PhotosDir))

	// Log directory (when configured)
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	// Token secret
	results = append(results, CheckTokenSecret(cfg))

	// Catalog database
	results = append(results, CheckDatabase(ctx, cfg))

	// Marketplace endpoint (skipped in sandbox mode, no live endpoint there)
	if !cfg.Marketplace.Sandbox {
		results = append(results, CheckMarketplace(ctx, cfg.Marketplace.BaseURL))
	}

	return results
}
