package testsupport

import (
	"path/filepath"
	"testing"

	"relist/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.PhotosDir = filepath.Join(base, "photos")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Identity.TokenSecret = "test-secret"
	cfg.Identity.BcryptCost = 4
	cfg.Marketplace.Sandbox = true

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithTokenSecret overrides the session signing secret on the test config.
func WithTokenSecret(secret string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Identity.TokenSecret = secret
	}
}

// WithLiveMarketplace points the test config at a real marketplace endpoint,
// usually an httptest server.
func WithLiveMarketplace(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Marketplace.Sandbox = false
		cfg.Marketplace.BaseURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
