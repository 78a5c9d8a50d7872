package config

const (
	defaultDataDir              = "~/.local/share/relist/data"
	defaultLogDir               = "~/.local/share/relist/logs"
	defaultPhotosDir            = "~/.local/share/relist/photos"
	defaultAPIBind              = "127.0.0.1:7519"
	defaultSessionTTLHours      = 12
	defaultBcryptCost           = 12
	defaultClaimStaleMinutes    = 30
	defaultSweepIntervalSeconds = 60
	defaultStorageRetries       = 1
	defaultMarketplaceTimeout   = 30
	defaultMarketplaceRetries   = 3
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			PhotosDir: defaultPhotosDir,
			APIBind:   defaultAPIBind,
		},
		Identity: Identity{
			SessionTTLHours: defaultSessionTTLHours,
			BcryptCost:      defaultBcryptCost,
		},
		Workflow: Workflow{
			ClaimStaleMinutes:    defaultClaimStaleMinutes,
			SweepIntervalSeconds: defaultSweepIntervalSeconds,
			StorageRetries:       defaultStorageRetries,
		},
		Marketplace: Marketplace{
			Sandbox:        true,
			RequestTimeout: defaultMarketplaceTimeout,
			MaxRetries:     defaultMarketplaceRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
