// Package config loads, normalizes, and validates relist configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RELIST_TOKEN_SECRET. The Config type centralizes every knob the daemon and
// CLI need, so directories, session settings, and marketplace credentials are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
