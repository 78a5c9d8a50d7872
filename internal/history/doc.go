// Package history reads and audits the append-only workflow action log.
package history
