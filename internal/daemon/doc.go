// Package daemon runs the relist background process: single-instance
// locking, the stale-claim sweep, and the HTTP API the CLI and station
// clients talk to.
package daemon
