// Package api defines the transport DTOs shared by the daemon's HTTP
// endpoints and the CLI, plus read-only services that project catalog
// records into them.
package api
