// Package marketplace wraps the external listing API behind the narrow
// Publisher interface the workflow engine depends on.
//
// The concrete Client is the only place that knows the marketplace protocol.
// Sandbox mode short-circuits to synthetic listing identifiers so the rest of
// the system can run without credentials or network access.
package marketplace
