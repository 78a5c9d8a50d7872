// Package preflight provides readiness checks for the filesystem paths,
// database, and marketplace endpoint that relist depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and refuses to serve when a
//     required check fails.
//   - The CLI "relist preflight" command runs the same checks on demand and
//     renders the results.
package preflight
