// Package main hosts the relist CLI entrypoint and command graph.
//
// The Cobra-based command tree covers catalog inspection, stage transitions,
// claim management, operator and location administration, history auditing,
// and configuration scaffolding. Commands open the catalog database directly;
// the daemon's HTTP API serves station clients instead.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
