// Package catalog persists the listing pipeline's entities in SQLite and
// exposes the transactional primitives the workflow engine builds on.
//
// The Store manages database connections, schema initialization, CRUD for
// locations, marketplace accounts, operators, items, and photos, plus the two
// storage-enforced invariants the engine depends on: the claims table primary
// key (at most one claimant per item) and CommitTransition (item update,
// audit insert, and claim release as one atomic unit, conditional on the
// expected pre-state).
//
// The workflow_actions table is append-only; no code in this package or
// elsewhere updates or deletes its rows. Schema changes bump the version in
// schema.go.
package catalog
