// Package claims tracks exclusive editing ownership of items. A claim is
// advisory for reads but required for stage transitions; the storage layer
// guarantees at most one claimant per item.
package claims
