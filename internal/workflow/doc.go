// Package workflow implements the state-transition engine at the core of the
// listing pipeline.
//
// The engine is the only writer of an item's stage. It validates each request
// against the fixed legal-transition table and the per-transition role gates,
// rejects claim conflicts unless the actor holds an override role, enforces
// stage-specific data completeness, and commits the item mutation, the audit
// record, and the claim release as one atomic unit through the catalog store.
//
// Publication to the external marketplace happens strictly after the local
// commit: a failed adapter call is recorded as a follow-up publish_failed
// audit record for operator remediation and never rolls the stage back.
// Regressions such as final_review -> review_edit are themselves explicit,
// audited transitions.
package workflow
