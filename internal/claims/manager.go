package claims

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/logging"
)

// Claim outcomes are user-facing, recoverable conditions, never fatal.
var (
	ErrAlreadyClaimed = errors.New("item already claimed")
	ErrNotClaimant    = errors.New("not the claimant")
	ErrUnknownItem    = errors.New("unknown item")
)

// Manager serializes "who is actively editing this item". The at-most-one
// claimant invariant is enforced by the claims table primary key, so two
// concurrent Claim calls for one item resolve in storage: one insert wins.
type Manager struct {
	store      *catalog.Store
	logger     *slog.Logger
	staleAfter time.Duration
}

// NewManager constructs a claim manager.
func NewManager(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Manager {
	stale := 30 * time.Minute
	if cfg != nil && cfg.Workflow.ClaimStaleMinutes > 0 {
		stale = time.Duration(cfg.Workflow.ClaimStaleMinutes) * time.Minute
	}
	return &Manager{
		store:      store,
		logger:     logging.NewComponentLogger(logger, "claims"),
		staleAfter: stale,
	}
}

// Claim grants exclusive editing ownership of an item to a user. Claiming an
// item the user already holds is a no-op.
func (m *Manager) Claim(ctx context.Context, itemID, userID int64) (*catalog.Claim, error) {
	item, err := m.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", ErrUnknownItem, itemID)
	}

	claim, err := m.store.InsertClaim(ctx, itemID, userID)
	if err != nil {
		if errors.Is(err, catalog.ErrDuplicate) {
			existing, getErr := m.store.GetClaim(ctx, itemID)
			if getErr == nil && existing != nil && existing.UserID == userID {
				return existing, nil
			}
			return nil, fmt.Errorf("%w: item %d", ErrAlreadyClaimed, itemID)
		}
		return nil, fmt.Errorf("claim item: %w", err)
	}

	m.logger.Info("item claimed",
		logging.Int64(logging.FieldItemID, itemID),
		logging.Int64(logging.FieldUserID, userID))
	return claim, nil
}

// Release clears a claim held by the given user.
func (m *Manager) Release(ctx context.Context, itemID, userID int64) error {
	released, err := m.store.DeleteClaim(ctx, itemID, userID)
	if err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	if !released {
		return fmt.Errorf("%w: item %d is not held by user %d", ErrNotClaimant, itemID, userID)
	}

	m.logger.Info("item released",
		logging.Int64(logging.FieldItemID, itemID),
		logging.Int64(logging.FieldUserID, userID))
	return nil
}

// Holder returns the current claim on an item, or nil when unclaimed.
func (m *Manager) Holder(ctx context.Context, itemID int64) (*catalog.Claim, error) {
	return m.store.GetClaim(ctx, itemID)
}

// List returns all active claims ordered by age.
func (m *Manager) List(ctx context.Context) ([]*catalog.Claim, error) {
	return m.store.ListClaims(ctx)
}

// ReleaseStale drops claims whose holders have gone idle past the staleness
// threshold or no longer hold a live session. Called by the background sweep.
func (m *Manager) ReleaseStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-m.staleAfter)
	released, err := m.store.ReleaseStaleClaims(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	if released > 0 {
		m.logger.Info("released stale claims", logging.Int64("count", released))
	}
	return released, nil
}
