package history

import (
	"context"
	"errors"
	"fmt"

	"relist/internal/catalog"
)

// ContinuityError reports a break in an item's action chain: the destination
// of one action does not match the origin of the next.
type ContinuityError struct {
	ItemID   int64
	ActionID int64
	Expected catalog.Stage
	Got      catalog.Stage
}

func (e *ContinuityError) Error() string {
	return fmt.Sprintf("item %d: action %d starts at %s, previous action ended at %s",
		e.ItemID, e.ActionID, e.Got, e.Expected)
}

// Reader answers questions about an item's workflow history. The action log
// is append-only, so every answer is derived, never stored.
type Reader struct {
	store *catalog.Store
}

// NewReader constructs a history reader over the catalog store.
func NewReader(store *catalog.Store) *Reader {
	return &Reader{store: store}
}

// History returns an item's workflow actions oldest first.
func (r *Reader) History(ctx context.Context, itemID int64) ([]*catalog.WorkflowAction, error) {
	return r.store.ActionsByItem(ctx, itemID)
}

// Verify walks an item's action chain and returns a ContinuityError at the
// first break. A publish failure record stays at the published stage on both
// ends, so it passes unchanged.
func (r *Reader) Verify(ctx context.Context, itemID int64) error {
	actions, err := r.store.ActionsByItem(ctx, itemID)
	if err != nil {
		return err
	}
	return VerifyChain(itemID, actions)
}

// VerifyChain checks continuity over an already-loaded, oldest-first action
// slice.
func VerifyChain(itemID int64, actions []*catalog.WorkflowAction) error {
	for i := 1; i < len(actions); i++ {
		prev, cur := actions[i-1], actions[i]
		if cur.FromStage != prev.ToStage {
			return &ContinuityError{
				ItemID:   itemID,
				ActionID: cur.ID,
				Expected: prev.ToStage,
				Got:      cur.FromStage,
			}
		}
	}
	return nil
}

// Replay reconstructs an item's current stage from its action log alone. An
// item with no recorded actions is still at the initial stage.
func (r *Reader) Replay(ctx context.Context, itemID int64) (catalog.Stage, error) {
	actions, err := r.store.ActionsByItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	if len(actions) == 0 {
		return catalog.StagePhotoUpload, nil
	}
	return actions[len(actions)-1].ToStage, nil
}

// Audit verifies every item that has recorded actions and reports the items
// whose chains are broken.
func (r *Reader) Audit(ctx context.Context) ([]*ContinuityError, error) {
	ids, err := r.store.ItemIDsWithActions(ctx)
	if err != nil {
		return nil, err
	}
	var broken []*ContinuityError
	for _, id := range ids {
		if err := r.Verify(ctx, id); err != nil {
			var cerr *ContinuityError
			if !errors.As(err, &cerr) {
				return nil, err
			}
			broken = append(broken, cerr)
		}
	}
	return broken, nil
}
