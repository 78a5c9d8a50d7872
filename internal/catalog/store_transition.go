package catalog

import (
	"context"
	"fmt"
	"time"
)

// TransitionCommit bundles the three writes of one stage transition: the item
// mutation, the audit record, and the claim release. They commit as a unit or
// not at all.
type TransitionCommit struct {
	// Item carries the post-transition stage, status, and publish timestamp.
	Item *Item
	// ExpectedStage is the stage the stored row must still hold. The update
	// is conditional on it so two racing transitions cannot both commit.
	ExpectedStage Stage
	// Action is the audit record to append. ItemID, UserID, FromStage, and
	// ToStage must already be populated by the engine.
	Action *WorkflowAction
	// ReleaseClaim releases the actor's claim on the item inside the same
	// transaction.
	ReleaseClaim bool
	// ActorID identifies the operator whose claim is released.
	ActorID int64
}

// CommitTransition applies a validated transition atomically. It returns
// ErrStaleItem when the stored stage no longer matches ExpectedStage, and
// ErrBusy when the write lock cannot be acquired within the retry window.
func (s *Store) CommitTransition(ctx context.Context, commit TransitionCommit) (*WorkflowAction, error) {
	if commit.Item == nil || commit.Action == nil {
		return nil, fmt.Errorf("transition commit incomplete")
	}
	ctx = ensureContext(ctx)

	var actionID int64
	now := time.Now().UTC()

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(
			ctx,
			`UPDATE items SET stage = ?, status = ?, published_at = ?, updated_at = ?
             WHERE id = ? AND stage = ?`,
			commit.Item.Stage,
			commit.Item.Status,
			nullableTime(commit.Item.PublishedAt),
			formatTime(now),
			commit.Item.ID,
			commit.ExpectedStage,
		)
		if err != nil {
			return fmt.Errorf("update item stage: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return ErrStaleItem
		}

		res, err = tx.ExecContext(
			ctx,
			`INSERT INTO workflow_actions (item_id, user_id, from_stage, to_stage, action, notes, changes_json, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			commit.Action.ItemID,
			commit.Action.UserID,
			commit.Action.FromStage,
			commit.Action.ToStage,
			commit.Action.Action,
			nullableString(commit.Action.Notes),
			nullableString(commit.Action.ChangesJSON),
			formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("insert workflow action: %w", err)
		}
		actionID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if commit.ReleaseClaim {
			if _, err := tx.ExecContext(
				ctx,
				`DELETE FROM claims WHERE item_id = ? AND user_id = ?`,
				commit.Item.ID,
				commit.ActorID,
			); err != nil {
				return fmt.Errorf("release claim: %w", err)
			}
			if _, err := tx.ExecContext(
				ctx,
				`UPDATE users SET current_item_id = NULL WHERE id = ? AND current_item_id = ?`,
				commit.ActorID,
				commit.Item.ID,
			); err != nil {
				return fmt.Errorf("clear current item: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transition: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	applied := *commit.Action
	applied.ID = actionID
	applied.CreatedAt = now
	commit.Item.UpdatedAt = now
	return &applied, nil
}
