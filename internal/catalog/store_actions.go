package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const actionColumns = "id, item_id, user_id, from_stage, to_stage, action, notes, changes_json, created_at"

// AppendAction inserts a standalone audit record outside a transition commit.
// Used for follow-up records such as publication failures. Rows in
// workflow_actions are append-only; this is the only non-transactional writer.
func (s *Store) AppendAction(ctx context.Context, action *WorkflowAction) (*WorkflowAction, error) {
	if action == nil {
		return nil, errors.New("action is nil")
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO workflow_actions (item_id, user_id, from_stage, to_stage, action, notes, changes_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		action.ItemID,
		action.UserID,
		action.FromStage,
		action.ToStage,
		action.Action,
		nullableString(action.Notes),
		nullableString(action.ChangesJSON),
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert workflow action: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getAction(ctx, id)
}

// ActionsByItem returns an item's full transition log, oldest first.
func (s *Store) ActionsByItem(ctx context.Context, itemID int64) ([]*WorkflowAction, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+actionColumns+` FROM workflow_actions WHERE item_id = ? ORDER BY id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("actions by item: %w", err)
	}
	defer rows.Close()

	var actions []*WorkflowAction
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// ItemIDsWithActions returns every item that has at least one audit record.
func (s *Store) ItemIDsWithActions(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT DISTINCT item_id FROM workflow_actions ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("items with actions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) getAction(ctx context.Context, id int64) (*WorkflowAction, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+actionColumns+` FROM workflow_actions WHERE id = ?`, id)
	action, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow action: %w", err)
	}
	return action, nil
}

func scanAction(scanner interface{ Scan(dest ...any) error }) (*WorkflowAction, error) {
	var (
		id         int64
		itemID     int64
		userID     int64
		fromStage  string
		toStage    string
		label      string
		notes      sql.NullString
		changes    sql.NullString
		createdRaw sql.NullString
	)

	if err := scanner.Scan(&id, &itemID, &userID, &fromStage, &toStage, &label, &notes, &changes, &createdRaw); err != nil {
		return nil, err
	}

	action := &WorkflowAction{
		ID:          id,
		ItemID:      itemID,
		UserID:      userID,
		FromStage:   Stage(fromStage),
		ToStage:     Stage(toStage),
		Action:      label,
		Notes:       notes.String,
		ChangesJSON: changes.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		action.CreatedAt = created
	}
	return action, nil
}
