package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertClaim grants exclusive ownership of an item to a user. The claims
// primary key makes concurrent inserts race safely: exactly one wins, the
// rest observe ErrDuplicate. The user's current_item_id mirror is updated in
// the same transaction.
func (s *Store) InsertClaim(ctx context.Context, itemID, userID int64) (*Claim, error) {
	ctx = ensureContext(ctx)
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	claimedAt := time.Now().UTC()
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO claims (item_id, user_id, claimed_at) VALUES (?, ?, ?)`,
		itemID,
		userID,
		formatTime(claimedAt),
	); err != nil {
		if isSQLiteConstraint(err) {
			return nil, fmt.Errorf("%w: item %d already claimed", ErrDuplicate, itemID)
		}
		return nil, fmt.Errorf("insert claim: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE users SET current_item_id = ? WHERE id = ?`,
		itemID,
		userID,
	); err != nil {
		return nil, fmt.Errorf("set current item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return &Claim{ItemID: itemID, UserID: userID, ClaimedAt: claimedAt}, nil
}

// GetClaim returns the claim for an item, or nil when unclaimed.
func (s *Store) GetClaim(ctx context.Context, itemID int64) (*Claim, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT item_id, user_id, claimed_at FROM claims WHERE item_id = ?`,
		itemID,
	)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return claim, nil
}

// DeleteClaim releases a claim held by the given user. Returns false when the
// user did not hold the claim. The current_item_id mirror is cleared in the
// same transaction.
func (s *Store) DeleteClaim(ctx context.Context, itemID, userID int64) (bool, error) {
	ctx = ensureContext(ctx)
	tx, err := s.beginTx(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE item_id = ? AND user_id = ?`, itemID, userID)
	if err != nil {
		return false, fmt.Errorf("delete claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE users SET current_item_id = NULL WHERE id = ? AND current_item_id = ?`,
		userID,
		itemID,
	); err != nil {
		return false, fmt.Errorf("clear current item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit release: %w", err)
	}
	return true, nil
}

// ListClaims returns all active claims ordered by age.
func (s *Store) ListClaims(ctx context.Context) ([]*Claim, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT item_id, user_id, claimed_at FROM claims ORDER BY claimed_at`)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var claims []*Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

// ReleaseStaleClaims removes claims whose holders have gone idle past the
// cutoff or hold no live session, clearing the current_item_id mirrors in the
// same transaction. Returns the number of claims released.
func (s *Store) ReleaseStaleClaims(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())
	cutoffStr := formatTime(cutoff)

	staleUsers := `SELECT id FROM users
        WHERE last_active IS NULL OR last_active < ?
           OR NOT EXISTS (
               SELECT 1 FROM sessions
               WHERE sessions.user_id = users.id AND sessions.revoked = 0 AND sessions.expires_at > ?
           )`

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE users SET current_item_id = NULL
         WHERE current_item_id IN (SELECT item_id FROM claims WHERE user_id IN (`+staleUsers+`))`,
		cutoffStr,
		now,
	); err != nil {
		return 0, fmt.Errorf("clear stale current items: %w", err)
	}

	res, err := tx.ExecContext(
		ctx,
		`DELETE FROM claims WHERE user_id IN (`+staleUsers+`)`,
		cutoffStr,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	released, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stale release: %w", err)
	}
	return released, nil
}

func scanClaim(scanner interface{ Scan(dest ...any) error }) (*Claim, error) {
	var (
		itemID     int64
		userID     int64
		claimedRaw sql.NullString
	)
	if err := scanner.Scan(&itemID, &userID, &claimedRaw); err != nil {
		return nil, err
	}
	claim := &Claim{ItemID: itemID, UserID: userID}
	if claimed, err := parseTimeString(claimedRaw.String); err == nil {
		claim.ClaimedAt = claimed
	}
	return claim, nil
}
