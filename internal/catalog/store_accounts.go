package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const accountColumns = "id, location_id, label, auth_token, refresh_token, sandbox, last_sync_at, created_at, updated_at"

// NewMarketplaceAccount inserts a seller identity for a location.
func (s *Store) NewMarketplaceAccount(ctx context.Context, account *MarketplaceAccount) (*MarketplaceAccount, error) {
	if account == nil {
		return nil, errors.New("account is nil")
	}

	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO marketplace_accounts (location_id, label, auth_token, refresh_token, sandbox, last_sync_at, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.LocationID,
		account.Label,
		nullableString(account.AuthToken),
		nullableString(account.RefreshToken),
		boolToInt(account.Sandbox),
		nullableTime(account.LastSyncAt),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert marketplace account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetMarketplaceAccount(ctx, id)
}

// GetMarketplaceAccount fetches an account by identifier. Returns nil when no
// row exists.
func (s *Store) GetMarketplaceAccount(ctx context.Context, id int64) (*MarketplaceAccount, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+accountColumns+` FROM marketplace_accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get marketplace account: %w", err)
	}
	return account, nil
}

// MarketplaceAccountsByLocation returns all seller identities for a site.
func (s *Store) MarketplaceAccountsByLocation(ctx context.Context, locationID int64) ([]*MarketplaceAccount, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+accountColumns+` FROM marketplace_accounts WHERE location_id = ? ORDER BY label`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("accounts by location: %w", err)
	}
	defer rows.Close()

	var accounts []*MarketplaceAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// TouchAccountSync records a successful marketplace synchronization.
func (s *Store) TouchAccountSync(ctx context.Context, id int64) error {
	now := formatTime(time.Now())
	_, err := s.execWithRetry(
		ctx,
		`UPDATE marketplace_accounts SET last_sync_at = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("touch account sync: %w", err)
	}
	return nil
}

// RotateAccountTokens replaces the stored credentials for an account.
func (s *Store) RotateAccountTokens(ctx context.Context, id int64, authToken, refreshToken string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE marketplace_accounts SET auth_token = ?, refresh_token = ?, updated_at = ? WHERE id = ?`,
		nullableString(authToken),
		nullableString(refreshToken),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("rotate account tokens: %w", err)
	}
	return nil
}

func scanAccount(scanner interface{ Scan(dest ...any) error }) (*MarketplaceAccount, error) {
	var (
		id           int64
		locationID   int64
		label        string
		authToken    sql.NullString
		refreshToken sql.NullString
		sandbox      sql.NullInt64
		lastSyncRaw  sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(&id, &locationID, &label, &authToken, &refreshToken, &sandbox, &lastSyncRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	account := &MarketplaceAccount{
		ID:           id,
		LocationID:   locationID,
		Label:        label,
		AuthToken:    authToken.String,
		RefreshToken: refreshToken.String,
		Sandbox:      sandbox.Valid && sandbox.Int64 != 0,
		LastSyncAt:   timePtrFromNull(lastSyncRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		account.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		account.UpdatedAt = updated
	}
	return account, nil
}
