package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertSession records an issued bearer token.
func (s *Store) InsertSession(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (token_id, user_id, expires_at, created_at, revoked) VALUES (?, ?, ?, ?, 0)`,
		session.TokenID,
		session.UserID,
		formatTime(session.ExpiresAt),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession fetches a session by token identifier. Returns nil when unknown.
func (s *Store) GetSession(ctx context.Context, tokenID string) (*Session, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT token_id, user_id, expires_at, created_at, revoked FROM sessions WHERE token_id = ?`,
		tokenID,
	)

	var (
		id         string
		userID     int64
		expiresRaw sql.NullString
		createdRaw sql.NullString
		revoked    sql.NullInt64
	)
	err := row.Scan(&id, &userID, &expiresRaw, &createdRaw, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	session := &Session{
		TokenID: id,
		UserID:  userID,
		Revoked: revoked.Valid && revoked.Int64 != 0,
	}
	if expires, err := parseTimeString(expiresRaw.String); err == nil {
		session.ExpiresAt = expires
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	return session, nil
}

// RevokeSession marks a session unusable.
func (s *Store) RevokeSession(ctx context.Context, tokenID string) error {
	_, err := s.execWithRetry(ctx, `UPDATE sessions SET revoked = 1 WHERE token_id = ?`, tokenID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions drops sessions past their expiry. Returns the number
// of rows removed.
func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return res.RowsAffected()
}
