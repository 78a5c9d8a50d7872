package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = "id, email, name, role, password_hash, location_id, last_active, is_online, current_item_id, created_at"

// NewUser inserts an operator account.
func (s *Store) NewUser(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if !user.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", user.Role)
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO users (email, name, role, password_hash, location_id, last_active, is_online, created_at)
         VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		nullableInt64(user.LocationID),
		formatTime(time.Now()),
		formatTime(time.Now()),
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return nil, fmt.Errorf("%w: email %q already registered", ErrDuplicate, user.Email)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches a user by identifier. Returns nil when no row exists.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail fetches a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// ListUsers returns all operator accounts ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// TouchUserActivity updates presence telemetry for an operator. This feeds
// the claim-expiry sweep and the UI; the workflow engine never reads it.
func (s *Store) TouchUserActivity(ctx context.Context, id int64, online bool) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE users SET last_active = ?, is_online = ? WHERE id = ?`,
		formatTime(time.Now()),
		boolToInt(online),
		id,
	)
	if err != nil {
		return fmt.Errorf("touch user activity: %w", err)
	}
	return nil
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var (
		id            int64
		email         string
		name          string
		roleStr       string
		passwordHash  string
		locationID    sql.NullInt64
		lastActiveRaw sql.NullString
		isOnline      sql.NullInt64
		currentItemID sql.NullInt64
		createdRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&email,
		&name,
		&roleStr,
		&passwordHash,
		&locationID,
		&lastActiveRaw,
		&isOnline,
		&currentItemID,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	user := &User{
		ID:            id,
		Email:         email,
		Name:          name,
		Role:          Role(roleStr),
		PasswordHash:  passwordHash,
		LocationID:    int64PtrFromNull(locationID),
		IsOnline:      isOnline.Valid && isOnline.Int64 != 0,
		CurrentItemID: int64PtrFromNull(currentItemID),
	}
	if lastActive, err := parseTimeString(lastActiveRaw.String); err == nil {
		user.LastActive = lastActive
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		user.CreatedAt = created
	}
	return user, nil
}
