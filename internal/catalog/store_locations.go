package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const locationColumns = "id, name, code, address, timezone, is_active, server_url, created_at, updated_at"

// NewLocation inserts a physical site.
func (s *Store) NewLocation(ctx context.Context, loc *Location) (*Location, error) {
	if loc == nil {
		return nil, errors.New("location is nil")
	}
	if loc.Timezone == "" {
		loc.Timezone = "UTC"
	}

	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO locations (name, code, address, timezone, is_active, server_url, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.Name,
		loc.Code,
		nullableString(loc.Address),
		loc.Timezone,
		boolToInt(loc.IsActive),
		nullableString(loc.ServerURL),
		timestamp,
		timestamp,
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return nil, fmt.Errorf("%w: location name or code already in use", ErrDuplicate)
		}
		return nil, fmt.Errorf("insert location: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetLocation(ctx, id)
}

// GetLocation fetches a location by identifier. Returns nil when no row exists.
func (s *Store) GetLocation(ctx context.Context, id int64) (*Location, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

// GetLocationByCode fetches a location by its short code.
func (s *Store) GetLocationByCode(ctx context.Context, code string) (*Location, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+locationColumns+` FROM locations WHERE code = ?`, code)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location by code: %w", err)
	}
	return loc, nil
}

// ListLocations returns all locations ordered by name.
func (s *Store) ListLocations(ctx context.Context) ([]*Location, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+locationColumns+` FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []*Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// UpdateLocationSettings edits the mutable subset of a location. Name, code,
// and timezone are fixed once items reference the site.
func (s *Store) UpdateLocationSettings(ctx context.Context, id int64, isActive bool, serverURL, address string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE locations SET is_active = ?, server_url = ?, address = ?, updated_at = ? WHERE id = ?`,
		boolToInt(isActive),
		nullableString(serverURL),
		nullableString(address),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update location settings: %w", err)
	}
	return nil
}

func scanLocation(scanner interface{ Scan(dest ...any) error }) (*Location, error) {
	var (
		id         int64
		name       string
		code       string
		address    sql.NullString
		timezone   string
		isActive   sql.NullInt64
		serverURL  sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)

	if err := scanner.Scan(&id, &name, &code, &address, &timezone, &isActive, &serverURL, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	loc := &Location{
		ID:        id,
		Name:      name,
		Code:      code,
		Address:   address.String,
		Timezone:  timezone,
		IsActive:  isActive.Valid && isActive.Int64 != 0,
		ServerURL: serverURL.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		loc.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		loc.UpdatedAt = updated
	}
	return loc, nil
}
