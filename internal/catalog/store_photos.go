package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const photoColumns = "id, item_id, original_path, thumbnail_path, optimized_path, is_primary, display_order, ai_analysis_json, processed_at, created_at"

// AddPhoto attaches a photo to an item.
func (s *Store) AddPhoto(ctx context.Context, photo *Photo) (*Photo, error) {
	if photo == nil {
		return nil, errors.New("photo is nil")
	}
	if photo.OriginalPath == "" {
		return nil, errors.New("photo original path is required")
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO photos (item_id, original_path, thumbnail_path, optimized_path, is_primary, display_order, ai_analysis_json, processed_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.ItemID,
		photo.OriginalPath,
		nullableString(photo.ThumbnailPath),
		nullableString(photo.OptimizedPath),
		boolToInt(photo.IsPrimary),
		photo.DisplayOrder,
		nullableString(photo.AIAnalysisJSON),
		nullableTime(photo.ProcessedAt),
		formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
	return scanPhoto(row)
}

// PhotosByItem returns an item's photos in display order.
func (s *Store) PhotosByItem(ctx context.Context, itemID int64) ([]*Photo, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+photoColumns+` FROM photos WHERE item_id = ? ORDER BY display_order, id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("photos by item: %w", err)
	}
	defer rows.Close()

	var photos []*Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

// CountPhotos returns the number of photos attached to an item.
func (s *Store) CountPhotos(ctx context.Context, itemID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(1) FROM photos WHERE item_id = ?`, itemID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return count, nil
}

// MarkPhotoProcessed records completed processing output for a photo.
func (s *Store) MarkPhotoProcessed(ctx context.Context, id int64, thumbnailPath, optimizedPath, aiAnalysisJSON string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE photos SET thumbnail_path = ?, optimized_path = ?, ai_analysis_json = ?, processed_at = ? WHERE id = ?`,
		nullableString(thumbnailPath),
		nullableString(optimizedPath),
		nullableString(aiAnalysisJSON),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark photo processed: %w", err)
	}
	return nil
}

// SetPrimaryPhoto makes one photo primary and clears the flag on the rest.
func (s *Store) SetPrimaryPhoto(ctx context.Context, itemID, photoID int64) error {
	tx, err := s.beginTx(ensureContext(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE photos SET is_primary = 0 WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clear primary photos: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE photos SET is_primary = 1 WHERE id = ? AND item_id = ?`, photoID, itemID)
	if err != nil {
		return fmt.Errorf("set primary photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("photo %d does not belong to item %d", photoID, itemID)
	}
	return tx.Commit()
}

func scanPhoto(scanner interface{ Scan(dest ...any) error }) (*Photo, error) {
	var (
		id            int64
		itemID        int64
		originalPath  string
		thumbnailPath sql.NullString
		optimizedPath sql.NullString
		isPrimary     sql.NullInt64
		displayOrder  int
		aiAnalysis    sql.NullString
		processedRaw  sql.NullString
		createdRaw    sql.NullString
	)

	if err := scanner.Scan(&id, &itemID, &originalPath, &thumbnailPath, &optimizedPath, &isPrimary, &displayOrder, &aiAnalysis, &processedRaw, &createdRaw); err != nil {
		return nil, err
	}

	photo := &Photo{
		ID:             id,
		ItemID:         itemID,
		OriginalPath:   originalPath,
		ThumbnailPath:  thumbnailPath.String,
		OptimizedPath:  optimizedPath.String,
		IsPrimary:      isPrimary.Valid && isPrimary.Int64 != 0,
		DisplayOrder:   displayOrder,
		AIAnalysisJSON: aiAnalysis.String,
		ProcessedAt:    timePtrFromNull(processedRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		photo.CreatedAt = created
	}
	return photo, nil
}
