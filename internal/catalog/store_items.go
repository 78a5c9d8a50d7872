package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, sku, stage, status, location_id, marketplace_account_id, created_by, " +
	"title, description, category, condition, brand, features_json, keywords_json, ai_analysis_json, " +
	"starting_price, buy_now_price, shipping_cost, external_listing_id, published_at, created_at, updated_at"

// NewItem inserts an item at the start of the pipeline.
func (s *Store) NewItem(ctx context.Context, item *Item) (*Item, error) {
	if item == nil {
		return nil, errors.New("item is nil")
	}
	if item.Stage == "" {
		item.Stage = StagePhotoUpload
	}
	if item.Status == "" {
		item.Status = StatusActive
	}
	if !item.Stage.Valid() {
		return nil, fmt.Errorf("invalid stage %q", item.Stage)
	}
	if !item.Status.Valid() {
		return nil, fmt.Errorf("invalid status %q", item.Status)
	}

	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO items (
            sku, stage, status, location_id, marketplace_account_id, created_by,
            title, description, category, condition, brand,
            features_json, keywords_json, ai_analysis_json,
            starting_price, buy_now_price, shipping_cost,
            external_listing_id, published_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(item.SKU),
		item.Stage,
		item.Status,
		item.LocationID,
		nullableInt64(item.MarketplaceAccountID),
		item.CreatedBy,
		nullableString(item.Title),
		nullableString(item.Description),
		nullableString(item.Category),
		nullableString(item.Condition),
		nullableString(item.Brand),
		nullableString(item.FeaturesJSON),
		nullableString(item.KeywordsJSON),
		nullableString(item.AIAnalysisJSON),
		nullableFloat(item.StartingPrice),
		nullableFloat(item.BuyNowPrice),
		nullableFloat(item.ShippingCost),
		nullableString(item.ExternalListingID),
		nullableTime(item.PublishedAt),
		timestamp,
		timestamp,
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItem(ctx, id)
}

// GetItem fetches an item by identifier. Returns nil when no row exists.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetItemBySKU fetches an item by its SKU.
func (s *Store) GetItemBySKU(ctx context.Context, sku string) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM items WHERE sku = ?`, sku)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by sku: %w", err)
	}
	return item, nil
}

// ListItems returns items filtered by stage set (or all items when no stage
// is provided), ordered by creation time.
func (s *Store) ListItems(ctx context.Context, stages ...Stage) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM items`
	orderClause := ` ORDER BY created_at, id`

	if len(stages) == 0 {
		rows, err = s.db.QueryContext(ensureContext(ctx), baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(stages))
		args := make([]any, len(stages))
		for i, stage := range stages {
			args[i] = stage
		}
		rows, err = s.db.QueryContext(ensureContext(ctx), baseQuery+` WHERE stage IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ItemsByLocation returns items owned by a location, ordered by creation time.
func (s *Store) ItemsByLocation(ctx context.Context, locationID int64) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM items WHERE location_id = ? ORDER BY created_at, id`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("items by location: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItemFields persists listing detail and pricing edits. The stage and
// status columns are deliberately excluded; those change only through
// CommitTransition.
func (s *Store) UpdateItemFields(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE items
         SET sku = ?, marketplace_account_id = ?, title = ?, description = ?,
             category = ?, condition = ?, brand = ?, features_json = ?,
             keywords_json = ?, ai_analysis_json = ?, starting_price = ?,
             buy_now_price = ?, shipping_cost = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.SKU),
		nullableInt64(item.MarketplaceAccountID),
		nullableString(item.Title),
		nullableString(item.Description),
		nullableString(item.Category),
		nullableString(item.Condition),
		nullableString(item.Brand),
		nullableString(item.FeaturesJSON),
		nullableString(item.KeywordsJSON),
		nullableString(item.AIAnalysisJSON),
		nullableFloat(item.StartingPrice),
		nullableFloat(item.BuyNowPrice),
		nullableFloat(item.ShippingCost),
		formatTime(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// SetItemStatus changes an item's operational status without touching its stage.
func (s *Store) SetItemStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE items SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set item status: %w", err)
	}
	return nil
}

// SetExternalListing records the marketplace listing identifier after a
// successful publication call.
func (s *Store) SetExternalListing(ctx context.Context, id int64, externalID string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE items SET external_listing_id = ?, updated_at = ? WHERE id = ?`,
		nullableString(externalID),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set external listing: %w", err)
	}
	return nil
}

// RemoveItem deletes an item and, via cascade, its photos, actions, and claim.
func (s *Store) RemoveItem(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of items grouped by stage.
func (s *Store) Stats(ctx context.Context) (map[Stage]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT stage, COUNT(1) FROM items GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Stage]int)
	for rows.Next() {
		var stage Stage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stats[stage] = count
	}
	return stats, rows.Err()
}

// Summary aggregates item counts into pipeline health buckets.
func (s *Store) Summary(ctx context.Context) (StatsSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return StatsSummary{}, err
	}
	summary := StatsSummary{}
	for stage, count := range stats {
		summary.Total += count
		switch stage {
		case StagePublished:
			summary.Published += count
		case StageRejected:
			summary.Rejected += count
		default:
			summary.InFlight += count
		}
	}
	return summary, nil
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id            int64
		sku           sql.NullString
		stageStr      string
		statusStr     string
		locationID    int64
		accountID     sql.NullInt64
		createdBy     int64
		title         sql.NullString
		description   sql.NullString
		category      sql.NullString
		condition     sql.NullString
		brand         sql.NullString
		features      sql.NullString
		keywords      sql.NullString
		aiAnalysis    sql.NullString
		startingPrice sql.NullFloat64
		buyNowPrice   sql.NullFloat64
		shippingCost  sql.NullFloat64
		externalID    sql.NullString
		publishedRaw  sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sku,
		&stageStr,
		&statusStr,
		&locationID,
		&accountID,
		&createdBy,
		&title,
		&description,
		&category,
		&condition,
		&brand,
		&features,
		&keywords,
		&aiAnalysis,
		&startingPrice,
		&buyNowPrice,
		&shippingCost,
		&externalID,
		&publishedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:                   id,
		SKU:                  sku.String,
		Stage:                Stage(stageStr),
		Status:               Status(statusStr),
		LocationID:           locationID,
		MarketplaceAccountID: int64PtrFromNull(accountID),
		CreatedBy:            createdBy,
		Title:                title.String,
		Description:          description.String,
		Category:             category.String,
		Condition:            condition.String,
		Brand:                brand.String,
		FeaturesJSON:         features.String,
		KeywordsJSON:         keywords.String,
		AIAnalysisJSON:       aiAnalysis.String,
		StartingPrice:        floatPtrFromNull(startingPrice),
		BuyNowPrice:          floatPtrFromNull(buyNowPrice),
		ShippingCost:         floatPtrFromNull(shippingCost),
		ExternalListingID:    externalID.String,
		PublishedAt:          timePtrFromNull(publishedRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
