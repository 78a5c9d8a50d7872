package api

import (
	"context"

	"relist/internal/catalog"
)

// CatalogReader abstracts catalog persistence interactions needed for API
// queries.
type CatalogReader interface {
	ListItems(ctx context.Context, stages ...catalog.Stage) ([]*catalog.Item, error)
	GetItem(ctx context.Context, id int64) (*catalog.Item, error)
	CountPhotos(ctx context.Context, itemID int64) (int, error)
	GetClaim(ctx context.Context, itemID int64) (*catalog.Claim, error)
	Stats(ctx context.Context) (map[catalog.Stage]int, error)
}

// CatalogService exposes read-only catalog operations returning API DTOs.
type CatalogService struct {
	store CatalogReader
}

// NewCatalogService constructs a CatalogService around the provided reader.
func NewCatalogService(store CatalogReader) *CatalogService {
	if store == nil {
		return nil
	}
	return &CatalogService{store: store}
}

// List returns items filtered by stage.
func (s *CatalogService) List(ctx context.Context, stages ...catalog.Stage) ([]Item, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.ListItems(ctx, stages...)
	if err != nil {
		return nil, err
	}
	return FromItems(items), nil
}

// Describe fetches a single item enriched with photo count and claim state.
func (s *CatalogService) Describe(ctx context.Context, id int64) (*Item, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	item, err := s.store.GetItem(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	dto := FromItem(item)
	if count, err := s.store.CountPhotos(ctx, id); err == nil {
		dto.PhotoCount = count
	}
	if claim, err := s.store.GetClaim(ctx, id); err == nil && claim != nil {
		userID := claim.UserID
		dto.ClaimedBy = &userID
	}
	return &dto, nil
}

// Stats returns item counts keyed by stage string.
func (s *CatalogService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStats(stats), nil
}
