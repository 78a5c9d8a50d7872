package photos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/logging"
)

var photoExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Importer copies photo files into the managed photos directory and records
// them against catalog items.
type Importer struct {
	cfg    *config.Config
	store  *catalog.Store
	logger *slog.Logger
}

// NewImporter constructs a photo importer.
func NewImporter(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Importer {
	return &Importer{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "photos"),
	}
}

// Import copies a photo file into the item's photo directory and records it.
// The copy is hash-verified; a corrupted copy is removed and reported.
func (im *Importer) Import(ctx context.Context, itemID int64, sourcePath string) (*catalog.Photo, error) {
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := photoExtensions[ext]; !ok {
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}

	item, err := im.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %d not found", itemID)
	}

	destDir := filepath.Join(im.cfg.Paths.PhotosDir, fmt.Sprintf("item-%d", itemID))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo directory: %w", err)
	}
	destPath := filepath.Join(destDir, uuid.NewString()+ext)
	if err := copyFileVerified(absPath, destPath); err != nil {
		return nil, fmt.Errorf("copy photo: %w", err)
	}

	order, err := im.store.CountPhotos(ctx, itemID)
	if err != nil {
		order = 0
	}
	photo, err := im.store.AddPhoto(ctx, &catalog.Photo{
		ItemID:       itemID,
		OriginalPath: destPath,
		DisplayOrder: order,
		IsPrimary:    order == 0,
	})
	if err != nil {
		_ = os.Remove(destPath)
		return nil, err
	}

	im.logger.Info("photo imported",
		logging.Int64(logging.FieldItemID, itemID),
		logging.String("path", destPath))
	return photo, nil
}
