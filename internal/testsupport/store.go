package testsupport

import (
	"context"
	"fmt"
	"testing"

	"relist/internal/catalog"
	"relist/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedLocation creates a store location for tests.
func SeedLocation(t testing.TB, store *catalog.Store, code string) *catalog.Location {
	t.Helper()

	loc, err := store.NewLocation(context.Background(), &catalog.Location{
		Name:     "Test Store " + code,
		Code:     code,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("store.NewLocation: %v", err)
	}
	return loc
}

// SeedUser creates an operator account for tests. The password hash is a
// placeholder; tests exercising login go through identity.Service instead.
func SeedUser(t testing.TB, store *catalog.Store, role catalog.Role, locationID int64) *catalog.User {
	t.Helper()

	user, err := store.NewUser(context.Background(), &catalog.User{
		Email:        fmt.Sprintf("%s-%d@example.com", role, locationID),
		Name:         "Test " + string(role),
		Role:         role,
		PasswordHash: "unusable",
		LocationID:   &locationID,
	})
	if err != nil {
		t.Fatalf("store.NewUser: %v", err)
	}
	return user
}

// SeedItem creates an item at the initial stage for tests.
func SeedItem(t testing.TB, store *catalog.Store, sku string, locationID, createdBy int64) *catalog.Item {
	t.Helper()

	item, err := store.NewItem(context.Background(), &catalog.Item{
		SKU:        sku,
		LocationID: locationID,
		CreatedBy:  createdBy,
		Title:      "Test item " + sku,
	})
	if err != nil {
		t.Fatalf("store.NewItem: %v", err)
	}
	return item
}

// SeedPhoto attaches a photo record to an item for tests.
func SeedPhoto(t testing.TB, store *catalog.Store, itemID int64, path string) *catalog.Photo {
	t.Helper()

	photo, err := store.AddPhoto(context.Background(), &catalog.Photo{
		ItemID:       itemID,
		OriginalPath: path,
	})
	if err != nil {
		t.Fatalf("store.AddPhoto: %v", err)
	}
	return photo
}
