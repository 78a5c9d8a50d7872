package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"relist/internal/catalog"
	"relist/internal/logging"
	"relist/internal/testsupport"
)

func seedAccountAndItem(t *testing.T, store *catalog.Store, sandbox bool) *catalog.Item {
	t.Helper()

	loc := testsupport.SeedLocation(t, store, "MAIN")
	user := testsupport.SeedUser(t, store, catalog.RolePhotographer, loc.ID)
	account, err := store.NewMarketplaceAccount(context.Background(), &catalog.MarketplaceAccount{
		LocationID: loc.ID,
		Label:      "main seller",
		AuthToken:  "seller-token",
		Sandbox:    sandbox,
	})
	if err != nil {
		t.Fatalf("NewMarketplaceAccount: %v", err)
	}

	item := testsupport.SeedItem(t, store, "SKU-1", loc.ID, user.ID)
	item.MarketplaceAccountID = &account.ID
	item.Title = "vintage  leather jacket"
	item.Description = "brown leather jacket, barely worn"
	if err := store.UpdateItemFields(context.Background(), item); err != nil {
		t.Fatal(err)
	}
	return item
}

func TestPublishSandbox(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := seedAccountAndItem(t, store, false)

	client := NewClient(cfg, store, logging.NewNop())
	listingID, err := client.Publish(context.Background(), item)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.HasPrefix(listingID, "SBX-") {
		t.Errorf("listing id = %q, want SBX- prefix", listingID)
	}

	account, err := store.GetMarketplaceAccount(context.Background(), *item.MarketplaceAccountID)
	if err != nil {
		t.Fatal(err)
	}
	if account.LastSyncAt == nil {
		t.Error("sandbox publish did not record account sync")
	}
}

func TestPublishSandboxAccountOverridesLiveConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLiveMarketplace("http://127.0.0.1:1"))
	store := testsupport.MustOpenStore(t, cfg)
	item := seedAccountAndItem(t, store, true)

	client := NewClient(cfg, store, logging.NewNop())
	listingID, err := client.Publish(context.Background(), item)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.HasPrefix(listingID, "SBX-") {
		t.Errorf("listing id = %q, want sandbox identifier for sandbox account", listingID)
	}
}

func TestPublishRequiresAccount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	loc := testsupport.SeedLocation(t, store, "MAIN")
	user := testsupport.SeedUser(t, store, catalog.RolePhotographer, loc.ID)
	item := testsupport.SeedItem(t, store, "SKU-1", loc.ID, user.ID)

	client := NewClient(cfg, store, logging.NewNop())
	_, err := client.Publish(context.Background(), item)
	if !errors.Is(err, ErrNoAccount) {
		t.Fatalf("err = %v, want ErrNoAccount", err)
	}
}

func TestPublishLive(t *testing.T) {
	var gotAuth string
	var gotPayload listingPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"listing_id": "L-77"})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithLiveMarketplace(server.URL))
	store := testsupport.MustOpenStore(t, cfg)
	item := seedAccountAndItem(t, store, false)

	client := NewClient(cfg, store, logging.NewNop())
	listingID, err := client.Publish(context.Background(), item)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if listingID != "L-77" {
		t.Errorf("listing id = %q, want L-77", listingID)
	}
	if gotAuth != "Bearer seller-token" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotPayload.Title != "Vintage Leather Jacket" {
		t.Errorf("payload title = %q, want normalized", gotPayload.Title)
	}
	if len(gotPayload.Keywords) == 0 {
		t.Error("payload keywords not derived from title and description")
	}
}

func TestPublishLiveRejectionIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad listing", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithLiveMarketplace(server.URL))
	store := testsupport.MustOpenStore(t, cfg)
	item := seedAccountAndItem(t, store, false)

	client := NewClient(cfg, store, logging.NewNop())
	if _, err := client.Publish(context.Background(), item); err == nil {
		t.Fatal("expected rejection error")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx was retried: %d calls", calls.Load())
	}
}

func TestPublishLiveRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"listing_id": "L-88"})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithLiveMarketplace(server.URL))
	store := testsupport.MustOpenStore(t, cfg)
	item := seedAccountAndItem(t, store, false)

	client := NewClient(cfg, store, logging.NewNop())
	listingID, err := client.Publish(context.Background(), item)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if listingID != "L-88" {
		t.Errorf("listing id = %q, want L-88", listingID)
	}
	if calls.Load() != 2 {
		t.Errorf("got %d calls, want 2", calls.Load())
	}
}
