package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"relist/internal/api"
	"relist/internal/catalog"
	"relist/internal/claims"
	"relist/internal/config"
	"relist/internal/identity"
	"relist/internal/logging"
	"relist/internal/marketplace"
	"relist/internal/testsupport"
	"relist/internal/workflow"
)

type testHarness struct {
	daemon   *Daemon
	store    *catalog.Store
	baseURL  string
	location *catalog.Location
}

func buildDaemon(t *testing.T, cfg *config.Config, store *catalog.Store) *Daemon {
	t.Helper()

	logger := logging.NewNop()
	identitySvc, err := identity.NewService(cfg, store, logger)
	if err != nil {
		t.Fatalf("identity.NewService: %v", err)
	}
	publisher := marketplace.NewClient(cfg, store, logger)
	engine := workflow.New(cfg, store, publisher, logger)
	claimMgr := claims.NewManager(cfg, store, logger)
	sweeper := claims.NewSweeper(cfg, claimMgr, logger)

	d, err := New(cfg, store, logger, engine, claimMgr, sweeper, identitySvc)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func startHarness(t *testing.T) *testHarness {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := buildDaemon(t, cfg, store)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	loc := testsupport.SeedLocation(t, store, "MAIN")
	return &testHarness{
		daemon:   d,
		store:    store,
		baseURL:  "http://" + d.APIAddr(),
		location: loc,
	}
}

// registerOperator creates an account with a usable password through the
// identity service, bypassing the seeded placeholder hash.
func (h *testHarness) registerOperator(t *testing.T, email string, role catalog.Role) *catalog.User {
	t.Helper()

	user, err := h.daemon.identity.Register(context.Background(), &catalog.User{
		Email:      email,
		Name:       "Operator " + email,
		Role:       role,
		LocationID: &h.location.ID,
	}, "hunter2")
	if err != nil {
		t.Fatalf("Register %s: %v", email, err)
	}
	return user
}

func (h *testHarness) login(t *testing.T, email string) string {
	t.Helper()

	body, _ := json.Marshal(api.LoginRequest{Email: email, Password: "hunter2"})
	resp, err := http.Post(h.baseURL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var decoded api.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Token == "" {
		t.Fatal("empty token from login")
	}
	return decoded.Token
}

func (h *testHarness) request(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.baseURL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first := buildDaemon(t, cfg, store)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	// Second instance must fail on the daemon lock, so give it a free port.
	secondCfg := *cfg
	secondCfg.Paths.APIBind = "127.0.0.1:0"
	second := buildDaemon(t, &secondCfg, store)
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second daemon instance acquired the lock")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("restart after release: %v", err)
	}
	second.Stop()
}

func TestAPIRequiresAuthentication(t *testing.T) {
	h := startHarness(t)

	paths := []string{"/api/items", "/api/status", "/api/claims"}
	for _, path := range paths {
		resp := h.request(t, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, resp.StatusCode)
		}
	}

	resp := h.request(t, http.MethodGet, "/api/items", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", resp.StatusCode)
	}
}

func TestAPILoginRejectsBadCredentials(t *testing.T) {
	h := startHarness(t)
	h.registerOperator(t, "op@example.com", catalog.RoleProcessor)

	body, _ := json.Marshal(api.LoginRequest{Email: "op@example.com", Password: "wrong"})
	resp, err := http.Post(h.baseURL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAPIStationWorkflow(t *testing.T) {
	h := startHarness(t)
	photographer := h.registerOperator(t, "photo@example.com", catalog.RolePhotographer)
	item := testsupport.SeedItem(t, h.store, "SKU-1", h.location.ID, photographer.ID)
	testsupport.SeedPhoto(t, h.store, item.ID, "/photos/front.jpg")

	token := h.login(t, "photo@example.com")

	// Claim the item, then advance it out of photo_upload.
	resp := h.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/claim", item.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim status = %d", resp.StatusCode)
	}

	resp = h.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/transition", item.ID), token, api.TransitionRequest{
		Target: "ai_processing",
		Notes:  "photos done",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transition status = %d", resp.StatusCode)
	}
	var transition api.TransitionResponse
	if err := json.NewDecoder(resp.Body).Decode(&transition); err != nil {
		t.Fatal(err)
	}
	if transition.Item.Stage != "ai_processing" {
		t.Errorf("item stage = %q", transition.Item.Stage)
	}
	if transition.Action.Action != "advance" {
		t.Errorf("action = %q", transition.Action.Action)
	}

	// The transition released the claim.
	resp = h.request(t, http.MethodGet, "/api/claims", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claims status = %d", resp.StatusCode)
	}
	var claimList api.ClaimListResponse
	if err := json.NewDecoder(resp.Body).Decode(&claimList); err != nil {
		t.Fatal(err)
	}
	if len(claimList.Claims) != 0 {
		t.Errorf("claims after transition = %+v", claimList.Claims)
	}

	// History shows the recorded action.
	resp = h.request(t, http.MethodGet, fmt.Sprintf("/api/items/%d/history", item.ID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d", resp.StatusCode)
	}
	var hist api.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.Actions) != 1 || hist.Actions[0].ToStage != "ai_processing" {
		t.Errorf("history = %+v", hist.Actions)
	}
}

func TestAPITransitionErrorMapping(t *testing.T) {
	h := startHarness(t)
	photographer := h.registerOperator(t, "photo@example.com", catalog.RolePhotographer)
	h.registerOperator(t, "pricer@example.com", catalog.RolePricer)
	item := testsupport.SeedItem(t, h.store, "SKU-1", h.location.ID, photographer.ID)

	photoToken := h.login(t, "photo@example.com")
	pricerToken := h.login(t, "pricer@example.com")

	// Role gate: a pricer may not move a photo_upload item.
	resp := h.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/transition", item.ID), pricerToken, api.TransitionRequest{
		Target: "ai_processing",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("role gate status = %d, want 403", resp.StatusCode)
	}

	// Completeness gate: no photo yet.
	resp = h.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/transition", item.ID), photoToken, api.TransitionRequest{
		Target: "ai_processing",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("completeness status = %d, want 422", resp.StatusCode)
	}

	// Unknown target stage.
	resp = h.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/transition", item.ID), photoToken, api.TransitionRequest{
		Target: "warehouse",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad target status = %d, want 400", resp.StatusCode)
	}

	// Unknown item on claim.
	resp = h.request(t, http.MethodPost, "/api/items/999/claim", photoToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown item status = %d, want 404", resp.StatusCode)
	}

	// Claim conflict surfaces as 409.
	resp = h.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/claim", item.ID), photoToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim status = %d", resp.StatusCode)
	}
	resp = h.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/claim", item.ID), pricerToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("rival claim status = %d, want 409", resp.StatusCode)
	}
	resp = h.request(t, http.MethodPost, fmt.Sprintf("/api/items/%d/release", item.ID), pricerToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("rival release status = %d, want 409", resp.StatusCode)
	}
}

func TestAPIStatusAndItems(t *testing.T) {
	h := startHarness(t)
	photographer := h.registerOperator(t, "photo@example.com", catalog.RolePhotographer)
	testsupport.SeedItem(t, h.store, "SKU-1", h.location.ID, photographer.ID)
	token := h.login(t, "photo@example.com")

	resp := h.request(t, http.MethodGet, "/api/status", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if !status.Running || status.StageCounts["photo_upload"] != 1 {
		t.Errorf("daemon status = %+v", status)
	}

	resp = h.request(t, http.MethodGet, "/api/items?stage=photo_upload", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("items status = %d", resp.StatusCode)
	}
	var list api.ItemListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 1 || list.Items[0].SKU != "SKU-1" {
		t.Errorf("items = %+v", list.Items)
	}

	resp = h.request(t, http.MethodGet, "/api/items?stage=bogus", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bogus stage filter status = %d, want 400", resp.StatusCode)
	}
}

func TestAPILogoutInvalidatesToken(t *testing.T) {
	h := startHarness(t)
	h.registerOperator(t, "op@example.com", catalog.RoleProcessor)
	token := h.login(t, "op@example.com")

	resp := h.request(t, http.MethodPost, "/api/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp = h.request(t, http.MethodGet, "/api/items", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("revoked token status = %d, want 401", resp.StatusCode)
	}
}
