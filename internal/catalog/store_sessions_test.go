package catalog

import (
	"context"
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	user := seedUser(t, store, "op@example.com", RoleProcessor, loc.ID)

	if err := store.InsertSession(context.Background(), &Session{
		TokenID:   "token-1",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	session, err := store.GetSession(context.Background(), "token-1")
	if err != nil {
		t.Fatal(err)
	}
	if session == nil || session.UserID != user.ID || session.Revoked {
		t.Fatalf("session = %+v", session)
	}

	if err := store.RevokeSession(context.Background(), "token-1"); err != nil {
		t.Fatal(err)
	}
	session, err = store.GetSession(context.Background(), "token-1")
	if err != nil {
		t.Fatal(err)
	}
	if !session.Revoked {
		t.Error("session not revoked")
	}

	missing, err := store.GetSession(context.Background(), "token-unknown")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("got %+v, want nil", missing)
	}
}

func TestPurgeExpiredSessions(t *testing.T) {
	store := newTestStore(t)
	loc := seedLocation(t, store)
	user := seedUser(t, store, "op@example.com", RoleProcessor, loc.ID)

	sessions := []*Session{
		{TokenID: "stale", UserID: user.ID, ExpiresAt: time.Now().Add(-time.Hour)},
		{TokenID: "live", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)},
	}
	for _, session := range sessions {
		if err := store.InsertSession(context.Background(), session); err != nil {
			t.Fatal(err)
		}
	}

	purged, err := store.PurgeExpiredSessions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}

	session, err := store.GetSession(context.Background(), "live")
	if err != nil {
		t.Fatal(err)
	}
	if session == nil {
		t.Error("live session was purged")
	}
}
