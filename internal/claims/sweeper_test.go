package claims

import (
	"context"
	"testing"
	"time"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/logging"
	"relist/internal/testsupport"
)

func TestSweeperReleasesStaleClaims(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(cfg *config.Config) {
		cfg.Workflow.SweepIntervalSeconds = 1
	})
	store := testsupport.MustOpenStore(t, cfg)
	loc := testsupport.SeedLocation(t, store, "MAIN")
	user := testsupport.SeedUser(t, store, catalog.RoleProcessor, loc.ID)
	item := testsupport.SeedItem(t, store, "SKU-1", loc.ID, user.ID)

	manager := NewManager(cfg, store, logging.NewNop())
	if _, err := manager.Claim(context.Background(), item.ID, user.ID); err != nil {
		t.Fatal(err)
	}

	sweeper := NewSweeper(cfg, manager, logging.NewNop())
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	// The holder has no live session, so the first sweep releases the claim.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		claim, err := manager.Holder(context.Background(), item.ID)
		if err != nil {
			t.Fatal(err)
		}
		if claim == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("claim was not swept within the deadline")
}

func TestSweeperStartStopIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := NewManager(cfg, store, logging.NewNop())
	sweeper := NewSweeper(cfg, manager, logging.NewNop())

	sweeper.Stop() // never started

	sweeper.Start(context.Background())
	sweeper.Start(context.Background()) // no-op while running
	sweeper.Stop()
	sweeper.Stop() // already stopped

	sweeper.Start(context.Background())
	sweeper.Stop()
}
