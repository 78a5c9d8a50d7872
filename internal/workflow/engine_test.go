package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/history"
	"relist/internal/logging"
	"relist/internal/testsupport"
)

type stubPublisher struct {
	listingID string
	err       error
	calls     int
}

func (p *stubPublisher) Publish(ctx context.Context, item *catalog.Item) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.listingID, nil
}

type fixture struct {
	cfg          *config.Config
	store        *catalog.Store
	engine       *Engine
	publisher    *stubPublisher
	location     *catalog.Location
	photographer *catalog.User
	processor    *catalog.User
	pricer       *catalog.User
	manager      *catalog.User
	admin        *catalog.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pub := &stubPublisher{listingID: "EXT-1001"}

	loc := testsupport.SeedLocation(t, store, "MAIN")
	f := &fixture{
		cfg:          cfg,
		store:        store,
		engine:       New(cfg, store, pub, logging.NewNop()),
		publisher:    pub,
		location:     loc,
		photographer: testsupport.SeedUser(t, store, catalog.RolePhotographer, loc.ID),
		processor:    testsupport.SeedUser(t, store, catalog.RoleProcessor, loc.ID),
		pricer:       testsupport.SeedUser(t, store, catalog.RolePricer, loc.ID),
		manager:      testsupport.SeedUser(t, store, catalog.RoleManager, loc.ID),
		admin:        testsupport.SeedUser(t, store, catalog.RoleAdmin, loc.ID),
	}
	return f
}

func (f *fixture) newItem(t *testing.T, sku string) *catalog.Item {
	t.Helper()
	return testsupport.SeedItem(t, f.store, sku, f.location.ID, f.photographer.ID)
}

func (f *fixture) mustTransition(t *testing.T, itemID, actorID int64, target catalog.Stage) *catalog.Item {
	t.Helper()
	item, _, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  itemID,
		ActorID: actorID,
		Target:  target,
	})
	if err != nil {
		t.Fatalf("Transition to %s: %v", target, err)
	}
	return item
}

// advanceTo walks an item from photo_upload through the legal chain, seeding
// the data each gate requires, and stops at the requested stage.
func (f *fixture) advanceTo(t *testing.T, item *catalog.Item, target catalog.Stage) *catalog.Item {
	t.Helper()

	steps := []struct {
		stage catalog.Stage
		next  catalog.Stage
		actor int64
	}{
		{catalog.StagePhotoUpload, catalog.StageAIProcessing, f.photographer.ID},
		{catalog.StageAIProcessing, catalog.StageReviewEdit, f.processor.ID},
		{catalog.StageReviewEdit, catalog.StagePricing, f.manager.ID},
		{catalog.StagePricing, catalog.StageFinalReview, f.pricer.ID},
		{catalog.StageFinalReview, catalog.StagePublished, f.manager.ID},
	}

	current := item
	for _, step := range steps {
		if current.Stage == target {
			return current
		}
		if current.Stage != step.stage {
			continue
		}
		switch step.stage {
		case catalog.StagePhotoUpload:
			testsupport.SeedPhoto(t, f.store, current.ID, fmt.Sprintf("/photos/%d-front.jpg", current.ID))
		case catalog.StagePricing:
			starting := 24.99
			shipping := 5.00
			current.StartingPrice = &starting
			current.ShippingCost = &shipping
			if err := f.store.UpdateItemFields(context.Background(), current); err != nil {
				t.Fatalf("UpdateItemFields: %v", err)
			}
		}
		current = f.mustTransition(t, current.ID, step.actor, step.next)
	}
	if current.Stage != target {
		t.Fatalf("advanceTo ended at %s, want %s", current.Stage, target)
	}
	return current
}

func TestTransitionFullPipeline(t *testing.T) {
	f := newFixture(t)
	item := f.newItem(t, "SKU-100")

	final := f.advanceTo(t, item, catalog.StagePublished)

	if final.Stage != catalog.StagePublished {
		t.Fatalf("stage = %s, want published", final.Stage)
	}
	if final.Status != catalog.StatusCompleted {
		t.Errorf("status = %s, want completed", final.Status)
	}
	if final.PublishedAt == nil {
		t.Error("published item has no publication timestamp")
	}
	if final.ExternalListingID != "EXT-1001" {
		t.Errorf("external listing id = %q, want EXT-1001", final.ExternalListingID)
	}
	if f.publisher.calls != 1 {
		t.Errorf("publisher called %d times, want 1", f.publisher.calls)
	}

	actions, err := f.store.ActionsByItem(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 5 {
		t.Fatalf("got %d actions, want 5", len(actions))
	}
	if err := history.VerifyChain(item.ID, actions); err != nil {
		t.Errorf("action chain broken: %v", err)
	}
	last := actions[len(actions)-1]
	if last.Action != ActionPublish || last.ToStage != catalog.StagePublished {
		t.Errorf("final action = %s -> %s (%s), want publish into published", last.FromStage, last.ToStage, last.Action)
	}

	stored, err := f.store.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ExternalListingID != "EXT-1001" {
		t.Errorf("stored external listing id = %q", stored.ExternalListingID)
	}
}

func TestTransitionRequiresPhoto(t *testing.T) {
	f := newFixture(t)
	item := f.newItem(t, "SKU-101")

	_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  item.ID,
		ActorID: f.photographer.ID,
		Target:  catalog.StageAIProcessing,
	})
	if !errors.Is(err, ErrIncompleteData) {
		t.Fatalf("err = %v, want ErrIncompleteData", err)
	}
	assertUnchanged(t, f.store, item.ID, catalog.StagePhotoUpload, 0)
}

func TestTransitionRequiresCompletePricing(t *testing.T) {
	f := newFixture(t)
	item := f.advanceTo(t, f.newItem(t, "SKU-102"), catalog.StagePricing)

	// Buy-now price alone does not satisfy the pricing gate.
	buyNow := 49.99
	item.StartingPrice = nil
	item.ShippingCost = nil
	item.BuyNowPrice = &buyNow
	if err := f.store.UpdateItemFields(context.Background(), item); err != nil {
		t.Fatal(err)
	}

	_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  item.ID,
		ActorID: f.pricer.ID,
		Target:  catalog.StageFinalReview,
	})
	if !errors.Is(err, ErrIncompleteData) {
		t.Fatalf("err = %v, want ErrIncompleteData", err)
	}
	assertUnchanged(t, f.store, item.ID, catalog.StagePricing, 3)
}

func TestTransitionPermissionDenied(t *testing.T) {
	f := newFixture(t)
	item := f.advanceTo(t, f.newItem(t, "SKU-103"), catalog.StageReviewEdit)

	_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  item.ID,
		ActorID: f.pricer.ID,
		Target:  catalog.StagePricing,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	assertUnchanged(t, f.store, item.ID, catalog.StageReviewEdit, 2)
}

func TestTransitionUnknownActor(t *testing.T) {
	f := newFixture(t)
	item := f.newItem(t, "SKU-104")

	_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  item.ID,
		ActorID: 9999,
		Target:  catalog.StageAIProcessing,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestTransitionUnknownItem(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  9999,
		ActorID: f.admin.ID,
		Target:  catalog.StageAIProcessing,
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestTransitionIllegalJump(t *testing.T) {
	f := newFixture(t)
	item := f.newItem(t, "SKU-105")

	_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  item.ID,
		ActorID: f.admin.ID,
		Target:  catalog.StagePublished,
	})
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("err = %v, want ErrIllegalTransition", err)
	}
}

func TestTransitionTerminalStageFrozen(t *testing.T) {
	f := newFixture(t)
	item := f.newItem(t, "SKU-106")
	f.mustTransition(t, item.ID, f.admin.ID, catalog.StageRejected)

	for _, target := range catalog.AllStages() {
		_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
			ItemID:  item.ID,
			ActorID: f.admin.ID,
			Target:  target,
		})
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("rejected -> %s: err = %v, want ErrInvalidState", target, err)
		}
	}
	assertUnchanged(t, f.store, item.ID, catalog.StageRejected, 1)
}

func TestTransitionClaimConflict(t *testing.T) {
	f := newFixture(t)
	item := f.advanceTo(t, f.newItem(t, "SKU-107"), catalog.StageAIProcessing)

	// Another operator holds the claim; the processor may not move the item.
	if _, err := f.store.InsertClaim(context.Background(), item.ID, f.photographer.ID); err != nil {
		t.Fatal(err)
	}

	_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  item.ID,
		ActorID: f.processor.ID,
		Target:  catalog.StageReviewEdit,
	})
	if !errors.Is(err, ErrClaimConflict) {
		t.Fatalf("err = %v, want ErrClaimConflict", err)
	}
	assertUnchanged(t, f.store, item.ID, catalog.StageAIProcessing, 1)
}

func TestTransitionManagerOverridesClaim(t *testing.T) {
	f := newFixture(t)
	item := f.advanceTo(t, f.newItem(t, "SKU-108"), catalog.StageReviewEdit)

	if _, err := f.store.InsertClaim(context.Background(), item.ID, f.processor.ID); err != nil {
		t.Fatal(err)
	}

	updated := f.mustTransition(t, item.ID, f.manager.ID, catalog.StagePricing)
	if updated.Stage != catalog.StagePricing {
		t.Fatalf("stage = %s, want pricing", updated.Stage)
	}

	// The override moves the item but leaves the holder's claim alone.
	claim, err := f.store.GetClaim(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if claim == nil || claim.UserID != f.processor.ID {
		t.Errorf("claim = %+v, want held by processor", claim)
	}
}

func TestTransitionReleasesActorClaim(t *testing.T) {
	f := newFixture(t)
	item := f.newItem(t, "SKU-109")
	testsupport.SeedPhoto(t, f.store, item.ID, "/photos/109-front.jpg")

	if _, err := f.store.InsertClaim(context.Background(), item.ID, f.photographer.ID); err != nil {
		t.Fatal(err)
	}

	f.mustTransition(t, item.ID, f.photographer.ID, catalog.StageAIProcessing)

	claim, err := f.store.GetClaim(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if claim != nil {
		t.Errorf("claim survived the transition: %+v", claim)
	}
	user, err := f.store.GetUser(context.Background(), f.photographer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if user.CurrentItemID != nil {
		t.Errorf("current_item_id = %v, want cleared", *user.CurrentItemID)
	}
}

func TestTransitionConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	item := f.newItem(t, "SKU-110")
	testsupport.SeedPhoto(t, f.store, item.ID, "/photos/110-front.jpg")

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, _, err := f.engine.Transition(context.Background(), TransitionRequest{
				ItemID:  item.ID,
				ActorID: f.photographer.ID,
				Target:  catalog.StageAIProcessing,
			})
			errs[slot] = err
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrContention), errors.Is(err, ErrIllegalTransition):
			// Losers observe either the conditional-commit miss or the
			// already-advanced stage, depending on when they loaded the item.
		default:
			t.Errorf("unexpected loser error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("got %d winners, want exactly 1", wins)
	}
	assertUnchanged(t, f.store, item.ID, catalog.StageAIProcessing, 1)
}

func TestTransitionStoresNotesAndChanges(t *testing.T) {
	f := newFixture(t)
	item := f.advanceTo(t, f.newItem(t, "SKU-111"), catalog.StageAIProcessing)

	_, applied, err := f.engine.Transition(context.Background(), TransitionRequest{
		ItemID:  item.ID,
		ActorID: f.processor.ID,
		Target:  catalog.StageReviewEdit,
		Notes:   "fixed the brand",
		Changes: map[string]any{"brand": "Acme"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if applied.Notes != "fixed the brand" {
		t.Errorf("notes = %q", applied.Notes)
	}
	if applied.ChangesJSON == "" {
		t.Error("changes diff was not recorded")
	}
	if applied.ID == 0 || applied.CreatedAt.IsZero() {
		t.Errorf("applied action missing identity: %+v", applied)
	}
}

func TestPublishFailureRecordsFollowUp(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("marketplace down")

	item := f.advanceTo(t, f.newItem(t, "SKU-112"), catalog.StagePublished)

	if item.Stage != catalog.StagePublished {
		t.Fatalf("stage = %s, want published despite adapter failure", item.Stage)
	}
	if item.ExternalListingID != "" {
		t.Errorf("external listing id = %q, want empty", item.ExternalListingID)
	}

	actions, err := f.store.ActionsByItem(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 6 {
		t.Fatalf("got %d actions, want 6", len(actions))
	}
	last := actions[len(actions)-1]
	if last.Action != ActionPublishFailed {
		t.Errorf("last action = %q, want %q", last.Action, ActionPublishFailed)
	}
	if last.FromStage != catalog.StagePublished || last.ToStage != catalog.StagePublished {
		t.Errorf("failure record spans %s -> %s, want published on both ends", last.FromStage, last.ToStage)
	}
	if err := history.VerifyChain(item.ID, actions); err != nil {
		t.Errorf("failure record broke the chain: %v", err)
	}
}

// hangupPublisher simulates a caller that disconnects while the adapter call
// is in flight: it cancels the request context from inside Publish.
type hangupPublisher struct {
	cancel context.CancelFunc
	err    error
}

func (p *hangupPublisher) Publish(ctx context.Context, item *catalog.Item) (string, error) {
	p.cancel()
	return "", p.err
}

func TestPublishFailureSurvivesCallerHangup(t *testing.T) {
	f := newFixture(t)
	item := f.advanceTo(t, f.newItem(t, "SKU-113"), catalog.StageFinalReview)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := &hangupPublisher{cancel: cancel, err: errors.New("marketplace down")}
	engine := New(f.cfg, f.store, pub, logging.NewNop())

	updated, _, err := engine.Transition(ctx, TransitionRequest{
		ItemID:  item.ID,
		ActorID: f.manager.ID,
		Target:  catalog.StagePublished,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Stage != catalog.StagePublished {
		t.Fatalf("stage = %s, want published", updated.Stage)
	}

	actions, err := f.store.ActionsByItem(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	last := actions[len(actions)-1]
	if last.Action != ActionPublishFailed {
		t.Fatalf("last action = %q, want %q after caller hangup", last.Action, ActionPublishFailed)
	}
	if err := history.VerifyChain(item.ID, actions); err != nil {
		t.Errorf("failure record broke the chain: %v", err)
	}
}

func TestTransitionIgnoresOperationalStatus(t *testing.T) {
	f := newFixture(t)
	item := f.newItem(t, "SKU-114")
	testsupport.SeedPhoto(t, f.store, item.ID, "/photos/error-case.jpg")

	if err := f.store.SetItemStatus(context.Background(), item.ID, catalog.StatusError); err != nil {
		t.Fatal(err)
	}

	updated := f.mustTransition(t, item.ID, f.photographer.ID, catalog.StageAIProcessing)
	if updated.Stage != catalog.StageAIProcessing {
		t.Fatalf("stage = %s, want ai_processing", updated.Stage)
	}
	if updated.Status != catalog.StatusError {
		t.Errorf("status = %s, want error to survive the stage change", updated.Status)
	}
}

func TestRejectFromEveryStage(t *testing.T) {
	f := newFixture(t)

	stages := []catalog.Stage{
		catalog.StagePhotoUpload,
		catalog.StageAIProcessing,
		catalog.StageReviewEdit,
		catalog.StagePricing,
		catalog.StageFinalReview,
	}
	for i, stage := range stages {
		item := f.advanceTo(t, f.newItem(t, fmt.Sprintf("SKU-2%02d", i)), stage)

		updated, applied, err := f.engine.Transition(context.Background(), TransitionRequest{
			ItemID:  item.ID,
			ActorID: f.admin.ID,
			Target:  catalog.StageRejected,
		})
		if err != nil {
			t.Fatalf("reject from %s: %v", stage, err)
		}
		if updated.Stage != catalog.StageRejected {
			t.Errorf("reject from %s: stage = %s", stage, updated.Stage)
		}
		if applied.Action != ActionReject {
			t.Errorf("reject from %s: action = %q", stage, applied.Action)
		}
	}
}

func TestHistoryReplayMatchesStoredStage(t *testing.T) {
	f := newFixture(t)
	reader := history.NewReader(f.store)

	item := f.advanceTo(t, f.newItem(t, "SKU-113"), catalog.StageFinalReview)

	replayed, err := reader.Replay(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := f.store.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if replayed != stored.Stage {
		t.Errorf("replayed stage %s != stored stage %s", replayed, stored.Stage)
	}

	fresh := f.newItem(t, "SKU-114")
	replayed, err = reader.Replay(context.Background(), fresh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if replayed != catalog.StagePhotoUpload {
		t.Errorf("fresh item replays to %s, want photo_upload", replayed)
	}
}

// assertUnchanged verifies a failed transition left no trace: the item is
// still at the expected stage and no audit record was appended beyond the
// expected count.
func assertUnchanged(t *testing.T, store *catalog.Store, itemID int64, stage catalog.Stage, actionCount int) {
	t.Helper()

	item, err := store.GetItem(context.Background(), itemID)
	if err != nil {
		t.Fatal(err)
	}
	if item.Stage != stage {
		t.Errorf("stage = %s, want %s", item.Stage, stage)
	}
	actions, err := store.ActionsByItem(context.Background(), itemID)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != actionCount {
		t.Errorf("got %d actions, want %d", len(actions), actionCount)
	}
}
