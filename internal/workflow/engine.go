package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"relist/internal/catalog"
	"relist/internal/config"
	"relist/internal/logging"
	"relist/internal/marketplace"
)

// Engine is the sole authority for changing an item's stage. Every transition
// is validated against the legal-transition and role-gate tables, checked for
// claim conflicts and stage-specific data completeness, and committed
// atomically together with its audit record and claim release.
type Engine struct {
	store          *catalog.Store
	publisher      marketplace.Publisher
	logger         *slog.Logger
	storageRetries int
	publishTimeout time.Duration
}

// New constructs a workflow engine. The publisher may be nil, in which case
// published items simply skip the external listing call.
func New(cfg *config.Config, store *catalog.Store, publisher marketplace.Publisher, logger *slog.Logger) *Engine {
	retries := 1
	timeout := 30 * time.Second
	if cfg != nil {
		retries = cfg.Workflow.StorageRetries
		if cfg.Marketplace.RequestTimeout > 0 {
			timeout = time.Duration(cfg.Marketplace.RequestTimeout) * time.Second
		}
	}
	return &Engine{
		store:          store,
		publisher:      publisher,
		logger:         logging.NewComponentLogger(logger, "workflow-engine"),
		storageRetries: retries,
		publishTimeout: timeout,
	}
}

// TransitionRequest describes one requested stage change.
type TransitionRequest struct {
	ItemID  int64
	ActorID int64
	Target  catalog.Stage
	Notes   string
	// Changes optionally carries a structured diff of the listing edits that
	// accompanied this transition; it is stored verbatim on the audit record.
	Changes map[string]any
}

// Transition validates and applies a stage change. On success it returns the
// updated item and the audit record appended for it. Precondition failures
// map to the sentinel errors in errors.go, checked in a fixed order: item
// state, transition legality, role, claim, data completeness.
func (e *Engine) Transition(ctx context.Context, req TransitionRequest) (*catalog.Item, *catalog.WorkflowAction, error) {
	logger := logging.WithContext(ctx, e.logger).With(
		logging.Int64(logging.FieldItemID, req.ItemID),
		logging.Int64(logging.FieldUserID, req.ActorID),
		logging.String("target", string(req.Target)),
	)

	actor, err := e.store.GetUser(ctx, req.ActorID)
	if err != nil {
		return nil, nil, Wrap(ErrStorage, "transition", "load actor", err)
	}
	if actor == nil {
		return nil, nil, Wrap(ErrPermissionDenied, "transition", fmt.Sprintf("unknown operator %d", req.ActorID), nil)
	}

	item, err := e.store.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, nil, Wrap(ErrStorage, "transition", "load item", err)
	}
	if item == nil {
		return nil, nil, Wrap(ErrInvalidState, "transition", fmt.Sprintf("item %d not found", req.ItemID), nil)
	}
	if item.Stage.Terminal() {
		return nil, nil, Wrap(ErrInvalidState, "transition", fmt.Sprintf("stage %s is terminal", item.Stage), nil)
	}

	if !req.Target.Valid() || !TransitionAllowed(item.Stage, req.Target) {
		return nil, nil, Wrap(ErrIllegalTransition, "transition", fmt.Sprintf("%s -> %s", item.Stage, req.Target), nil)
	}

	if !RoleAllowed(item.Stage, req.Target, actor.Role) {
		return nil, nil, Wrap(ErrPermissionDenied,
			"transition",
			fmt.Sprintf("role %s may not move %s -> %s", actor.Role, item.Stage, req.Target), nil)
	}

	claim, err := e.store.GetClaim(ctx, item.ID)
	if err != nil {
		return nil, nil, Wrap(ErrStorage, "transition", "load claim", err)
	}
	if claim != nil && claim.UserID != actor.ID && !actor.Role.Override() {
		return nil, nil, Wrap(ErrClaimConflict,
			"transition",
			fmt.Sprintf("item %d is being edited by user %d", item.ID, claim.UserID), nil)
	}

	if err := checkCompleteness(ctx, e.store, item, req.Target); err != nil {
		return nil, nil, err
	}

	updated := *item
	updated.Stage = req.Target
	if req.Target == catalog.StagePublished {
		now := time.Now().UTC()
		updated.PublishedAt = &now
		updated.Status = catalog.StatusCompleted
	}

	changesJSON := ""
	if len(req.Changes) > 0 {
		encoded, err := json.Marshal(req.Changes)
		if err != nil {
			return nil, nil, Wrap(ErrStorage, "transition", "encode changes", err)
		}
		changesJSON = string(encoded)
	}

	action := &catalog.WorkflowAction{
		ItemID:      item.ID,
		UserID:      actor.ID,
		FromStage:   item.Stage,
		ToStage:     req.Target,
		Action:      ActionLabel(item.Stage, req.Target),
		Notes:       req.Notes,
		ChangesJSON: changesJSON,
	}

	commit := catalog.TransitionCommit{
		Item:          &updated,
		ExpectedStage: item.Stage,
		Action:        action,
		ReleaseClaim:  claim != nil && claim.UserID == actor.ID,
		ActorID:       actor.ID,
	}

	applied, err := e.commitWithRetry(ctx, commit)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("transition applied",
		logging.String("from", string(applied.FromStage)),
		logging.String("to", string(applied.ToStage)),
		logging.String("action", applied.Action))

	if req.Target == catalog.StagePublished {
		e.publishItem(ctx, &updated, actor.ID)
	}

	return &updated, applied, nil
}

func (e *Engine) commitWithRetry(ctx context.Context, commit catalog.TransitionCommit) (*catalog.WorkflowAction, error) {
	var lastErr error
	for attempt := 0; attempt <= e.storageRetries; attempt++ {
		applied, err := e.store.CommitTransition(ctx, commit)
		if err == nil {
			return applied, nil
		}
		switch {
		case errors.Is(err, catalog.ErrStaleItem):
			return nil, Wrap(ErrContention, "transition", "item changed concurrently", err)
		case errors.Is(err, catalog.ErrBusy):
			return nil, Wrap(ErrContention, "transition", "catalog write lock busy", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		}
		lastErr = err
	}
	return nil, Wrap(ErrStorage, "transition", "atomic commit failed", lastErr)
}

// publishItem invokes the external-publication adapter after the local state
// has durably committed. Adapter failure is recorded as a follow-up audit
// record with from == to == published, preserving per-item continuity, and
// never rolls the stage back.
func (e *Engine) publishItem(ctx context.Context, item *catalog.Item, actorID int64) {
	if e.publisher == nil {
		return
	}

	// The local commit is already durable; neither the adapter call nor the
	// failure record may be lost to the caller hanging up.
	ctx = context.WithoutCancel(ctx)
	publishCtx, cancel := context.WithTimeout(ctx, e.publishTimeout)
	defer cancel()

	logger := e.logger.With(logging.Int64(logging.FieldItemID, item.ID))

	externalID, err := e.publisher.Publish(publishCtx, item)
	if err != nil {
		logger.Warn("external publication failed", logging.Error(err))
		followUp := &catalog.WorkflowAction{
			ItemID:    item.ID,
			UserID:    actorID,
			FromStage: catalog.StagePublished,
			ToStage:   catalog.StagePublished,
			Action:    ActionPublishFailed,
			Notes:     err.Error(),
		}
		if _, recordErr := e.store.AppendAction(ctx, followUp); recordErr != nil {
			logger.Error("record publication failure", logging.Error(recordErr))
		}
		return
	}

	item.ExternalListingID = externalID
	if err := e.store.SetExternalListing(ctx, item.ID, externalID); err != nil {
		logger.Error("record external listing id", logging.Error(err))
		return
	}
	logger.Info("item published", logging.String("listing_id", externalID))
}

func checkCompleteness(ctx context.Context, store *catalog.Store, item *catalog.Item, target catalog.Stage) error {
	switch {
	case item.Stage == catalog.StagePhotoUpload && target == catalog.StageAIProcessing:
		count, err := store.CountPhotos(ctx, item.ID)
		if err != nil {
			return Wrap(ErrStorage, "transition", "count photos", err)
		}
		if count < 1 {
			return Wrap(ErrIncompleteData, "transition", "at least one photo is required", nil)
		}
	case item.Stage == catalog.StagePricing && target == catalog.StageFinalReview:
		if !item.PricingComplete() {
			return Wrap(ErrIncompleteData, "transition", "starting price and shipping cost are required", nil)
		}
	}
	return nil
}
