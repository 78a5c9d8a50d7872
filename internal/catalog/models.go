package catalog

import (
	"fmt"
	"time"
)

// Stage represents an item's position in the fixed listing pipeline.
type Stage string

const (
	StagePhotoUpload  Stage = "photo_upload"
	StageAIProcessing Stage = "ai_processing"
	StageReviewEdit   Stage = "review_edit"
	StagePricing      Stage = "pricing"
	StageFinalReview  Stage = "final_review"
	StagePublished    Stage = "published"
	StageRejected     Stage = "rejected"
)

var allStages = []Stage{
	StagePhotoUpload,
	StageAIProcessing,
	StageReviewEdit,
	StagePricing,
	StageFinalReview,
	StagePublished,
	StageRejected,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, stage := range allStages {
		set[stage] = struct{}{}
	}
	return set
}()

// AllStages returns every pipeline stage in order.
func AllStages() []Stage {
	out := make([]Stage, len(allStages))
	copy(out, allStages)
	return out
}

// Valid reports whether the stage is a known pipeline stage.
func (s Stage) Valid() bool {
	_, ok := stageSet[s]
	return ok
}

// Terminal reports whether the stage permits no outbound transition.
func (s Stage) Terminal() bool {
	return s == StagePublished || s == StageRejected
}

// ParseStage converts a raw string into a Stage.
func ParseStage(raw string) (Stage, error) {
	stage := Stage(raw)
	if !stage.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return stage, nil
}

// Status represents an item's operational health, orthogonal to Stage.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
	StatusError     Status = "error"
)

var allStatuses = []Status{
	StatusActive,
	StatusPaused,
	StatusCompleted,
	StatusArchived,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known operational status.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// Role identifies what an operator account is allowed to do.
type Role string

const (
	RoleAdmin        Role = "admin"
	RolePhotographer Role = "photographer"
	RoleProcessor    Role = "processor"
	RolePricer       Role = "pricer"
	RolePublisher    Role = "publisher"
	RoleManager      Role = "manager"
)

var allRoles = []Role{
	RoleAdmin,
	RolePhotographer,
	RoleProcessor,
	RolePricer,
	RolePublisher,
	RoleManager,
}

var roleSet = func() map[Role]struct{} {
	set := make(map[Role]struct{}, len(allRoles))
	for _, role := range allRoles {
		set[role] = struct{}{}
	}
	return set
}()

// Valid reports whether the role is a known operator role.
func (r Role) Valid() bool {
	_, ok := roleSet[r]
	return ok
}

// ParseRole converts a raw string into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Override reports whether the role may bypass another operator's claim.
func (r Role) Override() bool {
	return r == RoleAdmin || r == RoleManager
}

// Location represents a physical site that owns users, items, and
// marketplace accounts.
type Location struct {
	ID        int64
	Name      string
	Code      string
	Address   string
	Timezone  string
	IsActive  bool
	ServerURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarketplaceAccount holds credentials for one external seller identity.
// Token fields are sensitive and never logged.
type MarketplaceAccount struct {
	ID           int64
	LocationID   int64
	Label        string
	AuthToken    string
	RefreshToken string
	Sandbox      bool
	LastSyncAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User represents an operator account.
type User struct {
	ID            int64
	Email         string
	Name          string
	Role          Role
	PasswordHash  string
	LocationID    *int64
	LastActive    time.Time
	IsOnline      bool
	CurrentItemID *int64
	CreatedAt     time.Time
}

// Item is the central entity moving through the pipeline.
type Item struct {
	ID                   int64
	SKU                  string
	Stage                Stage
	Status               Status
	LocationID           int64
	MarketplaceAccountID *int64
	CreatedBy            int64
	Title                string
	Description          string
	Category             string
	Condition            string
	Brand                string
	FeaturesJSON         string
	KeywordsJSON         string
	AIAnalysisJSON       string
	StartingPrice        *float64
	BuyNowPrice          *float64
	ShippingCost         *float64
	ExternalListingID    string
	PublishedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PricingComplete reports whether the mandatory price fields are set.
// Buy-now price is optional.
func (i *Item) PricingComplete() bool {
	return i != nil && i.StartingPrice != nil && i.ShippingCost != nil
}

// Photo belongs to exactly one item. Created during photo upload, read-only
// for every later stage.
type Photo struct {
	ID             int64
	ItemID         int64
	OriginalPath   string
	ThumbnailPath  string
	OptimizedPath  string
	IsPrimary      bool
	DisplayOrder   int
	AIAnalysisJSON string
	ProcessedAt    *time.Time
	CreatedAt      time.Time
}

// WorkflowAction is an immutable audit record of one stage transition.
// Rows are never updated or deleted after insertion.
type WorkflowAction struct {
	ID          int64
	ItemID      int64
	UserID      int64
	FromStage   Stage
	ToStage     Stage
	Action      string
	Notes       string
	ChangesJSON string
	CreatedAt   time.Time
}

// Claim records exclusive editing ownership of an item by one operator.
// Uniqueness per item is enforced by the claims table primary key.
type Claim struct {
	ItemID    int64
	UserID    int64
	ClaimedAt time.Time
}

// Session is a bearer token bound to a user with an expiry.
type Session struct {
	TokenID   string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || s.Revoked || !now.Before(s.ExpiresAt)
}

// StatsSummary aggregates item counts per pipeline position.
type StatsSummary struct {
	Total     int
	InFlight  int
	Published int
	Rejected  int
}
