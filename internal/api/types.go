package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Item describes a catalog entry in a transport-friendly format.
type Item struct {
	ID                int64           `json:"id"`
	SKU               string          `json:"sku"`
	Stage             string          `json:"stage"`
	Status            string          `json:"status"`
	LocationID        int64           `json:"locationId"`
	CreatedBy         int64           `json:"createdBy"`
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	Category          string          `json:"category,omitempty"`
	Condition         string          `json:"condition,omitempty"`
	Brand             string          `json:"brand,omitempty"`
	Features          json.RawMessage `json:"features,omitempty"`
	Keywords          json.RawMessage `json:"keywords,omitempty"`
	AIAnalysis        json.RawMessage `json:"aiAnalysis,omitempty"`
	StartingPrice     *float64        `json:"startingPrice,omitempty"`
	BuyNowPrice       *float64        `json:"buyNowPrice,omitempty"`
	ShippingCost      *float64        `json:"shippingCost,omitempty"`
	ExternalListingID string          `json:"externalListingId,omitempty"`
	PhotoCount        int             `json:"photoCount"`
	ClaimedBy         *int64          `json:"claimedBy,omitempty"`
	PublishedAt       string          `json:"publishedAt,omitempty"`
	CreatedAt         string          `json:"createdAt,omitempty"`
	UpdatedAt         string          `json:"updatedAt,omitempty"`
}

// WorkflowAction describes one audit-log entry.
type WorkflowAction struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"itemId"`
	UserID    int64           `json:"userId"`
	FromStage string          `json:"fromStage"`
	ToStage   string          `json:"toStage"`
	Action    string          `json:"action"`
	Notes     string          `json:"notes,omitempty"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
}

// Claim describes editing ownership of an item.
type Claim struct {
	ItemID    int64  `json:"itemId"`
	UserID    int64  `json:"userId"`
	ClaimedAt string `json:"claimedAt,omitempty"`
}

// User describes an operator account. Password material never appears here.
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	LocationID    *int64 `json:"locationId,omitempty"`
	IsOnline      bool   `json:"isOnline"`
	CurrentItemID *int64 `json:"currentItemId,omitempty"`
	LastActive    string `json:"lastActive,omitempty"`
}

// Location describes a physical store.
type Location struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Address   string `json:"address,omitempty"`
	Timezone  string `json:"timezone"`
	IsActive  bool   `json:"isActive"`
	ServerURL string `json:"serverUrl,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	CatalogDBPath string         `json:"catalogDbPath"`
	LockFilePath  string         `json:"lockFilePath"`
	StageCounts   map[string]int `json:"stageCounts"`
	ActiveClaims  int            `json:"activeClaims"`
}

// TransitionRequest is the payload for moving an item to a new stage.
type TransitionRequest struct {
	Target  string         `json:"target"`
	Notes   string         `json:"notes,omitempty"`
	Changes map[string]any `json:"changes,omitempty"`
}

// TransitionResponse reports the item and audit record after a transition.
type TransitionResponse struct {
	Item   Item           `json:"item"`
	Action WorkflowAction `json:"action"`
}

// LoginRequest carries operator credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the session token and the authenticated user.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ItemListResponse wraps a collection of items.
type ItemListResponse struct {
	Items []Item `json:"items"`
}

// ItemResponse wraps a single item.
type ItemResponse struct {
	Item Item `json:"item"`
}

// HistoryResponse wraps an item's audit trail, oldest first.
type HistoryResponse struct {
	Actions []WorkflowAction `json:"actions"`
}

// ClaimResponse wraps a single claim.
type ClaimResponse struct {
	Claim Claim `json:"claim"`
}

// ClaimListResponse wraps the set of active claims.
type ClaimListResponse struct {
	Claims []Claim `json:"claims"`
}

// StatsResponse provides item counts keyed by stage.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
}
