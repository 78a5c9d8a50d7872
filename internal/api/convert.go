package api

import (
	"encoding/json"
	"time"

	"relist/internal/catalog"
)

// FromItem converts a catalog record to its API representation. PhotoCount
// and ClaimedBy are filled in by the service layer.
func FromItem(item *catalog.Item) Item {
	if item == nil {
		return Item{}
	}

	dto := Item{
		ID:                item.ID,
		SKU:               item.SKU,
		Stage:             string(item.Stage),
		Status:            string(item.Status),
		LocationID:        item.LocationID,
		CreatedBy:         item.CreatedBy,
		Title:             item.Title,
		Description:       item.Description,
		Category:          item.Category,
		Condition:         item.Condition,
		Brand:             item.Brand,
		StartingPrice:     item.StartingPrice,
		BuyNowPrice:       item.BuyNowPrice,
		ShippingCost:      item.ShippingCost,
		ExternalListingID: item.ExternalListingID,
	}
	if raw := item.FeaturesJSON; raw != "" {
		dto.Features = json.RawMessage(raw)
	}
	if raw := item.KeywordsJSON; raw != "" {
		dto.Keywords = json.RawMessage(raw)
	}
	if raw := item.AIAnalysisJSON; raw != "" {
		dto.AIAnalysis = json.RawMessage(raw)
	}
	if item.PublishedAt != nil {
		dto.PublishedAt = formatTimestamp(*item.PublishedAt)
	}
	dto.CreatedAt = formatTimestamp(item.CreatedAt)
	dto.UpdatedAt = formatTimestamp(item.UpdatedAt)
	return dto
}

// FromItems converts a slice of catalog records into API DTOs.
func FromItems(items []*catalog.Item) []Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromAction converts an audit record to its API representation.
func FromAction(action *catalog.WorkflowAction) WorkflowAction {
	if action == nil {
		return WorkflowAction{}
	}
	dto := WorkflowAction{
		ID:        action.ID,
		ItemID:    action.ItemID,
		UserID:    action.UserID,
		FromStage: string(action.FromStage),
		ToStage:   string(action.ToStage),
		Action:    action.Action,
		Notes:     action.Notes,
		CreatedAt: formatTimestamp(action.CreatedAt),
	}
	if raw := action.ChangesJSON; raw != "" {
		dto.Changes = json.RawMessage(raw)
	}
	return dto
}

// FromActions converts a slice of audit records into API DTOs.
func FromActions(actions []*catalog.WorkflowAction) []WorkflowAction {
	if len(actions) == 0 {
		return nil
	}
	out := make([]WorkflowAction, 0, len(actions))
	for _, action := range actions {
		out = append(out, FromAction(action))
	}
	return out
}

// FromClaim converts a claim record to its API representation.
func FromClaim(claim *catalog.Claim) Claim {
	if claim == nil {
		return Claim{}
	}
	return Claim{
		ItemID:    claim.ItemID,
		UserID:    claim.UserID,
		ClaimedAt: formatTimestamp(claim.ClaimedAt),
	}
}

// FromClaims converts a slice of claim records into API DTOs.
func FromClaims(claims []*catalog.Claim) []Claim {
	if len(claims) == 0 {
		return nil
	}
	out := make([]Claim, 0, len(claims))
	for _, claim := range claims {
		out = append(out, FromClaim(claim))
	}
	return out
}

// FromUser converts an operator record to its API representation.
func FromUser(user *catalog.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          string(user.Role),
		LocationID:    user.LocationID,
		IsOnline:      user.IsOnline,
		CurrentItemID: user.CurrentItemID,
		LastActive:    formatTimestamp(user.LastActive),
	}
}

// FromUsers converts a slice of operator records into API DTOs.
func FromUsers(users []*catalog.User) []User {
	if len(users) == 0 {
		return nil
	}
	out := make([]User, 0, len(users))
	for _, user := range users {
		out = append(out, FromUser(user))
	}
	return out
}

// FromLocation converts a store location to its API representation.
func FromLocation(loc *catalog.Location) Location {
	if loc == nil {
		return Location{}
	}
	return Location{
		ID:        loc.ID,
		Name:      loc.Name,
		Code:      loc.Code,
		Address:   loc.Address,
		Timezone:  loc.Timezone,
		IsActive:  loc.IsActive,
		ServerURL: loc.ServerURL,
	}
}

// FromLocations converts a slice of store locations into API DTOs.
func FromLocations(locs []*catalog.Location) []Location {
	if len(locs) == 0 {
		return nil
	}
	out := make([]Location, 0, len(locs))
	for _, loc := range locs {
		out = append(out, FromLocation(loc))
	}
	return out
}

// MergeStats converts stage-keyed counts into a string-keyed payload.
func MergeStats(stats map[catalog.Stage]int) map[string]int {
	out := make(map[string]int, len(stats))
	for stage, count := range stats {
		out[string(stage)] = count
	}
	return out
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateTimeFormat)
}
