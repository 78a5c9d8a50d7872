package api

import (
	"encoding/json"
	"testing"
	"time"

	"relist/internal/catalog"
)

func TestFromItem(t *testing.T) {
	price := 12.50
	published := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	item := &catalog.Item{
		ID:                7,
		SKU:               "SKU-7",
		Stage:             catalog.StagePublished,
		Status:            catalog.StatusCompleted,
		LocationID:        1,
		CreatedBy:         2,
		Title:             "Vintage Camera",
		KeywordsJSON:      `["camera","vintage"]`,
		StartingPrice:     &price,
		ExternalListingID: "EXT-9",
		PublishedAt:       &published,
		CreatedAt:         published.Add(-48 * time.Hour),
		UpdatedAt:         published,
	}

	dto := FromItem(item)
	if dto.ID != 7 || dto.Stage != "published" || dto.Status != "completed" {
		t.Errorf("dto = %+v", dto)
	}
	if dto.PublishedAt != "2026-03-14T09:30:00.000Z" {
		t.Errorf("publishedAt = %q", dto.PublishedAt)
	}
	if dto.StartingPrice == nil || *dto.StartingPrice != price {
		t.Errorf("startingPrice = %v", dto.StartingPrice)
	}

	var keywords []string
	if err := json.Unmarshal(dto.Keywords, &keywords); err != nil {
		t.Fatalf("keywords payload not valid JSON: %v", err)
	}
	if len(keywords) != 2 || keywords[0] != "camera" {
		t.Errorf("keywords = %v", keywords)
	}
}

func TestFromItemNil(t *testing.T) {
	dto := FromItem(nil)
	if dto.ID != 0 || dto.Stage != "" {
		t.Errorf("dto = %+v, want zero value", dto)
	}
	if FromItems(nil) != nil {
		t.Error("FromItems(nil) should be nil")
	}
}

func TestFromActionOmitsEmptyChanges(t *testing.T) {
	action := &catalog.WorkflowAction{
		ID:        3,
		ItemID:    7,
		UserID:    2,
		FromStage: catalog.StagePricing,
		ToStage:   catalog.StageFinalReview,
		Action:    "advance",
	}

	dto := FromAction(action)
	if dto.Changes != nil {
		t.Errorf("changes = %s, want omitted", dto.Changes)
	}

	encoded, err := json.Marshal(dto)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, present := decoded["changes"]; present {
		t.Error("empty changes serialized")
	}
	if decoded["fromStage"] != "pricing" || decoded["toStage"] != "final_review" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestFromUserAndClaim(t *testing.T) {
	locID := int64(4)
	user := FromUser(&catalog.User{
		ID:         2,
		Email:      "op@example.com",
		Role:       catalog.RolePricer,
		LocationID: &locID,
		IsOnline:   true,
	})
	if user.Role != "pricer" || user.LocationID == nil || *user.LocationID != 4 {
		t.Errorf("user = %+v", user)
	}
	if user.LastActive != "" {
		t.Errorf("zero LastActive rendered as %q", user.LastActive)
	}

	claim := FromClaim(&catalog.Claim{ItemID: 7, UserID: 2, ClaimedAt: time.Now()})
	if claim.ItemID != 7 || claim.ClaimedAt == "" {
		t.Errorf("claim = %+v", claim)
	}
}

func TestMergeStats(t *testing.T) {
	merged := MergeStats(map[catalog.Stage]int{
		catalog.StagePhotoUpload: 2,
		catalog.StagePublished:   1,
	})
	if merged["photo_upload"] != 2 || merged["published"] != 1 {
		t.Errorf("merged = %v", merged)
	}
}
