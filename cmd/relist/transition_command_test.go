package main

import (
	"context"
	"testing"

	"relist/internal/catalog"
	"relist/internal/testsupport"
)

func TestTransitionCommandAdvancesItem(t *testing.T) {
	env := newCLITestEnv(t)
	location := testsupport.SeedLocation(t, env.store, "CLI")
	photographer := testsupport.SeedUser(t, env.store, catalog.RolePhotographer, location.ID)
	item := testsupport.SeedItem(t, env.store, "CAM-20", location.ID, photographer.ID)
	testsupport.SeedPhoto(t, env.store, item.ID, "/photos/cam-20-front.jpg")

	out := requireRunOK(t, env, "transition", itoa(item.ID), "ai_processing",
		"--actor", itoa(photographer.ID),
		"--notes", "front and back shots done",
	)
	requireContains(t, out, "moved photo_upload -> ai_processing")

	updated, err := env.store.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if updated.Stage != catalog.StageAIProcessing {
		t.Fatalf("stage = %s, want ai_processing", updated.Stage)
	}

	out = requireRunOK(t, env, "history", itoa(item.ID))
	requireContains(t, out, "advance")
	requireContains(t, out, "front and back shots done")

	out = requireRunOK(t, env, "audit")
	requireContains(t, out, "All item histories are continuous")
}

func TestTransitionCommandRefusesWithoutPhoto(t *testing.T) {
	env := newCLITestEnv(t)
	location := testsupport.SeedLocation(t, env.store, "CLI")
	photographer := testsupport.SeedUser(t, env.store, catalog.RolePhotographer, location.ID)
	item := testsupport.SeedItem(t, env.store, "CAM-21", location.ID, photographer.ID)

	if _, err := runCLI(t, env, "transition", itoa(item.ID), "ai_processing",
		"--actor", itoa(photographer.ID)); err == nil {
		t.Fatal("expected completeness error")
	}
}

func TestTransitionCommandRequiresActor(t *testing.T) {
	env := newCLITestEnv(t)

	if _, err := runCLI(t, env, "transition", "1", "ai_processing"); err == nil {
		t.Fatal("expected required flag error")
	}
}

func TestTransitionCommandRejectsBadChange(t *testing.T) {
	env := newCLITestEnv(t)

	_, err := runCLI(t, env, "transition", "1", "ai_processing",
		"--actor", "1", "--set", "no-equals-sign")
	if err == nil {
		t.Fatal("expected parse error")
	}
	requireContains(t, err.Error(), "expected key=value")
}

func TestParseChanges(t *testing.T) {
	got, err := parseChanges([]string{"title=Nice Jacket", " condition = used "})
	if err != nil {
		t.Fatalf("parseChanges: %v", err)
	}
	if got["title"] != "Nice Jacket" {
		t.Fatalf("title = %v", got["title"])
	}
	if got["condition"] != "used" {
		t.Fatalf("condition = %v", got["condition"])
	}

	if got, err := parseChanges(nil); err != nil || got != nil {
		t.Fatalf("empty input: got %v, err %v", got, err)
	}
	if _, err := parseChanges([]string{"=value"}); err == nil {
		t.Fatal("expected error for empty key")
	}
}
