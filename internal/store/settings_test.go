package store

import (
	"context"
	"testing"
)

func TestSettings_DefaultsAndOverride(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.GetSetting(ctx, "search_limit")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != float64(5) {
		t.Errorf("expected default 5, got %v", v)
	}

	if err := s.SetSetting(ctx, "search_limit", 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err = s.GetSetting(ctx, "search_limit")
	if err != nil {
		t.Fatal(err)
	}
	if v != float64(10) {
		t.Errorf("expected stored 10, got %v", v)
	}

	if err := s.ResetSetting(ctx, "search_limit"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	v, _ = s.GetSetting(ctx, "search_limit")
	if v != float64(5) {
		t.Errorf("reset should restore the default, got %v", v)
	}
}

func TestSettings_UnknownKey(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetSetting(context.Background(), "no_such_key")
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("unknown key should return nil, got %v", v)
	}
}

func TestAllSettings_Overlay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetSetting(ctx, "embedding_model", "nomic-embed-text"); err != nil {
		t.Fatal(err)
	}

	all, err := s.AllSettings(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all["embedding_model"] != "nomic-embed-text" {
		t.Errorf("stored value should overlay the default, got %v", all["embedding_model"])
	}
	if all["auto_capture"] != true {
		t.Errorf("untouched defaults should remain, got %v", all["auto_capture"])
	}
	if len(all) < len(DefaultSettings) {
		t.Errorf("expected at least %d keys, got %d", len(DefaultSettings), len(all))
	}
}
