package store

import (
	"context"
	"testing"
)

func TestSessionHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	turns := []struct{ role, content string }{
		{"user", "first question"},
		{"assistant", "first answer"},
		{"user", "second question"},
	}
	for _, m := range turns {
		if err := s.AppendMessage(ctx, "sess-1", m.role, m.content); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.AppendMessage(ctx, "sess-2", "user", "other session"); err != nil {
		t.Fatal(err)
	}

	history, err := s.History(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(history))
	}
	for i, m := range history {
		if m.Role != turns[i].role || m.Content != turns[i].content {
			t.Errorf("turn %d: got %s/%q", i, m.Role, m.Content)
		}
	}

	// A limit keeps the most recent turns, still in chronological order.
	tail, err := s.History(ctx, "sess-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(tail))
	}
	if tail[0].Content != "first answer" || tail[1].Content != "second question" {
		t.Errorf("expected the last two turns in order, got %q then %q", tail[0].Content, tail[1].Content)
	}
}

func TestClearSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendMessage(ctx, "sess-1", "user", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendMessage(ctx, "sess-2", "user", "hi there"); err != nil {
		t.Fatal(err)
	}

	if err := s.ClearSession(ctx, "sess-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if history, _ := s.History(ctx, "sess-1", 0); len(history) != 0 {
		t.Errorf("sess-1 should be empty, got %d turns", len(history))
	}
	if history, _ := s.History(ctx, "sess-2", 0); len(history) != 1 {
		t.Errorf("sess-2 should be untouched, got %d turns", len(history))
	}
}
