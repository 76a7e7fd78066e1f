package store

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/recallhq/recall/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func imp(v float64) *float64 { return &v }

func TestStore_Basic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Store(ctx, StoreParams{Content: "I prefer dark mode in all my editors"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	m, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m == nil {
		t.Fatal("expected memory, got nil")
	}
	if m.Category != model.CategoryPreference {
		t.Errorf("expected category preference, got %q", m.Category)
	}
	if m.Source != model.SourceUser {
		t.Errorf("expected default source user, got %q", m.Source)
	}
	if m.Importance != DefaultImportance {
		t.Errorf("expected default importance %g, got %g", DefaultImportance, m.Importance)
	}
	if m.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestStore_DedupSameID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	content := "the deploy pipeline runs on Fridays"
	id1, err := s.Store(ctx, StoreParams{Content: content})
	if err != nil {
		t.Fatalf("first store: %v", err)
	}
	id2, err := s.Store(ctx, StoreParams{Content: content})
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if id1 != id2 {
		t.Errorf("duplicate content should return the same id: %s vs %s", id1, id2)
	}

	memories, err := s.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memories) != 1 {
		t.Errorf("expected 1 row after dedup, got %d", len(memories))
	}
}

func TestStore_MergeImportanceMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	content := "the database is hosted in us-east-1"
	if _, err := s.Store(ctx, StoreParams{Content: content, Importance: imp(0.4)}); err != nil {
		t.Fatal(err)
	}
	id, err := s.Store(ctx, StoreParams{Content: content, Importance: imp(0.9)})
	if err != nil {
		t.Fatal(err)
	}
	m, _ := s.Get(ctx, id)
	if m.Importance != 0.9 {
		t.Errorf("importance should rise to 0.9, got %g", m.Importance)
	}

	// A lower incoming importance never lowers the stored one.
	if _, err := s.Store(ctx, StoreParams{Content: content, Importance: imp(0.2)}); err != nil {
		t.Fatal(err)
	}
	m, _ = s.Get(ctx, id)
	if m.Importance != 0.9 {
		t.Errorf("importance should stay at 0.9, got %g", m.Importance)
	}
}

func TestStore_MergeMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	content := "the staging cluster has three nodes"
	id, err := s.Store(ctx, StoreParams{Content: content, Metadata: map[string]any{"a": 1, "keep": "old"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Store(ctx, StoreParams{Content: content, Metadata: map[string]any{"a": 3, "b": 2}}); err != nil {
		t.Fatal(err)
	}

	m, _ := s.Get(ctx, id)
	if got := m.Metadata["a"]; got != float64(3) {
		t.Errorf("incoming value should win for key a, got %v", got)
	}
	if got := m.Metadata["b"]; got != float64(2) {
		t.Errorf("new key b should be added, got %v", got)
	}
	if got := m.Metadata["keep"]; got != "old" {
		t.Errorf("untouched key should survive the merge, got %v", got)
	}
}

func TestStore_MergeEmbeddingNeverErased(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	content := "vector retention check"
	v := []float32{0.1, 0.2, 0.3}
	id, err := s.Store(ctx, StoreParams{Content: content, Embedding: v})
	if err != nil {
		t.Fatal(err)
	}

	// A nil incoming embedding leaves the stored one alone.
	if _, err := s.Store(ctx, StoreParams{Content: content}); err != nil {
		t.Fatal(err)
	}
	m, _ := s.Get(ctx, id)
	if !reflect.DeepEqual(m.Embedding, v) {
		t.Errorf("nil incoming embedding should not erase, got %v", m.Embedding)
	}

	// A non-nil one replaces it.
	w := []float32{0.9, 0.8, 0.7}
	if _, err := s.Store(ctx, StoreParams{Content: content, Embedding: w}); err != nil {
		t.Fatal(err)
	}
	m, _ = s.Get(ctx, id)
	if !reflect.DeepEqual(m.Embedding, w) {
		t.Errorf("incoming embedding should replace, got %v", m.Embedding)
	}
}

func TestStore_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, StoreParams{Content: "   "}); err == nil {
		t.Error("blank content should be rejected")
	}
	if _, err := s.Store(ctx, StoreParams{Content: "valid content here", Importance: imp(1.5)}); err == nil {
		t.Error("importance above 1 should be rejected, not clamped")
	}
	if _, err := s.Store(ctx, StoreParams{Content: "valid content here", Importance: imp(-0.1)}); err == nil {
		t.Error("negative importance should be rejected")
	}
	if _, err := s.Store(ctx, StoreParams{Content: "valid content here", Source: "bot"}); err == nil {
		t.Error("unknown source should be rejected")
	}
}

func TestStore_ValidSources(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, src := range []string{model.SourceUser, model.SourceAgent, model.SourceSystem} {
		if _, err := s.Store(ctx, StoreParams{Content: "source check for " + src, Source: src}); err != nil {
			t.Errorf("source %q should be accepted: %v", src, err)
		}
	}
}

func TestNewID_Concurrent(t *testing.T) {
	s := newTestStore(t)

	const workers, perWorker = 16, 64
	ids := make(chan string, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- s.newID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, workers*perWorker)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique ids, got %d", workers*perWorker, len(seen))
	}
}

func TestGet_Absent(t *testing.T) {
	s := newTestStore(t)

	m, err := s.Get(context.Background(), "01ZZZZZZZZZZZZZZZZZZZZZZZZ")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil for absent id, got %+v", m)
	}
}

func TestList_LimitOffset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	contents := []string{"first note body", "second note body", "third note body"}
	for _, c := range contents {
		if _, err := s.Store(ctx, StoreParams{Content: c}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.List(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 memories, got %d", len(all))
	}

	page, err := s.List(ctx, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Errorf("expected 2 memories with limit 2 offset 1, got %d", len(page))
	}
	if page[0].ID != all[1].ID {
		t.Error("offset should skip the newest row")
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Store(ctx, StoreParams{Content: "memory slated for deletion"})
	if err != nil {
		t.Fatal(err)
	}

	existed, err := s.Delete(ctx, id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !existed {
		t.Error("delete should report the row existed")
	}
	if m, _ := s.Get(ctx, id); m != nil {
		t.Error("memory should be gone after delete")
	}

	existed, err = s.Delete(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if existed {
		t.Error("second delete should report no row")
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, StoreParams{Content: "memory to be wiped", Embedding: []float32{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StoreDocument(ctx, DocumentParams{Content: "doc body to be wiped", Title: "Doc"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendMessage(ctx, "sess-1", "user", "hello"); err != nil {
		t.Fatal(err)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	st, err := s.Stats(ctx, "ignored")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalMemories != 0 || st.TotalChunks != 0 || st.CachedEmbeddings != 0 || st.SessionMessages != 0 {
		t.Errorf("expected empty store, got %+v", st)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, StoreParams{Content: "I prefer tabs over spaces always"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Store(ctx, StoreParams{Content: "the sky is blue in summer", Source: model.SourceAgent}); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats(ctx, "ignored")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalMemories != 2 {
		t.Errorf("expected 2 memories, got %d", st.TotalMemories)
	}
	if st.ByCategory[model.CategoryPreference] != 1 {
		t.Errorf("expected 1 preference, got %d", st.ByCategory[model.CategoryPreference])
	}
	if st.BySource[model.SourceAgent] != 1 {
		t.Errorf("expected 1 agent-sourced memory, got %d", st.BySource[model.SourceAgent])
	}
}
