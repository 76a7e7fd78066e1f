package store

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/recallhq/recall/internal/chunker"
)

func TestSearchFTS(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, c := range []string{
		"Go is a compiled language with garbage collection",
		"Python is an interpreted language",
		"Rust has a borrow checker",
	} {
		if _, err := s.Store(ctx, StoreParams{Content: c}); err != nil {
			t.Fatal(err)
		}
	}

	results, err := s.SearchFTS(ctx, "language", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "language", len(results))
	}
	for _, r := range results {
		if r.Score <= 0 || r.Score >= 1 {
			t.Errorf("lexical score should be in (0,1), got %g", r.Score)
		}
		if r.TextScore != r.Score {
			t.Error("lexical-only results should mirror score into text_score")
		}
	}

	// Matching more query terms ranks higher.
	results, err = s.SearchFTS(ctx, "compiled language", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) < 2 {
		t.Fatalf("expected both language rows, got %d", len(results))
	}
	if !strings.Contains(results[0].Content, "compiled") {
		t.Errorf("two-term match should rank first, got %q", results[0].Content)
	}
}

func TestSearchFTS_EmptyQuery(t *testing.T) {
	s := newTestStore(t)
	results, err := s.SearchFTS(context.Background(), "  !!! ", 10)
	if err != nil {
		t.Fatal(err)
	}
	if results != nil {
		t.Errorf("tokenless query should return no results, got %d", len(results))
	}
}

func TestSearchVector(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := map[string][]float32{
		"note about apples":  {1, 0},
		"note about oranges": {0, 1},
		"note about pears":   {0.9, float32(math.Sqrt(0.19))},
	}
	for c, v := range seed {
		if _, err := s.Store(ctx, StoreParams{Content: c, Embedding: v}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Store(ctx, StoreParams{Content: "note with no embedding"}); err != nil {
		t.Fatal(err)
	}

	results, err := s.SearchVector(ctx, VectorParams{Embedding: []float32{1, 0}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// Default min similarity 0.5 drops the orthogonal row; unembedded rows
	// are never candidates.
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "note about apples" {
		t.Errorf("exact match should rank first, got %q", results[0].Content)
	}
	if math.Abs(results[0].Score-1) > 1e-6 {
		t.Errorf("self-similarity should be 1, got %g", results[0].Score)
	}
	if math.Abs(results[1].Score-0.9) > 1e-3 {
		t.Errorf("expected similarity 0.9, got %g", results[1].Score)
	}

	// Explicit threshold filters harder.
	results, err = s.SearchVector(ctx, VectorParams{Embedding: []float32{1, 0}, MinSimilarity: 0.95})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result above 0.95, got %d", len(results))
	}
}

func TestSearchVector_NilQuery(t *testing.T) {
	s := newTestStore(t)
	results, err := s.SearchVector(context.Background(), VectorParams{})
	if err != nil {
		t.Fatal(err)
	}
	if results != nil {
		t.Error("nil query vector should return no results")
	}
}

func TestSearchChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, "A reasonably long documentation line used for chunking.")
	}
	id, err := s.StoreDocument(ctx, DocumentParams{
		Content:         strings.Join(lines, "\n"),
		Title:           "Chunked doc",
		ChunkOptions:    chunker.Options{MaxTokens: 50},
		ChunkEmbeddings: [][]float32{{1, 0}, {0, 1}, {0.8, 0.6}},
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.SearchChunks(ctx, VectorParams{Embedding: []float32{1, 0}})
	if err != nil {
		t.Fatalf("search chunks: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected chunk matches")
	}
	top := results[0]
	if top.MemoryID != id {
		t.Errorf("chunk should reference its parent, got %s", top.MemoryID)
	}
	if math.Abs(top.Score-1) > 1e-6 {
		t.Errorf("expected top similarity 1, got %g", top.Score)
	}
	if top.StartLine < 1 || top.EndLine < top.StartLine {
		t.Errorf("chunk result should carry its line range, got %d-%d", top.StartLine, top.EndLine)
	}
	for _, r := range results {
		if r.Score < DefaultVectorMinSim {
			t.Errorf("default threshold should filter, got %g", r.Score)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	idA, err := s.Store(ctx, StoreParams{Content: "primary note about databases", Embedding: []float32{1, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	idB, err := s.Store(ctx, StoreParams{Content: "neighboring note about storage", Embedding: []float32{0.95, float32(math.Sqrt(1 - 0.95*0.95)), 0}})
	if err != nil {
		t.Fatal(err)
	}
	idC, err := s.Store(ctx, StoreParams{Content: "note with no embedding at all"})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.FindSimilar(ctx, idA, 5)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 neighbor, got %d", len(results))
	}
	if results[0].ID != idB {
		t.Errorf("expected neighbor %s, got %s", idB, results[0].ID)
	}
	for _, r := range results {
		if r.ID == idA {
			t.Error("source record must be excluded from its own neighbors")
		}
	}

	// Unembedded or missing records yield empty results, not errors.
	if results, err = s.FindSimilar(ctx, idC, 5); err != nil || len(results) != 0 {
		t.Errorf("unembedded record: got %v, %v", results, err)
	}
	if results, err = s.FindSimilar(ctx, "nonexistent", 5); err != nil || len(results) != 0 {
		t.Errorf("missing record: got %v, %v", results, err)
	}
}

func TestSearch_LexicalFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Store(ctx, StoreParams{Content: "the migration finished without errors"}); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, SearchParams{Query: "migration"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.VectorScore != 0 {
		t.Errorf("lexical fallback should have no vector component, got %g", r.VectorScore)
	}
	if r.Score != r.TextScore {
		t.Errorf("lexical fallback score should equal text score: %g vs %g", r.Score, r.TextScore)
	}
}

func TestSearch_FusionWeighting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Lexically unrelated to the query, cosine similarity 0.9 to the query
	// vector: the fused score is the vector component alone, 0.7 * 0.9.
	if _, err := s.Store(ctx, StoreParams{
		Content:   "alpha beta gamma",
		Embedding: []float32{1, 0},
	}); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, SearchParams{
		Query:     "zzz qqq",
		Embedding: []float32{0.9, float32(math.Sqrt(0.19))},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if math.Abs(r.VectorScore-0.9) > 1e-3 {
		t.Errorf("expected vector score 0.9, got %g", r.VectorScore)
	}
	if r.TextScore != 0 {
		t.Errorf("expected no lexical component, got %g", r.TextScore)
	}
	if math.Abs(r.Score-0.63) > 1e-3 {
		t.Errorf("expected fused score 0.63, got %g", r.Score)
	}
}

func TestSearch_UnionKeepsSingleRankerMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lexID, err := s.Store(ctx, StoreParams{Content: "a note mentioning paprika specifically"})
	if err != nil {
		t.Fatal(err)
	}
	vecID, err := s.Store(ctx, StoreParams{Content: "completely unrelated wording", Embedding: []float32{1, 0}})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, SearchParams{
		Query:     "paprika",
		Embedding: []float32{1, 0},
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	found := map[string]SearchResult{}
	for _, r := range results {
		found[r.ID] = r
	}
	lex, ok := found[lexID]
	if !ok {
		t.Fatal("lexical-only match should survive the union")
	}
	if lex.VectorScore != 0 || lex.TextScore == 0 {
		t.Errorf("lexical-only match has wrong components: %+v", lex)
	}
	vec, ok := found[vecID]
	if !ok {
		t.Fatal("vector-only match should survive the union")
	}
	if vec.TextScore != 0 || vec.VectorScore == 0 {
		t.Errorf("vector-only match has wrong components: %+v", vec)
	}
	// Vector-only at sim 1 outranks a lexical-only match under 0.7/0.3.
	if results[0].ID != vecID {
		t.Errorf("expected vector match first, got %s", results[0].ID)
	}
}

func TestSearch_FusionMinSimFiltersVectorOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Orthogonal to the query vector and lexically unrelated: filtered by
	// the vector threshold and absent from the lexical pool, so excluded.
	if _, err := s.Store(ctx, StoreParams{Content: "an orthogonal note entirely", Embedding: []float32{0, 1}}); err != nil {
		t.Fatal(err)
	}
	// Matching text but weak vector: the threshold prunes only the vector
	// component, the lexical ranker still surfaces it.
	weakID, err := s.Store(ctx, StoreParams{Content: "a note mentioning turmeric", Embedding: []float32{0, 1}})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, SearchParams{
		Query:     "turmeric",
		Embedding: []float32{1, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != weakID {
		t.Errorf("expected the lexically matching row, got %s", results[0].ID)
	}
	if results[0].VectorScore != 0 {
		t.Errorf("sub-threshold vector component should be zero, got %g", results[0].VectorScore)
	}
}
