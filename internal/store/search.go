package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/recallhq/recall/internal/embedding"
)

// Retrieval defaults.
const (
	DefaultSearchLimit  = 5
	DefaultVectorWeight = 0.7
	DefaultTextWeight   = 0.3
	DefaultFusionMinSim = 0.3
	DefaultVectorMinSim = 0.5
)

var queryTokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// ftsQuery turns free text into an FTS5 match expression: quoted tokens
// joined with OR, so any matching record is a candidate.
func ftsQuery(q string) string {
	tokens := queryTokenRe.FindAllString(strings.ToLower(q), -1)
	if len(tokens) == 0 {
		return ""
	}
	for i, t := range tokens {
		tokens[i] = `"` + t + `"`
	}
	return strings.Join(tokens, " OR ")
}

// bm25Score maps an FTS5 bm25 rank (negative, more negative is better) to a
// bounded score in [0,1).
func bm25Score(rank float64) float64 {
	raw := -rank
	if raw < 0 {
		raw = 0
	}
	return raw / (1 + raw)
}

// SearchFTS ranks memories by lexical relevance to the query.
func (s *SQLiteStore) SearchFTS(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.content, m.category, m.source, bm25(memories_fts) AS rank
		 FROM memories_fts
		 JOIN memories m ON m.rowid = memories_fts.rowid
		 WHERE memories_fts MATCH ?
		 ORDER BY rank, m.id
		 LIMIT ?`, match, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r    SearchResult
			rank float64
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.Category, &r.Source, &rank); err != nil {
			return nil, err
		}
		r.Score = bm25Score(rank)
		r.TextScore = r.Score
		results = append(results, r)
	}
	return results, rows.Err()
}

// SearchVector ranks memories by cosine similarity to the query vector.
// Records without an embedding are never candidates.
func (s *SQLiteStore) SearchVector(ctx context.Context, p VectorParams) ([]SearchResult, error) {
	if len(p.Embedding) == 0 {
		return nil, nil
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	minSim := p.MinSimilarity
	if minSim == 0 {
		minSim = DefaultVectorMinSim
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, category, source, embedding
		 FROM memories WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r   SearchResult
			emb string
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.Category, &r.Source, &emb); err != nil {
			return nil, err
		}
		sim := embedding.CosineSimilarity(p.Embedding, decodeVector(emb))
		if sim < minSim {
			continue
		}
		r.Score = sim
		r.VectorScore = sim
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortByScore(results, func(r SearchResult) (float64, string) { return r.Score, r.ID })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchChunks ranks chunk rows by cosine similarity, for sub-document
// granularity retrieval.
func (s *SQLiteStore) SearchChunks(ctx context.Context, p VectorParams) ([]ChunkResult, error) {
	if len(p.Embedding) == 0 {
		return nil, nil
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	minSim := p.MinSimilarity
	if minSim == 0 {
		minSim = DefaultVectorMinSim
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, memory_id, content, start_line, end_line, embedding
		 FROM chunks WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ChunkResult
	for rows.Next() {
		var (
			r   ChunkResult
			emb string
		)
		if err := rows.Scan(&r.ID, &r.MemoryID, &r.Content, &r.StartLine, &r.EndLine, &emb); err != nil {
			return nil, err
		}
		sim := embedding.CosineSimilarity(p.Embedding, decodeVector(emb))
		if sim < minSim {
			continue
		}
		r.Score = sim
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortByScore(results, func(r ChunkResult) (float64, string) { return r.Score, r.ID })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindSimilar ranks all other memories against the named record's embedding.
// A missing record or one with no embedding yields an empty result, not an
// error.
func (s *SQLiteStore) FindSimilar(ctx context.Context, id string, limit int) ([]SimilarResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var emb sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT embedding FROM memories WHERE id = ?`, id).Scan(&emb)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !emb.Valid {
		return nil, nil
	}
	query := decodeVector(emb.String)

	matches, err := s.SearchVector(ctx, VectorParams{
		Embedding: query,
		// One extra candidate absorbs the source record before exclusion.
		Limit: limit + 1,
	})
	if err != nil {
		return nil, err
	}

	results := make([]SimilarResult, 0, limit)
	for _, m := range matches {
		if m.ID == id {
			continue
		}
		results = append(results, SimilarResult{ID: m.ID, Content: m.Content, Category: m.Category, Score: m.Score})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// Search is the general retrieval entry point. Without a query vector it
// delegates entirely to the lexical ranker. With one, it runs the lexical
// and vector rankers independently over 2x candidate pools, takes the outer
// union keyed by record id, and weights the components into one score;
// records missing from one ranker contribute zero for that component rather
// than being excluded.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	vw, tw := p.VectorWeight, p.TextWeight
	if vw == 0 && tw == 0 {
		vw, tw = DefaultVectorWeight, DefaultTextWeight
	}
	minSim := p.MinSimilarity
	if minSim == 0 {
		minSim = DefaultFusionMinSim
	}

	if len(p.Embedding) == 0 {
		return s.SearchFTS(ctx, p.Query, limit)
	}

	textRes, err := s.SearchFTS(ctx, p.Query, limit*2)
	if err != nil {
		return nil, err
	}
	vecRes, err := s.SearchVector(ctx, VectorParams{
		Embedding:     p.Embedding,
		Limit:         limit * 2,
		MinSimilarity: minSim,
	})
	if err != nil {
		return nil, err
	}

	union := make(map[string]*SearchResult, len(textRes)+len(vecRes))
	for _, r := range vecRes {
		r := r
		r.TextScore = 0
		union[r.ID] = &r
	}
	for _, r := range textRes {
		if u, ok := union[r.ID]; ok {
			u.TextScore = r.TextScore
			continue
		}
		r := r
		r.VectorScore = 0
		union[r.ID] = &r
	}

	fused := make([]SearchResult, 0, len(union))
	for _, r := range union {
		r.Score = vw*r.VectorScore + tw*r.TextScore
		fused = append(fused, *r)
	}

	sortByScore(fused, func(r SearchResult) (float64, string) { return r.Score, r.ID })
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

// sortByScore orders descending by score with id as the deterministic
// tie-break.
func sortByScore[T any](items []T, key func(T) (float64, string)) {
	sort.Slice(items, func(i, j int) bool {
		si, idi := key(items[i])
		sj, idj := key(items[j])
		if si != sj {
			return si > sj
		}
		return idi < idj
	})
}
