// Package store provides the memory storage engine: content-addressed
// deduplicated storage, document ingestion, the embedding cache, and hybrid
// lexical/vector retrieval. SQLite-backed.
package store

import (
	"context"

	"github.com/recallhq/recall/internal/chunker"
	"github.com/recallhq/recall/internal/model"
)

// DefaultImportance is applied when StoreParams.Importance is nil.
const DefaultImportance = 0.7

// StoreParams holds parameters for storing a memory.
type StoreParams struct {
	Content   string
	Embedding []float32
	Source    string // default "user"
	// Importance must lie in [0,1]; nil applies DefaultImportance.
	Importance *float64
	Metadata   map[string]any
	// EmbedModel names the model that produced Embedding; recorded on the
	// embedding-cache entry.
	EmbedModel string
}

// DocumentParams holds parameters for ingesting a long document.
type DocumentParams struct {
	Content string
	Title   string
	Source  string
	Metadata map[string]any
	// ChunkEmbeddings aligns positionally with the chunker's emission
	// order; missing or short slices leave chunk embeddings null.
	ChunkEmbeddings [][]float32
	ChunkOptions    chunker.Options // zero value applies defaults
	EmbedModel      string
}

// SearchParams holds parameters for hybrid search.
type SearchParams struct {
	Query     string
	Embedding []float32 // nil delegates entirely to the lexical ranker
	Limit     int       // default 5
	// Weights applied to the vector and lexical components. Both zero
	// applies the defaults 0.7 / 0.3.
	VectorWeight float64
	TextWeight   float64
	// MinSimilarity filters vector candidates only, never post-fusion.
	// Zero applies the default 0.3.
	MinSimilarity float64
}

// VectorParams holds parameters for pure vector search.
type VectorParams struct {
	Embedding []float32
	Limit     int // default 5
	// MinSimilarity filters out weaker matches. Zero applies the
	// default 0.5.
	MinSimilarity float64
}

// SearchResult is one ranked memory row.
type SearchResult struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	Category    string  `json:"category"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
	VectorScore float64 `json:"vector_score,omitempty"`
	TextScore   float64 `json:"text_score,omitempty"`
}

// ChunkResult is one ranked chunk row.
type ChunkResult struct {
	ID        string  `json:"id"`
	MemoryID  string  `json:"memory_id"`
	Content   string  `json:"content"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Score     float64 `json:"score"`
}

// SimilarResult is one "more like this" match.
type SimilarResult struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// CachedEmbedding is an embedding-cache entry.
type CachedEmbedding struct {
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// Store defines the memory engine interface.
type Store interface {
	// Store persists content, merging into an existing record when the
	// content fingerprint already exists. Returns the record id.
	Store(ctx context.Context, p StoreParams) (string, error)

	// StoreDocument persists a long document as a parent record plus
	// ordered chunk rows, atomically. Returns the parent id.
	StoreDocument(ctx context.Context, p DocumentParams) (string, error)

	// Search fuses lexical and vector rankings into one ranked list.
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)

	// SearchFTS ranks records by lexical relevance alone.
	SearchFTS(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// SearchVector ranks records by cosine similarity to the query vector.
	SearchVector(ctx context.Context, p VectorParams) ([]SearchResult, error)

	// SearchChunks ranks chunk rows by cosine similarity.
	SearchChunks(ctx context.Context, p VectorParams) ([]ChunkResult, error)

	// FindSimilar ranks other records against the named record's
	// embedding. Empty result when the record is missing or unembedded.
	FindSimilar(ctx context.Context, id string, limit int) ([]SimilarResult, error)

	// Get returns a record by id, or nil when absent.
	Get(ctx context.Context, id string) (*model.Memory, error)

	// List returns records newest-first.
	List(ctx context.Context, limit, offset int) ([]model.Memory, error)

	// Delete removes a record and cascades to its chunks. Reports whether
	// the row existed.
	Delete(ctx context.Context, id string) (bool, error)

	// ClearAll wipes memory, chunk, session, and embedding-cache rows.
	ClearAll(ctx context.Context) error

	// GetCachedEmbedding returns the cached embedding for content, or nil
	// when absent.
	GetCachedEmbedding(ctx context.Context, content string) (*CachedEmbedding, error)

	// CacheEmbedding stores an embedding under the content's fingerprint.
	// First write wins; existing entries are never overwritten.
	CacheEmbedding(ctx context.Context, content string, vec []float32, embedModel string) error

	// Close closes the store.
	Close() error
}
