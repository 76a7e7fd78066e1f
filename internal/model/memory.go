// Package model defines the core memory data types.
package model

import "time"

// Memory sources.
const (
	SourceUser   = "user"
	SourceAgent  = "agent"
	SourceSystem = "system"
)

// ValidSources are the allowed memory sources.
var ValidSources = map[string]bool{
	SourceUser:   true,
	SourceAgent:  true,
	SourceSystem: true,
}

// Memory categories.
const (
	CategoryPreference = "preference"
	CategoryDecision   = "decision"
	CategoryEntity     = "entity"
	CategoryFact       = "fact"
	CategoryOther      = "other"
)

// ValidCategories are the allowed memory categories.
var ValidCategories = map[string]bool{
	CategoryPreference: true,
	CategoryDecision:   true,
	CategoryEntity:     true,
	CategoryFact:       true,
	CategoryOther:      true,
}

// Memory represents a stored memory record. Content is immutable after
// creation; re-storing identical content merges into the existing record.
type Memory struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	ContentHash string         `json:"content_hash"`
	Embedding   []float32      `json:"embedding,omitempty"`
	Category    string         `json:"category"`
	Source      string         `json:"source"`
	Importance  float64        `json:"importance"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Chunk represents one fragment of a parent document's content.
// Chunks are created in bulk during ingestion and destroyed only when
// the parent memory is deleted.
type Chunk struct {
	ID          string    `json:"id"`
	MemoryID    string    `json:"memory_id"`
	Index       int       `json:"index"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding,omitempty"`
	StartLine   int       `json:"start_line"` // 1-based, inclusive
	EndLine     int       `json:"end_line"`
}

// Message is one turn of a conversation session.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
