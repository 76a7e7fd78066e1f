package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/recallhq/recall/internal/fingerprint"
)

// CacheEmbedding stores an embedding for content under its fingerprint.
// First write wins: a pre-existing entry for the same fingerprint is never
// overwritten, so concurrent writers cannot flip-flop the stored vector.
func (s *SQLiteStore) CacheEmbedding(ctx context.Context, content string, vec []float32, embedModel string) error {
	if len(vec) == 0 {
		return fmt.Errorf("embedding is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := cacheEmbeddingTx(ctx, tx, fingerprint.Hash(content), vec, embedModel); err != nil {
		return err
	}
	return tx.Commit()
}

func cacheEmbeddingTx(ctx context.Context, tx *sql.Tx, hash string, vec []float32, embedModel string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx,
		`INSERT INTO embedding_cache (content_hash, embedding, model, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO NOTHING`,
		hash, encodeVector(vec), embedModel, now)
	if err != nil {
		return fmt.Errorf("cache embedding: %w", err)
	}
	return nil
}

// GetCachedEmbedding returns the cached embedding for content, or nil when
// absent. A hot in-process cache fronts the table; it is populated from the
// authoritative row, never from the caller's argument.
func (s *SQLiteStore) GetCachedEmbedding(ctx context.Context, content string) (*CachedEmbedding, error) {
	hash := fingerprint.Hash(content)

	if v, ok := s.hot.Get(hash); ok {
		if entry, ok := v.(*CachedEmbedding); ok {
			return entry, nil
		}
	}

	var (
		emb        string
		embedModel string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT embedding, model FROM embedding_cache WHERE content_hash = ?`,
		hash).Scan(&emb, &embedModel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry := &CachedEmbedding{Embedding: decodeVector(emb), Model: embedModel}
	s.hot.Set(hash, entry, int64(len(entry.Embedding)*4))
	return entry, nil
}
