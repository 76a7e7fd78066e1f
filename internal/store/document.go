package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recallhq/recall/internal/chunker"
	"github.com/recallhq/recall/internal/fingerprint"
	"github.com/recallhq/recall/internal/logging"
	"github.com/recallhq/recall/internal/model"
)

// Documents are summarized by their first characters when no title is given.
const documentSummaryLen = 100

// StoreDocument persists a long document as one parent record plus ordered
// chunk rows, atomically: readers never observe a partially chunked
// document. Returns the parent id.
//
// The parent's content is the title when given, else the document's first
// characters. Documents bypass the classifier; the parent category is always
// "fact". Re-ingesting a document whose summary dedups to an existing parent
// replaces that parent's chunks. Chunk embeddings are cached under the chunk
// fingerprints, first write wins.
func (s *SQLiteStore) StoreDocument(ctx context.Context, p DocumentParams) (string, error) {
	if strings.TrimSpace(p.Content) == "" {
		return "", fmt.Errorf("content is required")
	}
	source := p.Source
	if source == "" {
		source = model.SourceUser
	}
	if !model.ValidSources[source] {
		return "", fmt.Errorf("invalid source %q (valid: user, agent, system)", source)
	}

	summary := p.Title
	if summary == "" {
		runes := []rune(p.Content)
		if len(runes) > documentSummaryLen {
			runes = runes[:documentSummaryLen]
		}
		summary = string(runes)
	}

	meta := map[string]any{}
	for k, v := range p.Metadata {
		meta[k] = v
	}
	meta["type"] = "document"
	meta["length"] = len(p.Content)

	opts := p.ChunkOptions
	if opts.MaxTokens <= 0 {
		opts = chunker.DefaultOptions()
	}
	chunks := chunker.Split(p.Content, opts)
	hash := fingerprint.Hash(summary)

	for attempt := 0; attempt < 2; attempt++ {
		id, retry, err := s.storeDocumentOnce(ctx, p, chunks, summary, hash, source, meta)
		if err != nil {
			return "", err
		}
		if !retry {
			logging.From(ctx).Debug("document ingested",
				"memory_id", id, "chunks", len(chunks), "length", len(p.Content))
			return id, nil
		}
	}
	return "", fmt.Errorf("store document: unresolved content conflict for %s", hash)
}

func (s *SQLiteStore) storeDocumentOnce(ctx context.Context, p DocumentParams, chunks []chunker.Chunk, summary, hash, source string, meta map[string]any) (id string, retry bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	var (
		parentID     string
		existingImp  float64
		existingMeta sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, importance, metadata FROM memories WHERE content_hash = ?`,
		hash).Scan(&parentID, &existingImp, &existingMeta)

	switch {
	case err == nil:
		// Same summary already stored: merge metadata into the existing
		// parent and rebuild its chunks.
		merged := decodeMetadata(existingMeta)
		for k, v := range meta {
			merged[k] = v
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE memories SET metadata = ? WHERE id = ?`,
			encodeMetadata(merged), parentID); err != nil {
			return "", false, fmt.Errorf("merge document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE memory_id = ?`, parentID); err != nil {
			return "", false, fmt.Errorf("replace chunks: %w", err)
		}

	case errors.Is(err, sql.ErrNoRows):
		parentID = s.newID()
		now := time.Now().UTC().Format(time.RFC3339)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO memories (id, content, content_hash, embedding, category, source, importance, metadata, created_at)
			 VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?)`,
			parentID, summary, hash, model.CategoryFact, source,
			DefaultImportance, encodeMetadata(meta), now)
		if err != nil {
			if isUniqueViolation(err) {
				return "", true, nil
			}
			return "", false, fmt.Errorf("insert document: %w", err)
		}

	default:
		return "", false, err
	}

	for i, c := range chunks {
		var emb sql.NullString
		if i < len(p.ChunkEmbeddings) && p.ChunkEmbeddings[i] != nil {
			emb = sql.NullString{String: encodeVector(p.ChunkEmbeddings[i]), Valid: true}
			if err := cacheEmbeddingTx(ctx, tx, c.Fingerprint, p.ChunkEmbeddings[i], p.EmbedModel); err != nil {
				return "", false, err
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (id, memory_id, chunk_index, content, content_hash, embedding, start_line, end_line)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), parentID, c.Index, c.Content, c.Fingerprint, emb, c.StartLine, c.EndLine)
		if err != nil {
			return "", false, fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, err
	}
	return parentID, false, nil
}
