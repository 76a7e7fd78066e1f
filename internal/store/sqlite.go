package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/recallhq/recall/internal/classifier"
	"github.com/recallhq/recall/internal/fingerprint"
	"github.com/recallhq/recall/internal/model"
)

// SQLiteStore implements Store using SQLite. Dedup is enforced by a unique
// index on the content fingerprint; a constraint race resolves into the
// merge path.
type SQLiteStore struct {
	db  *sql.DB
	hot *ristretto.Cache // in-process front for the embedding cache
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	hot, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	s := &SQLiteStore{
		db:  db,
		hot: hot,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// newID generates a record id. ulid.Make is safe for concurrent writers.
func (s *SQLiteStore) newID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id           TEXT PRIMARY KEY,
		content      TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		embedding    TEXT,
		category     TEXT NOT NULL DEFAULT 'other',
		source       TEXT NOT NULL DEFAULT 'user',
		importance   REAL NOT NULL DEFAULT 0.7,
		metadata     TEXT,
		created_at   TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_memories_hash ON memories(content_hash);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);

	CREATE TABLE IF NOT EXISTS chunks (
		id           TEXT PRIMARY KEY,
		memory_id    TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
		chunk_index  INTEGER NOT NULL,
		content      TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		embedding    TEXT,
		start_line   INTEGER,
		end_line     INTEGER,
		UNIQUE (memory_id, chunk_index)
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_memory ON chunks(memory_id);

	CREATE TABLE IF NOT EXISTS embedding_cache (
		content_hash TEXT PRIMARY KEY,
		embedding    TEXT NOT NULL,
		model        TEXT NOT NULL,
		created_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_session ON sessions(session_id, id);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		content,
		content=memories,
		content_rowid=rowid
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers keep the lexical index in sync with content writes.
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
		INSERT INTO memories_fts(rowid, content) VALUES (new.rowid, new.content);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
		INSERT INTO memories_fts(memories_fts, rowid, content) VALUES('delete', old.rowid, old.content);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE OF content ON memories BEGIN
		INSERT INTO memories_fts(memories_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		INSERT INTO memories_fts(rowid, content) VALUES (new.rowid, new.content);
	END`)

	// Backfill FTS for any rows not yet indexed
	s.db.Exec(`INSERT OR IGNORE INTO memories_fts(rowid, content) SELECT rowid, content FROM memories`)

	return nil
}

// Store persists content, merging into the existing record when the content
// fingerprint is already present. Idempotent under identical content.
func (s *SQLiteStore) Store(ctx context.Context, p StoreParams) (string, error) {
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
	importance := DefaultImportance
	if p.Importance != nil {
		importance = *p.Importance
		if importance < 0 || importance > 1 {
			return "", fmt.Errorf("importance %g out of range [0,1]", importance)
		}
	}

	hash := fingerprint.Hash(p.Content)

	// A concurrent writer may insert the same content between our lookup
	// and insert; the unique index rejects the duplicate and a second
	// attempt takes the merge path.
	for attempt := 0; attempt < 2; attempt++ {
		id, retry, err := s.storeOnce(ctx, p, hash, source, importance)
		if err != nil {
			return "", err
		}
		if !retry {
			return id, nil
		}
	}
	return "", fmt.Errorf("store: unresolved content conflict for %s", hash)
}

func (s *SQLiteStore) storeOnce(ctx context.Context, p StoreParams, hash, source string, importance float64) (id string, retry bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, err
	}
	defer tx.Rollback()

	var (
		existingID   string
		existingEmb  sql.NullString
		existingImp  float64
		existingMeta sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, embedding, importance, metadata FROM memories WHERE content_hash = ?`,
		hash).Scan(&existingID, &existingEmb, &existingImp, &existingMeta)

	switch {
	case err == nil:
		// Merge. Embedding is replaced only when the incoming one is
		// non-nil; importance is monotonically non-decreasing; metadata
		// merges key-wise with incoming values winning. Category and
		// source stay untouched.
		emb := existingEmb
		if p.Embedding != nil {
			emb = sql.NullString{String: encodeVector(p.Embedding), Valid: true}
		}
		if existingImp > importance {
			importance = existingImp
		}
		meta := decodeMetadata(existingMeta)
		for k, v := range p.Metadata {
			meta[k] = v
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE memories SET embedding = ?, importance = ?, metadata = ? WHERE id = ?`,
			emb, importance, encodeMetadata(meta), existingID)
		if err != nil {
			return "", false, fmt.Errorf("merge memory: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", false, err
		}
		return existingID, false, nil

	case errors.Is(err, sql.ErrNoRows):
		id = s.newID()
		now := time.Now().UTC().Format(time.RFC3339)
		category := classifier.DetectCategory(p.Content)

		_, err = tx.ExecContext(ctx,
			`INSERT INTO memories (id, content, content_hash, embedding, category, source, importance, metadata, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.Content, hash, encodeVectorNull(p.Embedding), category, source,
			importance, encodeMetadata(p.Metadata), now)
		if err != nil {
			if isUniqueViolation(err) {
				return "", true, nil
			}
			return "", false, fmt.Errorf("insert memory: %w", err)
		}

		if p.Embedding != nil {
			if err := cacheEmbeddingTx(ctx, tx, hash, p.Embedding, p.EmbedModel); err != nil {
				return "", false, err
			}
		}

		if err := tx.Commit(); err != nil {
			return "", false, err
		}
		return id, false, nil

	default:
		return "", false, err
	}
}

// Get returns a memory by id, or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, content_hash, embedding, category, source, importance, metadata, created_at
		 FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns memories newest-first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, content_hash, embedding, category, source, importance, metadata, created_at
		 FROM memories ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// Chunks returns a memory's chunk rows in index order.
func (s *SQLiteStore) Chunks(ctx context.Context, memoryID string) ([]model.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, memory_id, chunk_index, content, content_hash, embedding, start_line, end_line
		 FROM chunks WHERE memory_id = ? ORDER BY chunk_index`, memoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var (
			c   model.Chunk
			emb sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.MemoryID, &c.Index, &c.Content, &c.ContentHash, &emb, &c.StartLine, &c.EndLine); err != nil {
			return nil, err
		}
		if emb.Valid {
			c.Embedding = decodeVector(emb.String)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Delete removes a memory; its chunks cascade. Reports whether the row
// existed.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClearAll wipes memory, chunk, session, and embedding-cache rows.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM chunks`,
		`DELETE FROM memories`,
		`DELETE FROM sessions`,
		`DELETE FROM embedding_cache`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.hot.Clear()
	return nil
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	s.hot.Close()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.Memory, error) {
	var (
		m         model.Memory
		emb, meta sql.NullString
		createdAt string
	)
	err := row.Scan(&m.ID, &m.Content, &m.ContentHash, &emb, &m.Category, &m.Source, &m.Importance, &meta, &createdAt)
	if err != nil {
		return m, err
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if emb.Valid {
		m.Embedding = decodeVector(emb.String)
	}
	if meta.Valid {
		m.Metadata = decodeMetadata(meta)
	}
	return m, nil
}

func encodeVector(vec []float32) string {
	b, err := json.Marshal(vec)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func encodeVectorNull(vec []float32) sql.NullString {
	if vec == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeVector(vec), Valid: true}
}

func decodeVector(raw string) []float32 {
	if raw == "" {
		return nil
	}
	var out []float32
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func encodeMetadata(meta map[string]any) string {
	if len(meta) == 0 {
		return "{}"
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeMetadata(raw sql.NullString) map[string]any {
	out := map[string]any{}
	if !raw.Valid || raw.String == "" {
		return out
	}
	json.Unmarshal([]byte(raw.String), &out)
	return out
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
