package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath           string         `json:"db_path"`
	DBSizeBytes      int64          `json:"db_size_bytes"`
	TotalMemories    int            `json:"total_memories"`
	TotalChunks      int            `json:"total_chunks"`
	CachedEmbeddings int            `json:"cached_embeddings"`
	SessionMessages  int            `json:"session_messages"`
	ByCategory       map[string]int `json:"by_category"`
	BySource         map[string]int `json:"by_source"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{
		DBPath:     dbPath,
		ByCategory: map[string]int{},
		BySource:   map[string]int{},
	}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalMemories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&st.TotalChunks)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embedding_cache`).Scan(&st.CachedEmbeddings)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&st.SessionMessages)

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM memories GROUP BY category`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			category string
			count    int
		)
		rows.Scan(&category, &count)
		st.ByCategory[category] = count
	}

	srcRows, err := s.db.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM memories GROUP BY source`)
	if err != nil {
		return st, err
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var (
			source string
			count  int
		)
		srcRows.Scan(&source, &count)
		st.BySource[source] = count
	}

	return st, nil
}
