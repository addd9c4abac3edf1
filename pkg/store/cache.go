package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/papergraph/papergraph/pkg/common"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS extractions (
	doc_id       TEXT NOT NULL,
	chunk_index  INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	result       TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	PRIMARY KEY (doc_id, chunk_index)
);
`

// ExtractionCache persists per-chunk extraction results keyed by
// (document id, chunk index, content hash). An entry is only served while
// its hash matches the current chunk text; any mismatch is a miss and the
// chunk is re-extracted.
type ExtractionCache struct {
	db *DB
}

// OpenExtractionCache opens or creates the extraction cache database at path.
func OpenExtractionCache(path string) (*ExtractionCache, error) {
	db, err := Open(path, cacheSchema)
	if err != nil {
		return nil, err
	}
	return &ExtractionCache{db: db}, nil
}

// Close closes the underlying database.
func (c *ExtractionCache) Close() error {
	return c.db.Close()
}

// Get returns the cached result for key, or nil on a miss. A stored entry
// whose hash differs from key.Hash is stale and treated as a miss. A stored
// entry that no longer parses is corrupt: it is discarded so the chunk is
// re-extracted, and the error is reported to the caller for the build report.
func (c *ExtractionCache) Get(key common.ChunkKey) (*common.ExtractionResult, error) {
	row := c.db.sqlDB.QueryRow(
		"SELECT content_hash, result FROM extractions WHERE doc_id = ? AND chunk_index = ?",
		key.DocID, key.Index)

	var hash, raw string
	err := row.Scan(&hash, &raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if hash != key.Hash {
		return nil, nil
	}

	var result common.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		if dErr := c.Delete(key); dErr != nil {
			return nil, fmt.Errorf("corrupt cache entry for %s[%d] could not be discarded: %w", key.DocID, key.Index, dErr)
		}
		return nil, fmt.Errorf("discarded corrupt cache entry for %s[%d]: %w", key.DocID, key.Index, err)
	}
	result.Key = key
	return &result, nil
}

// Put stores result under its key, replacing any previous entry for the
// same (doc id, chunk index).
func (c *ExtractionCache) Put(result common.ExtractionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode extraction result: %w", err)
	}

	_, err = c.db.sqlDB.Exec(`
		INSERT INTO extractions (doc_id, chunk_index, content_hash, result, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(doc_id, chunk_index) DO UPDATE SET
			content_hash = excluded.content_hash,
			result = excluded.result,
			created_at = excluded.created_at
	`, result.Key.DocID, result.Key.Index, result.Key.Hash, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for key's (doc id, chunk index), if present.
func (c *ExtractionCache) Delete(key common.ChunkKey) error {
	_, err := c.db.sqlDB.Exec(
		"DELETE FROM extractions WHERE doc_id = ? AND chunk_index = ?",
		key.DocID, key.Index)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Count returns the number of cached extraction results.
func (c *ExtractionCache) Count() (int, error) {
	var n int
	if err := c.db.sqlDB.QueryRow("SELECT COUNT(*) FROM extractions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
