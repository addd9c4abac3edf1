package store

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/papergraph/papergraph/pkg/common"
)

const vectorSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	path         TEXT NOT NULL,
	title        TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	chunk_count  INTEGER NOT NULL,
	ingested_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	id           TEXT PRIMARY KEY,
	doc_id       TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_index  INTEGER NOT NULL,
	text         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	start_off    INTEGER NOT NULL,
	end_off      INTEGER NOT NULL,
	vector       BLOB NOT NULL,
	dimension    INTEGER NOT NULL,
	UNIQUE (doc_id, chunk_index)
);
CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id, chunk_index);
`

// VectorIndex is the persistent store mapping chunk ids to embedding
// vectors plus chunk metadata. It supports document-level upsert and
// nearest-neighbor queries by cosine similarity.
type VectorIndex struct {
	db *DB
}

// OpenVectorIndex opens or creates the vector index database at path.
func OpenVectorIndex(path string) (*VectorIndex, error) {
	db, err := Open(path, vectorSchema)
	if err != nil {
		return nil, err
	}
	return &VectorIndex{db: db}, nil
}

// Close closes the underlying database.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

// GetDocument returns the stored document with the given id, or nil if it
// has never been ingested.
func (v *VectorIndex) GetDocument(id string) (*common.Document, error) {
	row := v.db.sqlDB.QueryRow(
		"SELECT id, path, title, content_hash, chunk_count FROM documents WHERE id = ?", id)

	var doc common.Document
	err := row.Scan(&doc.ID, &doc.Path, &doc.Title, &doc.ContentHash, &doc.ChunkCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// ReplaceDocument stores doc and its chunks with vectors, replacing any
// chunks previously belonging to the same document id. The whole
// replacement is one transaction, so an interrupted run never leaves a
// document half-written.
func (v *VectorIndex) ReplaceDocument(doc common.Document, chunks []common.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}

	tx, err := v.db.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chunks WHERE doc_id = ?", doc.ID); err != nil {
		return fmt.Errorf("failed to clear previous chunks: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
		INSERT INTO documents (id, path, title, content_hash, chunk_count, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			content_hash = excluded.content_hash,
			chunk_count = excluded.chunk_count,
			ingested_at = excluded.ingested_at
	`, doc.ID, doc.Path, doc.Title, doc.ContentHash, len(chunks), now); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (id, doc_id, chunk_index, text, content_hash, start_off, end_off, vector, dimension)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		blob, err := vectorToBlob(vectors[i])
		if err != nil {
			return fmt.Errorf("failed to encode vector for chunk %d: %w", chunk.Index, err)
		}
		if _, err := stmt.Exec(chunk.ID, chunk.DocID, chunk.Index, chunk.Text, chunk.Hash, chunk.Start, chunk.End, blob, len(vectors[i])); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// AllChunks returns every stored chunk ordered by document id and chunk
// index. Vectors are not loaded; extraction only needs text and keys.
func (v *VectorIndex) AllChunks() ([]common.Chunk, error) {
	rows, err := v.db.sqlDB.Query(`
		SELECT id, doc_id, chunk_index, text, content_hash, start_off, end_off
		FROM chunks ORDER BY doc_id, chunk_index
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []common.Chunk
	for rows.Next() {
		var c common.Chunk
		if err := rows.Scan(&c.ID, &c.DocID, &c.Index, &c.Text, &c.Hash, &c.Start, &c.End); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Counts returns the number of stored documents and chunks.
func (v *VectorIndex) Counts() (documents int, chunks int, err error) {
	if err := v.db.sqlDB.QueryRow("SELECT COUNT(*) FROM documents").Scan(&documents); err != nil {
		return 0, 0, fmt.Errorf("failed to count documents: %w", err)
	}
	if err := v.db.sqlDB.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&chunks); err != nil {
		return 0, 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return documents, chunks, nil
}

// ScoredChunk is a nearest-neighbor query result.
type ScoredChunk struct {
	Chunk common.Chunk
	Score float32
}

// Query returns the k stored chunks nearest to vector by cosine
// similarity, best first.
func (v *VectorIndex) Query(vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := v.db.sqlDB.Query(`
		SELECT id, doc_id, chunk_index, text, content_hash, start_off, end_off, vector
		FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var c common.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocID, &c.Index, &c.Text, &c.Hash, &c.Start, &c.End, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		stored, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("corrupt vector for chunk %s: %w", c.ID, err)
		}
		results = append(results, ScoredChunk{Chunk: c, Score: cosineSimilarity(vector, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func vectorToBlob(vector []float32) ([]byte, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("cannot encode empty vector")
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vector); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func blobToVector(blob []byte) ([]float32, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
