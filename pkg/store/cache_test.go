package store

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/papergraph/papergraph/pkg/common"
)

func openTestCache(t *testing.T) *ExtractionCache {
	t.Helper()
	cache, err := OpenExtractionCache(filepath.Join(t.TempDir(), "extraction_cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func testResult(docID string, index int, hash string) common.ExtractionResult {
	return common.ExtractionResult{
		Key: common.ChunkKey{DocID: docID, Index: index, Hash: hash},
		Mentions: []common.Mention{
			{Name: "Bailey lemma", Type: common.TypeTechnique, Description: "An iteration device."},
		},
	}
}

func TestCacheMissOnEmpty(t *testing.T) {
	cache := openTestCache(t)
	got, err := cache.Get(common.ChunkKey{DocID: "doc", Index: 0, Hash: "h"})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected a miss, got %+v", got)
	}
}

func TestCachePutGet(t *testing.T) {
	cache := openTestCache(t)
	want := testResult("doc", 3, "h1")
	if err := cache.Put(want); err != nil {
		t.Fatal(err)
	}

	got, err := cache.Get(want.Key)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected a hit")
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %+v, want %+v", *got, want)
	}
}

func TestCacheHashMismatchIsMiss(t *testing.T) {
	cache := openTestCache(t)
	stored := testResult("doc", 0, "old-hash")
	if err := cache.Put(stored); err != nil {
		t.Fatal(err)
	}

	// Same chunk position, changed content: the stale entry must not be
	// served.
	got, err := cache.Get(common.ChunkKey{DocID: "doc", Index: 0, Hash: "new-hash"})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("stale entry served: %+v", got)
	}
}

func TestCachePutReplaces(t *testing.T) {
	cache := openTestCache(t)
	if err := cache.Put(testResult("doc", 0, "h1")); err != nil {
		t.Fatal(err)
	}

	updated := testResult("doc", 0, "h2")
	updated.Quarantined = 1
	if err := cache.Put(updated); err != nil {
		t.Fatal(err)
	}

	got, err := cache.Get(updated.Key)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Quarantined != 1 {
		t.Errorf("expected the replacing entry, got %+v", got)
	}

	n, err := cache.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry after replace, got %d", n)
	}
}

func TestCacheDelete(t *testing.T) {
	cache := openTestCache(t)
	stored := testResult("doc", 0, "h")
	if err := cache.Put(stored); err != nil {
		t.Fatal(err)
	}
	if err := cache.Delete(stored.Key); err != nil {
		t.Fatal(err)
	}

	got, err := cache.Get(stored.Key)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected a miss after delete, got %+v", got)
	}
}

func TestCacheDiscardsCorruptEntries(t *testing.T) {
	cache := openTestCache(t)
	key := common.ChunkKey{DocID: "doc", Index: 0, Hash: "h"}

	_, err := cache.db.sqlDB.Exec(`
		INSERT INTO extractions (doc_id, chunk_index, content_hash, result, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, key.DocID, key.Index, key.Hash, "{not json", "2026-01-01T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}

	got, err := cache.Get(key)
	if err == nil {
		t.Error("expected an error reporting the discarded entry")
	}
	if got != nil {
		t.Errorf("corrupt entry served: %+v", got)
	}

	n, err := cache.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("corrupt entry still present, count=%d", n)
	}
}
