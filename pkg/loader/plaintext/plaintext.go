package plaintext

import (
	"context"
	"os"
	"sync"

	"github.com/papergraph/papergraph/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// PlaintextPaperLoader reads txt/markdown files directly from disk.
type PlaintextPaperLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPlaintextPaperLoader creates a new filesystem-based plaintext loader.
func NewPlaintextPaperLoader() *PlaintextPaperLoader {
	return &PlaintextPaperLoader{
		cache: make(map[string][]byte),
	}
}

// GetFileText reads the file content from the filesystem. Results are cached.
func (l *PlaintextPaperLoader) GetFileText(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = content
		l.cacheMu.Unlock()

		return content, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
