package pdf

import (
	"context"
	"sync"

	"github.com/papergraph/papergraph/pkg/loader"

	"golang.org/x/sync/singleflight"
)

// PDFPaperLoader extracts text from PDF files via the external pdftotext
// binary. Extracted text is cached per file so repeated reads during a
// build hit disk and the external tool only once.
type PDFPaperLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFPaperLoader creates a PDF loader that extracts text from PDF content.
func NewPDFPaperLoader() *PDFPaperLoader {
	return &PDFPaperLoader{
		cache: make(map[string][]byte),
	}
}

// GetFileText extracts text from a PDF file.
func (l *PDFPaperLoader) GetFileText(ctx context.Context, file loader.PaperFile) ([]byte, error) {
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

		text, err := parsePDF(ctx, file.Path)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = text
		l.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
