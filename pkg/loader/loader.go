package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// PaperFile represents a source document on disk that can be turned into
// raw text for chunking and extraction. The actual content is retrieved
// via the associated PaperLoader.
type PaperFile struct {
	ID     string
	Path   string
	Title  string
	Loader PaperLoader
}

// PaperLoader defines the interface for extracting raw text from a paper
// file. Implementations exist for PDFs (external pdftotext) and for
// plaintext/markdown files; text extraction itself is treated as a
// primitive, not something the pipeline implements.
type PaperLoader interface {
	GetFileText(ctx context.Context, file PaperFile) ([]byte, error)
}

// GetText retrieves the raw text content of the file using its Loader.
func (f *PaperFile) GetText(ctx context.Context) ([]byte, error) {
	if f.Loader == nil {
		return nil, fmt.Errorf("no loader configured for %s", f.Path)
	}
	return f.Loader.GetFileText(ctx, *f)
}

// CacheKey generates a unique cache key for a PaperFile based on its ID and path.
func CacheKey(file PaperFile) string {
	return file.ID + ":" + file.Path
}

// SupportedExtensions lists the file extensions the pipeline can ingest.
var SupportedExtensions = map[string]struct{}{
	".pdf":      {},
	".txt":      {},
	".md":       {},
	".text":     {},
	".markdown": {},
}

// IsSupported reports whether path has an ingestible extension.
func IsSupported(path string) bool {
	_, ok := SupportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

var slugRe = regexp.MustCompile(`[^a-z0-9._-]+`)

// SlugID derives a stable document id from a file path: the lowercased
// file stem with runs of unsupported characters collapsed to '-'. The id
// is deterministic so re-ingesting the same file always maps to the same
// document.
func SlugID(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.ToLower(stem)
	stem = slugRe.ReplaceAllString(stem, "-")
	return strings.Trim(stem, "-")
}
