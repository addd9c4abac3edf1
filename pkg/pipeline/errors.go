package pipeline

import "errors"

// The pipeline's error kinds fix how far a failure reaches. Configuration
// problems abort the whole build; everything below that degrades to
// skipping the affected item and reporting it.
var (
	// ErrConfig marks an unusable configuration or input contract, such as
	// an empty paper directory. Fatal; no snapshot is written.
	ErrConfig = errors.New("configuration error")

	// ErrIngest marks a document that could not be read, chunked or
	// embedded. The document is skipped.
	ErrIngest = errors.New("ingestion error")

	// ErrExtract marks a chunk whose extraction failed after retries. The
	// chunk is skipped.
	ErrExtract = errors.New("extraction error")

	// ErrMerge marks a cached extraction result that could not be decoded.
	// The cache entry is discarded and the chunk re-extracted.
	ErrMerge = errors.New("merge error")
)
