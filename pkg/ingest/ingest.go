package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/papergraph/papergraph/internal/util"
	"github.com/papergraph/papergraph/pkg/ai"
	"github.com/papergraph/papergraph/pkg/common"
	"github.com/papergraph/papergraph/pkg/config"
	"github.com/papergraph/papergraph/pkg/loader"
	"github.com/papergraph/papergraph/pkg/loader/pdf"
	"github.com/papergraph/papergraph/pkg/loader/plaintext"
	"github.com/papergraph/papergraph/pkg/logger"
	"github.com/papergraph/papergraph/pkg/progress"
	"github.com/papergraph/papergraph/pkg/store"
)

// metadataFile is an optional sidecar in the paper directory mapping file
// names to display titles.
const metadataFile = "papers.json"

// embedBatchSize bounds how many chunk texts go into one embedding request.
const embedBatchSize = 100

const (
	retryBaseDelay = 2 * time.Second
	retryMaxDelay  = 30 * time.Second
)

// SkippedFile records a document the ingest stage gave up on, and why.
// Skips never abort the build; the remaining documents still go through.
type SkippedFile struct {
	Path   string
	Reason string
}

// Result summarizes one ingest run over a paper directory.
type Result struct {
	Documents []common.Document
	Skipped   []SkippedFile
	Reused    int
	Embedded  int
}

// Stage turns the files of a paper directory into embedded chunks in the
// vector index. Documents whose content hash is unchanged since the last
// run are left untouched.
type Stage struct {
	cfg       *config.Config
	client    ai.ConceptAIClient
	index     *store.VectorIndex
	sink      progress.Sink
	pdf       loader.PaperLoader
	plaintext loader.PaperLoader
}

func NewStage(cfg *config.Config, client ai.ConceptAIClient, index *store.VectorIndex, sink progress.Sink) *Stage {
	return &Stage{
		cfg:       cfg,
		client:    client,
		index:     index,
		sink:      sink,
		pdf:       pdf.NewPDFPaperLoader(),
		plaintext: plaintext.NewPlaintextPaperLoader(),
	}
}

// Run ingests every supported file in dir. Files that fail text extraction
// or embedding are skipped and reported; only an unreadable directory is
// fatal.
func (s *Stage) Run(ctx context.Context, dir string) (*Result, error) {
	files, err := s.ScanDir(dir)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, file := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.sink.Update(progress.StageIngesting, filepath.Base(file.Path), float64(i)/float64(len(files))*100)

		doc, reused, err := s.ingestFile(ctx, file)
		if err != nil {
			msg := fmt.Sprintf("skipping %s: %v", filepath.Base(file.Path), err)
			s.sink.Error(msg)
			result.Skipped = append(result.Skipped, SkippedFile{Path: file.Path, Reason: err.Error()})
			continue
		}
		if reused {
			result.Reused++
		} else {
			result.Embedded += doc.ChunkCount
		}
		result.Documents = append(result.Documents, *doc)
	}
	s.sink.Update(progress.StageIngesting, "done", 100)

	return result, nil
}

// ScanDir lists the supported paper files in dir in deterministic name
// order, attaching titles from the papers.json sidecar when present.
func (s *Stage) ScanDir(dir string) ([]loader.PaperFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read paper directory: %w", err)
	}

	titles := readTitles(dir)

	var files []loader.PaperFile
	for _, entry := range entries {
		if entry.IsDir() || !loader.IsSupported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		files = append(files, loader.PaperFile{
			ID:     loader.SlugID(path),
			Path:   path,
			Title:  titleFor(titles, entry.Name()),
			Loader: s.loaderFor(path),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return files, nil
}

func (s *Stage) loaderFor(path string) loader.PaperLoader {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return s.pdf
	}
	return s.plaintext
}

// ingestFile extracts, chunks and embeds one file. It reports reused=true
// when the stored document already matches the file's content hash.
func (s *Stage) ingestFile(ctx context.Context, file loader.PaperFile) (*common.Document, bool, error) {
	raw, err := file.GetText(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("text extraction failed: %w", err)
	}
	text := util.SanitizeText(string(raw))
	if strings.TrimSpace(text) == "" {
		return nil, false, fmt.Errorf("no extractable text")
	}

	hash := HashText(text)
	existing, err := s.index.GetDocument(file.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil && existing.ContentHash == hash {
		logger.Debug("document unchanged", "id", file.ID)
		return existing, true, nil
	}

	chunks := ChunkText(file.ID, text, s.cfg.Chunking.Size, s.cfg.Chunking.Overlap, s.cfg.Chunking.MinChunkChars)
	if len(chunks) == 0 {
		return nil, false, fmt.Errorf("document produced no chunks")
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, false, fmt.Errorf("embedding failed: %w", err)
	}

	doc := common.Document{
		ID:          file.ID,
		Path:        file.Path,
		Title:       file.Title,
		ContentHash: hash,
		ChunkCount:  len(chunks),
	}
	if err := s.index.ReplaceDocument(doc, chunks, vectors); err != nil {
		return nil, false, err
	}
	logger.Info("document ingested", "id", file.ID, "chunks", len(chunks))

	return &doc, false, nil
}

// embedChunks embeds chunk texts in batches, truncating oversized chunks to
// the embedding input limit. Failed batches are retried with backoff before
// the document is given up on.
func (s *Stage) embedChunks(ctx context.Context, chunks []common.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	for offset := 0; offset < len(chunks); offset += embedBatchSize {
		batch := chunks[offset:util.Min(offset+embedBatchSize, len(chunks))]
		inputs := make([][]byte, len(batch))
		for i, chunk := range batch {
			inputs[i] = []byte(util.TruncateRunes(chunk.Text, s.cfg.Chunking.EmbedMaxChars))
		}

		batchVectors, err := util.RetryWithBackoff(ctx, s.cfg.AI.MaxRetries, retryBaseDelay, retryMaxDelay,
			func(ctx context.Context) ([][]float32, error) {
				return s.client.GenerateEmbeddings(ctx, inputs)
			})
		if err != nil {
			return nil, err
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d inputs", len(batchVectors), len(batch))
		}
		vectors = append(vectors, batchVectors...)
	}

	return vectors, nil
}

// readTitles loads the optional papers.json sidecar. A missing or broken
// sidecar just means file names double as titles.
func readTitles(dir string) map[string]string {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil
	}
	var titles map[string]string
	if err := json.Unmarshal(data, &titles); err != nil {
		logger.Warn("ignoring unparseable papers.json", "error", err)
		return nil
	}
	return titles
}

// titleFor resolves a display title for name, falling back to a cleaned-up
// file stem.
func titleFor(titles map[string]string, name string) string {
	if title, ok := titles[name]; ok && title != "" {
		return title
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.ReplaceAll(stem, "-", " ")
	return strings.Join(strings.Fields(stem), " ")
}
