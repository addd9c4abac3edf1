package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papergraph/papergraph/pkg/ai"
	"github.com/papergraph/papergraph/pkg/config"
	"github.com/papergraph/papergraph/pkg/extract"
	"github.com/papergraph/papergraph/pkg/graph"
	"github.com/papergraph/papergraph/pkg/ingest"
	"github.com/papergraph/papergraph/pkg/logger"
	"github.com/papergraph/papergraph/pkg/progress"
	"github.com/papergraph/papergraph/pkg/store"
)

// Well-known names inside a target directory. The paper sources live in
// papers/ when that folder exists, otherwise in the directory itself.
const (
	papersSubdir  = "papers"
	indexFile     = "index.db"
	cacheFile     = "extraction_cache.db"
	snapshotFile  = "knowledge_graph.json"
	vizFile       = "knowledge_graph.html"
	topConceptMax = 10
)

// Options selects how a build runs.
type Options struct {
	// Resume folds only extraction results missing from the prior
	// snapshot's accumulator instead of rebuilding from scratch.
	Resume bool
	// VizOnly regenerates the HTML visualization from the existing
	// snapshot without touching the stores or the AI service.
	VizOnly bool
	// Viz additionally writes the HTML visualization after a build.
	Viz bool
}

// Pipeline runs the three build stages against one target directory. A
// directory is owned by a single pipeline run at a time.
type Pipeline struct {
	cfg    *config.Config
	client ai.ConceptAIClient
	sink   progress.Sink
}

func New(cfg *config.Config, client ai.ConceptAIClient, sink progress.Sink) *Pipeline {
	if sink == nil {
		sink = progress.Nop{}
	}
	return &Pipeline{cfg: cfg, client: client, sink: sink}
}

// Run executes a build against dir and returns its report. Ingest, extract
// and merge run strictly in sequence so every stage starts from durable
// state and an interrupt loses at most the stage in flight.
func (p *Pipeline) Run(ctx context.Context, dir string, opts Options) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a readable directory", ErrConfig, dir)
	}

	snapshotPath := filepath.Join(dir, snapshotFile)

	if opts.VizOnly {
		return p.renderOnly(dir, snapshotPath)
	}

	p.client.ResetMetrics()

	index, err := store.OpenVectorIndex(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	defer index.Close()

	cache, err := store.OpenExtractionCache(filepath.Join(dir, cacheFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	defer cache.Close()

	report := &Report{SnapshotPath: snapshotPath}

	// Stage 1: ingest.
	ingestResult, err := ingest.NewStage(p.cfg, p.client, index, p.sink).Run(ctx, p.papersDir(dir))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIngest, err)
	}
	if len(ingestResult.Documents) == 0 {
		return nil, fmt.Errorf("%w: no ingestible documents in %s", ErrConfig, p.papersDir(dir))
	}
	report.Documents = len(ingestResult.Documents)
	report.DocumentsReused = ingestResult.Reused
	report.ChunksEmbedded = ingestResult.Embedded
	for _, skipped := range ingestResult.Skipped {
		report.DocumentsSkipped = append(report.DocumentsSkipped,
			fmt.Sprintf("%s (%s)", filepath.Base(skipped.Path), skipped.Reason))
	}

	titles := make(map[string]string, len(ingestResult.Documents))
	for _, doc := range ingestResult.Documents {
		titles[doc.ID] = doc.Title
	}

	// Stage 2: extract.
	extractResult, err := extract.NewStage(p.cfg, p.client, index, cache, p.sink, titles).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtract, err)
	}
	report.ChunksExtracted = extractResult.Extracted
	report.CacheHits = extractResult.CacheHits
	report.Quarantined = extractResult.Quarantined
	for _, failed := range extractResult.Failed {
		report.ChunksSkipped = append(report.ChunksSkipped,
			fmt.Sprintf("%s chunk %d (%s)", failed.Key.DocID, failed.Key.Index, failed.Reason))
	}

	// Stage 3: merge.
	acc, err := p.accumulator(dir, snapshotPath, opts.Resume)
	if err != nil {
		return nil, err
	}
	p.sink.Update(progress.StageBuilding, "merging extractions", 0)
	for i, result := range extractResult.Results {
		acc.Fold(result)
		p.sink.Update(progress.StageBuilding, "merging extractions",
			float64(i+1)/float64(len(extractResult.Results))*100)
	}

	documents, chunks, err := index.Counts()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	snapshot := graph.Emit(acc, p.cfg.Graph.MinEdgeWeight, p.cfg.Graph.DescriptionCap, documents, chunks)
	if err := graph.Save(snapshot, snapshotPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	report.Nodes = len(snapshot.Nodes)
	report.Links = len(snapshot.Links)
	report.Metrics = p.client.GetMetrics()

	if opts.Viz {
		if _, _, err := p.render(snapshot, dir); err != nil {
			logger.Warn("visualization failed", "error", err)
		}
	}

	for _, node := range topConcepts(snapshot, topConceptMax) {
		logger.Info("top concept", "id", node.ID, "type", node.Type, "degree", node.Degree)
	}
	p.sink.Complete(snapshotPath)

	return report, nil
}

// accumulator returns the merge starting point: the prior snapshot's state
// when resuming, an empty accumulator otherwise.
func (p *Pipeline) accumulator(dir, snapshotPath string, resume bool) (*graph.Accumulator, error) {
	if !resume {
		return graph.NewAccumulator(p.cfg.Graph.Synonyms), nil
	}
	if _, err := os.Stat(snapshotPath); err != nil {
		logger.Info("no prior snapshot, starting fresh", "dir", dir)
		return graph.NewAccumulator(p.cfg.Graph.Synonyms), nil
	}
	snapshot, err := graph.Load(snapshotPath, p.cfg.Graph.Synonyms)
	if err != nil {
		return nil, fmt.Errorf("%w: prior snapshot unreadable: %v", ErrMerge, err)
	}
	logger.Info("resuming from snapshot", "folded_chunks", snapshot.Accumulator.FoldedCount())
	return snapshot.Accumulator, nil
}

// renderOnly regenerates the HTML visualization from an existing snapshot.
func (p *Pipeline) renderOnly(dir, snapshotPath string) (*Report, error) {
	snapshot, err := graph.Load(snapshotPath, p.cfg.Graph.Synonyms)
	if err != nil {
		return nil, fmt.Errorf("%w: no usable snapshot in %s: %v", ErrConfig, dir, err)
	}
	nodes, links, err := p.render(snapshot, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMerge, err)
	}
	return &Report{
		SnapshotPath: snapshotPath,
		Nodes:        nodes,
		Links:        links,
	}, nil
}

func (p *Pipeline) render(snapshot *graph.Snapshot, dir string) (int, int, error) {
	title := fmt.Sprintf("Knowledge Graph (%d concepts, %d edges)", len(snapshot.Nodes), len(snapshot.Links))
	path := filepath.Join(dir, vizFile)
	nodes, links, err := graph.WriteHTML(snapshot, path, title, p.cfg.Graph.MinDegreeViz)
	if err != nil {
		return 0, 0, err
	}
	logger.Info("visualization written", "path", path, "nodes", nodes, "links", links)
	return nodes, links, nil
}

func (p *Pipeline) papersDir(dir string) string {
	sub := filepath.Join(dir, papersSubdir)
	if info, err := os.Stat(sub); err == nil && info.IsDir() {
		return sub
	}
	return dir
}
