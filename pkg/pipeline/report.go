package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/papergraph/papergraph/pkg/ai"
	"github.com/papergraph/papergraph/pkg/graph"
)

// Report summarizes one build for the operator: what was processed, what
// was skipped and why, and what the resulting graph looks like.
type Report struct {
	Documents        int             `json:"documents"`
	DocumentsReused  int             `json:"documents_reused"`
	DocumentsSkipped []string        `json:"documents_skipped,omitempty"`
	ChunksEmbedded   int             `json:"chunks_embedded"`
	ChunksExtracted  int             `json:"chunks_extracted"`
	CacheHits        int             `json:"cache_hits"`
	ChunksSkipped    []string        `json:"chunks_skipped,omitempty"`
	Quarantined      int             `json:"quarantined"`
	Nodes            int             `json:"nodes"`
	Links            int             `json:"links"`
	SnapshotPath     string          `json:"snapshot_path"`
	Metrics          ai.ModelMetrics `json:"metrics"`
}

// topConcepts lists the highest-degree nodes for the report footer.
func topConcepts(snapshot *graph.Snapshot, n int) []graph.Node {
	nodes := make([]graph.Node, len(snapshot.Nodes))
	copy(nodes, snapshot.Nodes)
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Degree != nodes[j].Degree {
			return nodes[i].Degree > nodes[j].Degree
		}
		return nodes[i].ID < nodes[j].ID
	})
	if len(nodes) > n {
		nodes = nodes[:n]
	}
	return nodes
}

// String renders the report for terminal output.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "documents: %d processed, %d unchanged, %d skipped\n",
		r.Documents, r.DocumentsReused, len(r.DocumentsSkipped))
	for _, skipped := range r.DocumentsSkipped {
		fmt.Fprintf(&b, "  skipped document: %s\n", skipped)
	}
	fmt.Fprintf(&b, "chunks: %d embedded, %d extracted, %d from cache, %d skipped\n",
		r.ChunksEmbedded, r.ChunksExtracted, r.CacheHits, len(r.ChunksSkipped))
	for _, skipped := range r.ChunksSkipped {
		fmt.Fprintf(&b, "  skipped chunk: %s\n", skipped)
	}
	if r.Quarantined > 0 {
		fmt.Fprintf(&b, "quarantined mentions: %d\n", r.Quarantined)
	}
	fmt.Fprintf(&b, "graph: %d nodes, %d links -> %s\n", r.Nodes, r.Links, r.SnapshotPath)
	if r.Metrics.TotalTokens > 0 {
		fmt.Fprintf(&b, "tokens: %d in, %d out\n", r.Metrics.InputTokens, r.Metrics.OutputTokens)
	}
	return b.String()
}
