package pipeline

import (
	"strings"
	"testing"

	"github.com/papergraph/papergraph/pkg/common"
	"github.com/papergraph/papergraph/pkg/graph"
)

func TestReportString(t *testing.T) {
	report := &Report{
		Documents:        3,
		DocumentsReused:  1,
		DocumentsSkipped: []string{"broken.pdf (text extraction failed)"},
		ChunksEmbedded:   12,
		ChunksExtracted:  10,
		CacheHits:        2,
		ChunksSkipped:    []string{"alpha chunk 4 (simulated failure)"},
		Quarantined:      1,
		Nodes:            20,
		Links:            15,
		SnapshotPath:     "/tmp/knowledge_graph.json",
	}

	out := report.String()
	for _, want := range []string{
		"3 processed", "1 unchanged", "1 skipped",
		"broken.pdf",
		"alpha chunk 4",
		"quarantined mentions: 1",
		"20 nodes, 15 links",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestTopConcepts(t *testing.T) {
	snapshot := &graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "a", Type: common.TypeObject, Degree: 1},
			{ID: "b", Type: common.TypeObject, Degree: 5},
			{ID: "c", Type: common.TypeObject, Degree: 3},
			{ID: "d", Type: common.TypeObject, Degree: 5},
		},
	}

	top := topConcepts(snapshot, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3, got %d", len(top))
	}
	// Degree descending, id ascending on ties.
	if top[0].ID != "b" || top[1].ID != "d" || top[2].ID != "c" {
		t.Errorf("wrong order: %s, %s, %s", top[0].ID, top[1].ID, top[2].ID)
	}
}
