package graph

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/papergraph/papergraph/pkg/common"
)

func mention(name string, typ common.ConceptType, desc string, related ...string) common.Mention {
	return common.Mention{Name: name, Type: typ, Description: desc, Related: related}
}

func result(docID string, index int, mentions ...common.Mention) common.ExtractionResult {
	return common.ExtractionResult{
		Key:      common.ChunkKey{DocID: docID, Index: index, Hash: "h"},
		Mentions: mentions,
	}
}

func sampleResults() []common.ExtractionResult {
	return []common.ExtractionResult{
		result("alpha", 0,
			mention("Rogers-Ramanujan identities", common.TypeIdentity, "Two q-series identities."),
			mention("Bailey lemma", common.TypeTechnique, "An iteration device for q-series.", "Rogers-Ramanujan identities"),
		),
		result("alpha", 1,
			mention("Rogers–Ramanujan Identities", common.TypeObject, "A pair of partition identities with product sides."),
			mention("partitions", common.TypeObject, ""),
		),
		result("beta", 0,
			mention("rogers-ramanujan identities", common.TypeTheorem, ""),
			mention("Bailey lemma", common.TypeTechnique, ""),
		),
		result("beta", 1,
			mention("partitions", common.TypeDefinition, "A way of writing an integer as a sum."),
		),
	}
}

func TestFoldMergesCaseAndDashVariants(t *testing.T) {
	acc := NewAccumulator(nil)
	for _, r := range sampleResults() {
		acc.Fold(r)
	}

	state, ok := acc.concepts["rogers-ramanujan identities"]
	if !ok {
		t.Fatalf("expected merged node, have ids: %v", reflect.ValueOf(acc.concepts).MapKeys())
	}
	if len(state.Docs) != 2 {
		t.Errorf("expected 2 contributing documents, got %d", len(state.Docs))
	}
	if state.Mentions != 3 {
		t.Errorf("expected 3 mentions, got %d", state.Mentions)
	}
}

func TestFoldTypeNeverDowngrades(t *testing.T) {
	acc := NewAccumulator(nil)
	for _, r := range sampleResults() {
		acc.Fold(r)
	}

	// identity in chunk alpha/0, object in alpha/1, theorem in beta/0:
	// theorem is the most specific and must win regardless of order.
	if got := acc.concepts["rogers-ramanujan identities"].Type; got != common.TypeTheorem {
		t.Errorf("expected theorem, got %s", got)
	}
}

func TestFoldEdgeWeights(t *testing.T) {
	acc := NewAccumulator(nil)
	for _, r := range sampleResults() {
		acc.Fold(r)
	}

	// RR identities and Bailey lemma share chunks alpha/0 and beta/0. The
	// explicit relation in alpha/0 must not double-count that chunk.
	if got := acc.edges[pairKey("rogers-ramanujan identities", "bailey lemma")]; got != 2 {
		t.Errorf("expected weight 2, got %d", got)
	}
	if got := acc.edges[pairKey("rogers-ramanujan identities", "partitions")]; got != 1 {
		t.Errorf("expected weight 1, got %d", got)
	}
}

func TestFoldIdempotentPerChunk(t *testing.T) {
	acc := NewAccumulator(nil)
	results := sampleResults()
	for _, r := range results {
		acc.Fold(r)
	}
	before := acc.edges[pairKey("rogers-ramanujan identities", "bailey lemma")]

	for _, r := range results {
		acc.Fold(r)
	}
	if after := acc.edges[pairKey("rogers-ramanujan identities", "bailey lemma")]; after != before {
		t.Errorf("refolding changed weight from %d to %d", before, after)
	}
}

func TestFoldOrderIndependent(t *testing.T) {
	results := sampleResults()
	reference := NewAccumulator(nil)
	for _, r := range results {
		reference.Fold(r)
	}
	want := Emit(reference, 1, 500, 2, 4)

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]common.ExtractionResult, len(results))
		copy(shuffled, results)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		acc := NewAccumulator(nil)
		for _, r := range shuffled {
			acc.Fold(r)
		}
		got := Emit(acc, 1, 500, 2, 4)

		if !reflect.DeepEqual(got.Nodes, want.Nodes) {
			t.Fatalf("trial %d: nodes differ\n got %+v\nwant %+v", trial, got.Nodes, want.Nodes)
		}
		if !reflect.DeepEqual(got.Links, want.Links) {
			t.Fatalf("trial %d: links differ\n got %+v\nwant %+v", trial, got.Links, want.Links)
		}
	}
}

func TestMergeDisjointAccumulators(t *testing.T) {
	results := sampleResults()

	left := NewAccumulator(nil)
	right := NewAccumulator(nil)
	for _, r := range results[:2] {
		left.Fold(r)
	}
	for _, r := range results[2:] {
		right.Fold(r)
	}
	left.Merge(right)

	whole := NewAccumulator(nil)
	for _, r := range results {
		whole.Fold(r)
	}

	if !reflect.DeepEqual(left.edges, whole.edges) {
		t.Errorf("merged edges differ:\n got %v\nwant %v", left.edges, whole.edges)
	}
	if !reflect.DeepEqual(left.concepts, whole.concepts) {
		t.Errorf("merged concepts differ")
	}
	if left.FoldedCount() != whole.FoldedCount() {
		t.Errorf("folded counts differ: %d vs %d", left.FoldedCount(), whole.FoldedCount())
	}
}

func TestFoldSynonyms(t *testing.T) {
	acc := NewAccumulator(map[string]string{"cpp": "cylindric partitions"})
	acc.Fold(result("doc", 0,
		mention("CPP", common.TypeObject, ""),
		mention("cylindric partitions", common.TypeObject, ""),
	))

	if len(acc.concepts) != 1 {
		t.Fatalf("expected synonym collapse to one concept, got %d", len(acc.concepts))
	}
	if _, ok := acc.concepts["cylindric partitions"]; !ok {
		t.Error("expected canonical id from synonym table")
	}
	// Both mentions resolve to the same id; no self edge.
	if len(acc.edges) != 0 {
		t.Errorf("expected no edges, got %v", acc.edges)
	}
}
