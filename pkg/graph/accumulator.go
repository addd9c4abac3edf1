package graph

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/papergraph/papergraph/pkg/common"
)

// pairSep joins the two canonical ids of an edge key. The unit separator
// cannot appear in a canonicalized id.
const pairSep = "\x1f"

// ConceptState is the merged, order-independent state of one canonical
// concept. Raw labels and descriptions are kept as sets and only rendered
// into a single label and description at snapshot emission, so folding
// order never leaks into the result.
type ConceptState struct {
	Labels       map[string]int     `json:"labels"`
	Type         common.ConceptType `json:"type"`
	Descriptions map[string]bool    `json:"descriptions"`
	Docs         map[string]bool    `json:"docs"`
	Mentions     int                `json:"mentions"`
}

// Accumulator folds per-chunk extraction results into canonical concepts
// and weighted edges. Folding the same fixed set of results in any order
// produces identical state: every update is a set union, a counter
// increment keyed by chunk, or a maximum over a total order.
type Accumulator struct {
	synonyms map[string]string

	concepts map[string]*ConceptState
	edges    map[string]int
	folded   map[common.ChunkKey]bool
}

// NewAccumulator creates an empty accumulator using the given synonym
// table for identity resolution.
func NewAccumulator(synonyms map[string]string) *Accumulator {
	return &Accumulator{
		synonyms: synonyms,
		concepts: make(map[string]*ConceptState),
		edges:    make(map[string]int),
		folded:   make(map[common.ChunkKey]bool),
	}
}

// Folded reports whether the chunk identified by key has already been
// folded in.
func (a *Accumulator) Folded(key common.ChunkKey) bool {
	return a.folded[key]
}

// FoldedCount returns how many chunks have been folded in.
func (a *Accumulator) FoldedCount() int {
	return len(a.folded)
}

// Fold merges one chunk's extraction result into the accumulator. Folding
// the same chunk key twice is a no-op, which makes resumed builds safe.
func (a *Accumulator) Fold(result common.ExtractionResult) {
	if a.folded[result.Key] {
		return
	}
	a.folded[result.Key] = true

	ids := make([]string, 0, len(result.Mentions))
	pairs := make(map[string]bool)

	for _, mention := range result.Mentions {
		id := Canonicalize(mention.Name, a.synonyms)
		if id == "" {
			continue
		}
		ids = append(ids, id)
		a.foldMention(id, result.Key.DocID, mention)

		for _, related := range mention.Related {
			relID := Canonicalize(related, a.synonyms)
			if relID == "" || relID == id {
				continue
			}
			pairs[pairKey(id, relID)] = true
		}
	}

	// Every pair of concepts sharing the chunk co-occurs.
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[i] != ids[j] {
				pairs[pairKey(ids[i], ids[j])] = true
			}
		}
	}

	// Each unordered pair gains at most one weight per chunk, however many
	// mentions or relations produced it.
	for pair := range pairs {
		a.edges[pair]++
	}
}

func (a *Accumulator) foldMention(id, docID string, mention common.Mention) {
	state, ok := a.concepts[id]
	if !ok {
		state = &ConceptState{
			Labels:       make(map[string]int),
			Type:         mention.Type,
			Descriptions: make(map[string]bool),
			Docs:         make(map[string]bool),
		}
		a.concepts[id] = state
	}

	state.Labels[strings.TrimSpace(mention.Name)]++
	state.Docs[docID] = true
	state.Mentions++
	if desc := strings.TrimSpace(mention.Description); desc != "" {
		state.Descriptions[desc] = true
	}
	// Distinct types have distinct ranks, so taking the maximum cannot
	// depend on mention order and never downgrades.
	if mention.Type.Specificity() > state.Type.Specificity() {
		state.Type = mention.Type
	}
}

// Merge combines another accumulator into this one. The two must have
// folded disjoint chunk sets; merging overlapping accumulators would count
// shared chunks twice.
func (a *Accumulator) Merge(other *Accumulator) {
	for key := range other.folded {
		a.folded[key] = true
	}
	for pair, weight := range other.edges {
		a.edges[pair] += weight
	}
	for id, otherState := range other.concepts {
		state, ok := a.concepts[id]
		if !ok {
			a.concepts[id] = otherState.clone()
			continue
		}
		for label, count := range otherState.Labels {
			state.Labels[label] += count
		}
		for desc := range otherState.Descriptions {
			state.Descriptions[desc] = true
		}
		for doc := range otherState.Docs {
			state.Docs[doc] = true
		}
		state.Mentions += otherState.Mentions
		if otherState.Type.Specificity() > state.Type.Specificity() {
			state.Type = otherState.Type
		}
	}
}

func (s *ConceptState) clone() *ConceptState {
	clone := &ConceptState{
		Labels:       make(map[string]int, len(s.Labels)),
		Type:         s.Type,
		Descriptions: make(map[string]bool, len(s.Descriptions)),
		Docs:         make(map[string]bool, len(s.Docs)),
		Mentions:     s.Mentions,
	}
	for label, count := range s.Labels {
		clone.Labels[label] = count
	}
	for desc := range s.Descriptions {
		clone.Descriptions[desc] = true
	}
	for doc := range s.Docs {
		clone.Docs[doc] = true
	}
	return clone
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + pairSep + b
}

func splitPairKey(key string) (string, string, bool) {
	a, b, ok := strings.Cut(key, pairSep)
	return a, b, ok
}

// accumulatorState is the serialized form of an Accumulator, embedded in
// the graph snapshot so a later build can resume from it.
type accumulatorState struct {
	Concepts map[string]*ConceptState `json:"concepts"`
	Edges    map[string]int           `json:"edges"`
	Folded   []common.ChunkKey        `json:"folded"`
}

// MarshalJSON serializes the accumulator's full state.
func (a *Accumulator) MarshalJSON() ([]byte, error) {
	state := accumulatorState{
		Concepts: a.concepts,
		Edges:    a.edges,
		Folded:   make([]common.ChunkKey, 0, len(a.folded)),
	}
	for key := range a.folded {
		state.Folded = append(state.Folded, key)
	}
	sortChunkKeys(state.Folded)
	return json.Marshal(state)
}

// UnmarshalJSON restores accumulator state from a snapshot. The synonym
// table is not persisted; set it through NewAccumulator before decoding
// into the result.
func (a *Accumulator) UnmarshalJSON(data []byte) error {
	var state accumulatorState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	a.concepts = state.Concepts
	a.edges = state.Edges
	a.folded = make(map[common.ChunkKey]bool, len(state.Folded))
	for _, key := range state.Folded {
		a.folded[key] = true
	}
	if a.concepts == nil {
		a.concepts = make(map[string]*ConceptState)
	}
	if a.edges == nil {
		a.edges = make(map[string]int)
	}
	return nil
}

func sortChunkKeys(keys []common.ChunkKey) {
	sort.Slice(keys, func(i, j int) bool { return chunkKeyLess(keys[i], keys[j]) })
}

func chunkKeyLess(a, b common.ChunkKey) bool {
	if a.DocID != b.DocID {
		return a.DocID < b.DocID
	}
	return a.Index < b.Index
}
