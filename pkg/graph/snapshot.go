package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/papergraph/papergraph/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Node is one canonical concept in the emitted graph. The schema is
// consumed by the external renderer, which maps type to a color and lays
// out positions itself; the snapshot carries no presentation state.
type Node struct {
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	Type        common.ConceptType `json:"type"`
	Description string             `json:"description"`
	Papers      int                `json:"papers"`
	Degree      int                `json:"degree"`
}

// Link is one weighted co-occurrence edge between two canonical ids.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Metadata describes the build that produced a snapshot.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	BuildID   string    `json:"build_id"`
	Documents int       `json:"documents"`
	Chunks    int       `json:"chunks"`
}

// Snapshot is the persisted graph artifact. Nodes and links are the public
// contract; the accumulator section carries the merge state a later
// resumed build starts from.
type Snapshot struct {
	Metadata    Metadata     `json:"metadata"`
	Nodes       []Node       `json:"nodes"`
	Links       []Link       `json:"links"`
	Accumulator *Accumulator `json:"accumulator"`
}

// Emit renders the accumulator into a snapshot. Edges below minEdgeWeight
// and edges pointing at ids without a node are dropped first; degrees are
// counted over the surviving edges. Nodes and links come out in sorted
// order so identical state always serializes identically.
func Emit(acc *Accumulator, minEdgeWeight, descriptionCap, documents, chunks int) *Snapshot {
	snapshot := &Snapshot{
		Metadata: Metadata{
			CreatedAt: time.Now().UTC(),
			BuildID:   gonanoid.Must(),
			Documents: documents,
			Chunks:    chunks,
		},
		Accumulator: acc,
	}

	degree := make(map[string]map[string]bool)
	for pair, weight := range acc.edges {
		if weight < minEdgeWeight {
			continue
		}
		source, target, ok := splitPairKey(pair)
		if !ok {
			continue
		}
		if acc.concepts[source] == nil || acc.concepts[target] == nil {
			continue
		}
		snapshot.Links = append(snapshot.Links, Link{Source: source, Target: target, Weight: weight})

		if degree[source] == nil {
			degree[source] = make(map[string]bool)
		}
		if degree[target] == nil {
			degree[target] = make(map[string]bool)
		}
		degree[source][target] = true
		degree[target][source] = true
	}
	sort.Slice(snapshot.Links, func(i, j int) bool {
		a, b := snapshot.Links[i], snapshot.Links[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Target < b.Target
	})

	for id, state := range acc.concepts {
		snapshot.Nodes = append(snapshot.Nodes, Node{
			ID:          id,
			Label:       renderLabel(id, state.Labels),
			Type:        state.Type,
			Description: renderDescription(state.Descriptions, descriptionCap),
			Papers:      len(state.Docs),
			Degree:      len(degree[id]),
		})
	}
	sort.Slice(snapshot.Nodes, func(i, j int) bool {
		return snapshot.Nodes[i].ID < snapshot.Nodes[j].ID
	})

	return snapshot
}

// renderLabel picks the display label for a node: the raw form seen most
// often, breaking ties toward the lexicographically smallest so the choice
// never depends on fold order.
func renderLabel(id string, labels map[string]int) string {
	best := ""
	bestCount := -1
	for label, count := range labels {
		if count > bestCount || (count == bestCount && label < best) {
			best = label
			bestCount = count
		}
	}
	if best == "" {
		return id
	}
	return best
}

// renderDescription combines distinct descriptions, longest first with a
// lexicographic tie-break, concatenating until the cap is reached. The
// longest description is always included, truncated if it alone exceeds
// the cap.
func renderDescription(descriptions map[string]bool, limit int) string {
	if len(descriptions) == 0 {
		return ""
	}

	sorted := make([]string, 0, len(descriptions))
	for desc := range descriptions {
		sorted = append(sorted, desc)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	var builder strings.Builder
	for _, desc := range sorted {
		if builder.Len() == 0 {
			if len(desc) > limit {
				cut := limit
				for cut > 0 && !utf8.RuneStart(desc[cut]) {
					cut--
				}
				desc = strings.TrimSpace(desc[:cut])
			}
			builder.WriteString(desc)
			continue
		}
		if builder.Len()+len(desc)+1 > limit {
			break
		}
		builder.WriteString(" ")
		builder.WriteString(desc)
	}
	return builder.String()
}

// Save writes the snapshot atomically: a temp file in the target directory,
// then a rename, so an interrupted build never leaves a torn snapshot for
// a later resume to read.
func Save(snapshot *Snapshot, path string) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot from path, wiring the synonym table into its
// accumulator so a resumed build resolves identities consistently.
func Load(path string, synonyms map[string]string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snapshot := &Snapshot{Accumulator: NewAccumulator(synonyms)}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snapshot.Accumulator == nil {
		snapshot.Accumulator = NewAccumulator(synonyms)
	}
	snapshot.Accumulator.synonyms = synonyms
	return snapshot, nil
}
