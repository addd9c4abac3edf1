package graph

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/papergraph/papergraph/pkg/common"
)

// typeColors maps concept types to presentation colors. Color is a viewer
// concern; it never enters the snapshot itself.
var typeColors = map[common.ConceptType]string{
	common.TypeObject:     "#4A90D9",
	common.TypeTheorem:    "#E74C3C",
	common.TypeConjecture: "#F39C12",
	common.TypeTechnique:  "#2ECC71",
	common.TypeIdentity:   "#9B59B6",
	common.TypeFormula:    "#1ABC9C",
	common.TypePerson:     "#E67E22",
	common.TypeDefinition: "#3498DB",
}

// legendOrder fixes the legend's display order.
var legendOrder = []common.ConceptType{
	common.TypeObject,
	common.TypeTheorem,
	common.TypeConjecture,
	common.TypeTechnique,
	common.TypeIdentity,
	common.TypeFormula,
	common.TypePerson,
	common.TypeDefinition,
}

const fallbackColor = "#95A5A6"

type vizNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Papers      int    `json:"papers"`
	Degree      int    `json:"degree"`
	Color       string `json:"color"`
}

type vizLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// WriteHTML renders the snapshot as a standalone interactive D3 page at
// path. Nodes below minDegree are hidden to keep dense graphs readable;
// if that leaves fewer than five nodes the threshold relaxes to one, then
// to nothing. Returns the rendered node and link counts.
func WriteHTML(snapshot *Snapshot, path, title string, minDegree int) (int, int, error) {
	nodes, links := vizData(snapshot, minDegree)

	data, err := json.Marshal(map[string]any{"nodes": nodes, "links": links})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to encode graph data: %w", err)
	}

	var legend strings.Builder
	for _, typ := range legendOrder {
		legend.WriteString(fmt.Sprintf(
			`<div class="legend-item"><span class="legend-dot" style="background:%s"></span>%s</div>`,
			typeColors[typ], typ))
	}

	page := strings.NewReplacer(
		"{{TITLE}}", html.EscapeString(title),
		"{{LEGEND}}", legend.String(),
		"{{DATA}}", string(data),
	).Replace(vizTemplate)

	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return 0, 0, fmt.Errorf("failed to write visualization: %w", err)
	}
	return len(nodes), len(links), nil
}

// vizData filters the snapshot for display.
func vizData(snapshot *Snapshot, minDegree int) ([]vizNode, []vizLink) {
	keep := nodesAtDegree(snapshot.Nodes, minDegree)
	if len(keep) < 5 {
		keep = nodesAtDegree(snapshot.Nodes, 1)
	}
	if len(keep) < 5 {
		keep = nodesAtDegree(snapshot.Nodes, 0)
	}

	nodes := make([]vizNode, 0, len(keep))
	for _, node := range snapshot.Nodes {
		if !keep[node.ID] {
			continue
		}
		color, ok := typeColors[node.Type]
		if !ok {
			color = fallbackColor
		}
		nodes = append(nodes, vizNode{
			ID:          node.ID,
			Label:       node.Label,
			Type:        string(node.Type),
			Description: node.Description,
			Papers:      node.Papers,
			Degree:      node.Degree,
			Color:       color,
		})
	}

	links := make([]vizLink, 0, len(snapshot.Links))
	for _, link := range snapshot.Links {
		if keep[link.Source] && keep[link.Target] {
			links = append(links, vizLink{Source: link.Source, Target: link.Target, Weight: link.Weight})
		}
	}

	return nodes, links
}

func nodesAtDegree(nodes []Node, minDegree int) map[string]bool {
	keep := make(map[string]bool)
	for _, node := range nodes {
		if node.Degree >= minDegree {
			keep[node.ID] = true
		}
	}
	return keep
}
