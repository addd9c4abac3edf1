package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/papergraph/papergraph/pkg/common"
)

func testSnapshot(degrees map[string]int) *Snapshot {
	snapshot := &Snapshot{}
	for id, degree := range degrees {
		snapshot.Nodes = append(snapshot.Nodes, Node{
			ID: id, Label: id, Type: common.TypeObject, Degree: degree,
		})
	}
	return snapshot
}

func TestVizDataFiltersByDegree(t *testing.T) {
	snapshot := testSnapshot(map[string]int{
		"a": 4, "b": 3, "c": 2, "d": 2, "e": 2, "f": 1, "g": 0,
	})
	nodes, _ := vizData(snapshot, 2)
	if len(nodes) != 5 {
		t.Errorf("expected 5 nodes at min degree 2, got %d", len(nodes))
	}
}

func TestVizDataRelaxesWhenTooFew(t *testing.T) {
	snapshot := testSnapshot(map[string]int{
		"a": 3, "b": 1, "c": 1, "d": 1, "e": 1, "f": 0,
	})
	// Only one node reaches degree 2, so the threshold drops to 1.
	nodes, _ := vizData(snapshot, 2)
	if len(nodes) != 5 {
		t.Errorf("expected fallback to degree 1 with 5 nodes, got %d", len(nodes))
	}
}

func TestVizDataKeepsEverythingForTinyGraphs(t *testing.T) {
	snapshot := testSnapshot(map[string]int{"a": 0, "b": 0, "c": 1})
	nodes, _ := vizData(snapshot, 2)
	if len(nodes) != 3 {
		t.Errorf("expected all nodes of a tiny graph, got %d", len(nodes))
	}
}

func TestVizDataDropsDanglingLinks(t *testing.T) {
	snapshot := testSnapshot(map[string]int{
		"a": 5, "b": 5, "c": 5, "d": 5, "e": 5, "f": 0,
	})
	snapshot.Links = []Link{
		{Source: "a", Target: "b", Weight: 2},
		{Source: "a", Target: "f", Weight: 1},
	}
	_, links := vizData(snapshot, 2)
	if len(links) != 1 || links[0].Target != "b" {
		t.Errorf("expected only the a-b link, got %+v", links)
	}
}

func TestWriteHTML(t *testing.T) {
	snapshot := testSnapshot(map[string]int{"a": 1, "b": 1})
	snapshot.Links = []Link{{Source: "a", Target: "b", Weight: 1}}

	path := filepath.Join(t.TempDir(), "graph.html")
	nodes, links, err := WriteHTML(snapshot, path, "Test Graph", 2)
	if err != nil {
		t.Fatal(err)
	}
	if nodes != 2 || links != 1 {
		t.Errorf("got %d nodes, %d links", nodes, links)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	for _, want := range []string{"Test Graph", "d3.v7.min.js", `"nodes"`, `"links"`, "legend"} {
		if !strings.Contains(page, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
	if strings.Contains(page, "{{") {
		t.Error("unsubstituted template placeholder in output")
	}
}
