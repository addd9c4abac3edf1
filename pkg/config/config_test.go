package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
	if cfg.Chunking.Size != 1500 || cfg.Chunking.Overlap != 200 {
		t.Errorf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.AI.Adapter != "openai" {
		t.Errorf("unexpected default adapter %q", cfg.AI.Adapter)
	}
	if len(cfg.Graph.Synonyms) == 0 {
		t.Error("default synonym table is empty")
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
chunking:
  size: 2000
graph:
  min_edge_weight: 2
  synonyms:
    "my alias": "my concept"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunking.Size != 2000 {
		t.Errorf("size not overridden: %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 200 {
		t.Errorf("untouched default lost: %d", cfg.Chunking.Overlap)
	}
	if cfg.Graph.MinEdgeWeight != 2 {
		t.Errorf("min edge weight not overridden: %d", cfg.Graph.MinEdgeWeight)
	}
	if cfg.Graph.Synonyms["my alias"] != "my concept" {
		t.Errorf("synonyms not loaded: %v", cfg.Graph.Synonyms)
	}
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"overlap exceeds size", "chunking:\n  size: 300\n  overlap: 300\n"},
		{"unknown adapter", "ai:\n  adapter: cohere\n"},
		{"tiny chunk size", "chunking:\n  size: 10\n"},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
