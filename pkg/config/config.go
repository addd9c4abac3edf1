package config

import (
	"fmt"
	"os"

	"github.com/papergraph/papergraph/internal/util"

	validator "github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

// Config holds all tunable parameters of the pipeline. Values come from an
// optional YAML file merged over built-in defaults; credentials and endpoints
// come from the environment so config files stay shareable.
type Config struct {
	AI struct {
		Adapter         string `yaml:"adapter" validate:"oneof=openai ollama"`
		EmbeddingModel  string `yaml:"embedding_model" validate:"required"`
		ExtractionModel string `yaml:"extraction_model" validate:"required"`
		EmbeddingDim    int    `yaml:"embedding_dim" validate:"min=1"`
		MaxConcurrent   int    `yaml:"max_concurrent" validate:"min=1,max=64"`
		MaxRetries      int    `yaml:"max_retries" validate:"min=1,max=10"`
		TimeoutMinutes  int    `yaml:"timeout_minutes" validate:"min=1"`
	} `yaml:"ai"`

	Chunking struct {
		Size          int `yaml:"size" validate:"min=200"`
		Overlap       int `yaml:"overlap" validate:"min=0"`
		MinChunkChars int `yaml:"min_chunk_chars" validate:"min=0"`
		EmbedMaxChars int `yaml:"embed_max_chars" validate:"min=100"`
	} `yaml:"chunking"`

	Graph struct {
		MinEdgeWeight  int               `yaml:"min_edge_weight" validate:"min=1"`
		MinDegreeViz   int               `yaml:"min_degree_viz" validate:"min=0"`
		DescriptionCap int               `yaml:"description_cap" validate:"min=50"`
		Synonyms       map[string]string `yaml:"synonyms"`
	} `yaml:"graph"`
}

// Load reads the YAML config at path, merging it over defaults. An empty path
// returns the defaults unchanged. The result is always validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.Chunking.Overlap >= cfg.Chunking.Size {
		return nil, fmt.Errorf("chunking overlap (%d) must be smaller than chunk size (%d)", cfg.Chunking.Overlap, cfg.Chunking.Size)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration. The synonym table carries the
// known mathematical terminology variants; users extend it through the
// config file rather than editing code.
func Default() *Config {
	cfg := &Config{}

	cfg.AI.Adapter = util.GetEnvString("AI_ADAPTER", "openai")
	cfg.AI.EmbeddingModel = util.GetEnvString("AI_EMBED_MODEL", "text-embedding-3-small")
	cfg.AI.ExtractionModel = util.GetEnvString("AI_EXTRACT_MODEL", "gpt-4o-mini")
	cfg.AI.EmbeddingDim = util.GetEnvInt("AI_EMBED_DIM", 1536)
	cfg.AI.MaxConcurrent = 8
	cfg.AI.MaxRetries = 4
	cfg.AI.TimeoutMinutes = 5

	cfg.Chunking.Size = 1500
	cfg.Chunking.Overlap = 200
	cfg.Chunking.MinChunkChars = 50
	cfg.Chunking.EmbedMaxChars = 8000

	cfg.Graph.MinEdgeWeight = 1
	cfg.Graph.MinDegreeViz = 2
	cfg.Graph.DescriptionCap = 500
	cfg.Graph.Synonyms = defaultSynonyms()

	return cfg
}

func defaultSynonyms() map[string]string {
	return map[string]string{
		"rogers-ramanujan identity":    "rogers-ramanujan identities",
		"rr identities":                "rogers-ramanujan identities",
		"rr identity":                  "rogers-ramanujan identities",
		"bailey's lemma":               "bailey lemma",
		"hall-littlewood polynomial":   "hall-littlewood polynomials",
		"hall-littlewood function":     "hall-littlewood polynomials",
		"hall-littlewood functions":    "hall-littlewood polynomials",
		"macdonald polynomial":         "macdonald polynomials",
		"schur function":               "schur functions",
		"schur polynomial":             "schur functions",
		"cylindric plane partition":    "cylindric partitions",
		"cylindric plane partitions":   "cylindric partitions",
		"cpp":                          "cylindric partitions",
		"cpps":                         "cylindric partitions",
		"q-binomial coefficient":       "q-binomial coefficients",
		"gaussian polynomial":          "q-binomial coefficients",
		"gaussian polynomials":         "q-binomial coefficients",
		"quasi-symmetric function":     "quasi-symmetric functions",
		"quasisymmetric function":      "quasi-symmetric functions",
		"quasisymmetric functions":     "quasi-symmetric functions",
		"crystal base":                 "crystal bases",
		"andrews-gordon identity":      "andrews-gordon identities",
		"a2 andrews-gordon identities": "a2 andrews-gordon identities",
		"plane partition":              "plane partitions",
	}
}
