package extract

import (
	"strings"
	"testing"

	"github.com/papergraph/papergraph/pkg/common"
)

func TestValidateQuarantinesUnknownTypes(t *testing.T) {
	key := common.ChunkKey{DocID: "doc", Index: 0, Hash: "h"}
	mentions := []common.Mention{
		{Name: "Bailey lemma", Type: common.TypeTechnique},
		{Name: "mystery", Type: "lemma"},
		{Name: "another", Type: ""},
		{Name: "", Type: common.TypeObject},
		{Name: "partitions", Type: common.TypeObject},
	}

	result := validate(key, mentions)
	if len(result.Mentions) != 2 {
		t.Errorf("expected 2 surviving mentions, got %d", len(result.Mentions))
	}
	if result.Quarantined != 3 {
		t.Errorf("expected 3 quarantined, got %d", result.Quarantined)
	}
	if result.Key != key {
		t.Errorf("result carries wrong key: %+v", result.Key)
	}
}

func TestValidateEmptyInput(t *testing.T) {
	result := validate(common.ChunkKey{DocID: "doc"}, nil)
	if len(result.Mentions) != 0 || result.Quarantined != 0 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestTail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "abc", 10, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "abcdefgh", 3, "fgh"},
		{"rune boundary", "ααβ", 3, "β"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tail(tt.in, tt.max); got != tt.want {
				t.Errorf("tail(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	stage := &Stage{titles: map[string]string{"doc": "A Survey of q-Series"}}
	chunk := common.Chunk{DocID: "doc", Index: 1, Text: "The Bailey lemma iterates."}

	prompt := stage.buildPrompt(chunk, "end of previous passage")
	for _, want := range []string{"A Survey of q-Series", "end of previous passage", "The Bailey lemma iterates."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	bare := stage.buildPrompt(common.Chunk{DocID: "other", Text: "text"}, "")
	if !strings.Contains(bare, "other") {
		t.Error("prompt should fall back to the document id as title")
	}
	if strings.Contains(bare, "previous passage") {
		t.Error("prompt should omit the context section without a previous chunk")
	}
}
