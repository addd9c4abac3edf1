package loader

import "testing"

func TestSlugID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/papers/Andrews_1984 Partitions.pdf", "andrews_1984-partitions"},
		{"/papers/rogers-ramanujan.txt", "rogers-ramanujan"},
		{"notes.md", "notes"},
		{"/a/b/Weird  (copy)!.pdf", "weird-copy"},
		{"/a/UPPER.PDF", "upper"},
	}
	for _, tt := range tests {
		if got := SlugID(tt.path); got != tt.want {
			t.Errorf("SlugID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSlugIDStable(t *testing.T) {
	if SlugID("/x/paper.pdf") != SlugID("/x/paper.pdf") {
		t.Error("slug must be deterministic")
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.pdf", true},
		{"a.PDF", true},
		{"a.txt", true},
		{"a.md", true},
		{"a.markdown", true},
		{"a.docx", false},
		{"a", false},
		{"papers.json", false},
	}
	for _, tt := range tests {
		if got := IsSupported(tt.path); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
