package graph

import "testing"

func TestCanonicalize(t *testing.T) {
	synonyms := map[string]string{
		"rr identities":              "rogers-ramanujan identities",
		"bailey's lemma":             "bailey lemma",
		"cylindric plane partitions": "cylindric partitions",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Bailey Lemma", "bailey lemma"},
		{"trims whitespace", "  schur functions  ", "schur functions"},
		{"unifies en dash", "Rogers–Ramanujan Identities", "rogers-ramanujan identities"},
		{"unifies em dash", "Rogers—Ramanujan identities", "rogers-ramanujan identities"},
		{"strips outer punctuation", `"q-series"`, "q-series"},
		{"keeps inner hyphens", "hall-littlewood polynomials", "hall-littlewood polynomials"},
		{"strips leading the", "The circle method", "circle method"},
		{"strips leading a", "A bijective proof", "bijective proof"},
		{"strips leading an", "An identity of Euler", "identity of euler"},
		{"collapses whitespace", "modular   forms", "modular forms"},
		{"applies synonyms", "RR identities", "rogers-ramanujan identities"},
		{"synonym after normalization", "Bailey's  Lemma", "bailey lemma"},
		{"empty input", "   ", ""},
		{"punctuation only", "...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.in, synonyms); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeNilSynonyms(t *testing.T) {
	if got := Canonicalize("Plane Partitions", nil); got != "plane partitions" {
		t.Errorf("got %q", got)
	}
}
