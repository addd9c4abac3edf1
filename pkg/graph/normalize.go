package graph

import (
	"strings"
	"unicode"
)

// dashReplacer maps the unicode dash variants that show up in extracted
// paper text onto a plain hyphen, so "Rogers–Ramanujan" and
// "Rogers-Ramanujan" resolve to the same id.
var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
)

var articles = []string{"the ", "a ", "an "}

// Canonicalize normalizes a mention name into a canonical concept id:
// case-folded, unicode dashes unified, outer punctuation and leading
// articles stripped, whitespace collapsed, and the synonym table applied.
// An empty result means the name carried no usable content.
func Canonicalize(name string, synonyms map[string]string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = dashReplacer.Replace(id)
	id = strings.TrimFunc(id, func(r rune) bool {
		return unicode.IsPunct(r) && r != '-'
	})

	for _, article := range articles {
		if strings.HasPrefix(id, article) {
			id = id[len(article):]
			break
		}
	}

	id = strings.Join(strings.Fields(id), " ")

	if canonical, ok := synonyms[id]; ok {
		return canonical
	}
	return id
}
