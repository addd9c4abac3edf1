package common

// Document represents one ingested source file. Documents are replaced
// wholesale when their content hash changes; they are never partially
// mutated.
type Document struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	Title       string `json:"title"`
	ContentHash string `json:"content_hash"`
	ChunkCount  int    `json:"chunk_count"`
}

// Chunk is a bounded, overlapping span of a document's text, the unit of
// embedding and concept extraction. Chunks are immutable once created;
// re-ingesting a changed document discards and regenerates all of them.
type Chunk struct {
	ID    string `json:"id"`
	DocID string `json:"doc_id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
	Hash  string `json:"hash"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Key returns the cache key triple identifying this chunk's extraction:
// document id, chunk index, and content hash. A cached result is valid
// only while the hash still matches the chunk text.
func (c Chunk) Key() ChunkKey {
	return ChunkKey{DocID: c.DocID, Index: c.Index, Hash: c.Hash}
}

// ChunkKey identifies one chunk's extraction result.
type ChunkKey struct {
	DocID string `json:"doc_id"`
	Index int    `json:"index"`
	Hash  string `json:"hash"`
}

// ConceptType is the closed set of concept categories the extraction
// capability may return. Anything outside this enum is quarantined.
type ConceptType string

const (
	TypeObject     ConceptType = "object"
	TypeTheorem    ConceptType = "theorem"
	TypeConjecture ConceptType = "conjecture"
	TypeTechnique  ConceptType = "technique"
	TypeIdentity   ConceptType = "identity"
	TypeFormula    ConceptType = "formula"
	TypePerson     ConceptType = "person"
	TypeDefinition ConceptType = "definition"
)

// typeSpecificity fixes the order used to resolve type disagreements when
// mentions of the same concept carry different types: specific result
// categories outrank the generic fallbacks, and a node's type is never
// downgraded by a later mention. Distinct types have distinct ranks, so
// taking the maximum is order-independent.
var typeSpecificity = map[ConceptType]int{
	TypeTheorem:    7,
	TypeConjecture: 6,
	TypeIdentity:   5,
	TypeFormula:    4,
	TypeTechnique:  3,
	TypePerson:     2,
	TypeDefinition: 1,
	TypeObject:     0,
}

// Valid reports whether t is a member of the closed enum.
func (t ConceptType) Valid() bool {
	_, ok := typeSpecificity[t]
	return ok
}

// Specificity returns the fixed rank of t; higher wins a type conflict.
func (t ConceptType) Specificity() int {
	return typeSpecificity[t]
}

// Mention is one concept occurrence inside a chunk, as reported by the
// extraction capability.
type Mention struct {
	Name        string      `json:"name"`
	Type        ConceptType `json:"type"`
	Description string      `json:"description"`
	Related     []string    `json:"related"`
}

// ExtractionResult is the validated output of extracting one chunk.
// Quarantined counts mentions whose type fell outside the closed enum;
// they are reported, never merged.
type ExtractionResult struct {
	Key         ChunkKey  `json:"key"`
	Mentions    []Mention `json:"mentions"`
	Quarantined int       `json:"quarantined"`
}
