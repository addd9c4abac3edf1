package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/papergraph/papergraph/pkg/common"
)

// sentenceBreaks are tried in order when no paragraph break falls inside
// the chunk window.
var sentenceBreaks = []string{". ", ".\n", ";\n"}

// HashText returns the hex-encoded sha256 of text. Content hashes drive both
// re-ingestion skips and extraction cache validity.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ChunkText splits text into overlapping chunks of at most size bytes.
// Whenever a chunk would end mid-text, the cut is moved back to the last
// paragraph break inside the window, or failing that the last sentence
// break, so chunks tend to end on natural boundaries; cuts never split a
// rune. Consecutive chunks share overlap bytes of context. Chunks shorter
// than minChars after trimming are dropped, and Start/End delimit the
// trimmed text. Chunking is a pure function of its inputs, so the same
// document always yields the same chunks.
func ChunkText(docID, text string, size, overlap, minChars int) []common.Chunk {
	var chunks []common.Chunk
	n := len(text)
	start := 0

	for start < n {
		end := start + size
		last := end >= n
		if last {
			end = n
		} else if cut := findBreak(text, start+overlap, end); cut > start {
			end = cut
		} else if cut := runeStart(text, end); cut > start {
			end = cut
		}

		raw := text[start:end]
		piece := strings.TrimSpace(raw)
		if len(piece) >= minChars {
			from := start + (len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace)))
			idx := len(chunks)
			chunks = append(chunks, common.Chunk{
				ID:    fmt.Sprintf("%s#%d", docID, idx),
				DocID: docID,
				Index: idx,
				Text:  piece,
				Hash:  HashText(piece),
				Start: from,
				End:   from + len(piece),
			})
		}
		if last {
			break
		}

		next := runeStart(text, end-overlap)
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// runeStart backs i off to the first byte of the rune containing it.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// findBreak returns the preferred cut position in text between lo and hi,
// or -1 when the window holds no usable boundary. A paragraph break cuts
// before the blank line; a sentence break cuts after its separator.
func findBreak(text string, lo, hi int) int {
	if lo >= hi {
		return -1
	}
	window := text[lo:hi]
	if p := strings.LastIndex(window, "\n\n"); p != -1 {
		return lo + p
	}
	for _, sep := range sentenceBreaks {
		if p := strings.LastIndex(window, sep); p != -1 {
			return lo + p + len(sep)
		}
	}
	return -1
}
