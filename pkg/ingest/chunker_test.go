package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("doc", "A short note about the Bailey lemma and its consequences.", 1500, 200, 50)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[0].DocID != "doc" {
		t.Errorf("unexpected chunk identity: %+v", chunks[0])
	}
}

func TestChunkTextDropsTinyChunks(t *testing.T) {
	chunks := ChunkText("doc", "too small", 1500, 200, 50)
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for input below the minimum, got %d", len(chunks))
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	text := strings.Repeat("The generating function converges. ", 300)
	a := ChunkText("doc", text, 1500, 200, 50)
	b := ChunkText("doc", text, 1500, 200, 50)

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkTextRespectsSize(t *testing.T) {
	text := strings.Repeat("x", 400) + ". " + strings.Repeat("y", 5000)
	for _, chunk := range ChunkText("doc", text, 1500, 200, 50) {
		if len(chunk.Text) > 1500 {
			t.Errorf("chunk %d is %d bytes, exceeds size", chunk.Index, len(chunk.Text))
		}
	}
}

func TestChunkTextPrefersParagraphBreak(t *testing.T) {
	first := strings.Repeat("a", 600)
	second := strings.Repeat("b", 600)
	text := first + "\n\n" + second + strings.Repeat(" more text follows here.", 100)

	chunks := ChunkText("doc", text, 1000, 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if chunks[0].Text != first {
		t.Errorf("first chunk should end at the paragraph break, got %d bytes", len(chunks[0].Text))
	}
}

func TestChunkTextSentenceFallback(t *testing.T) {
	text := strings.Repeat("c", 700) + ". " + strings.Repeat("d", 700) + ". " + strings.Repeat("e", 700)

	chunks := ChunkText("doc", text, 1000, 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, ".") {
		t.Errorf("first chunk should end at a sentence break, ends with %q", chunks[0].Text[len(chunks[0].Text)-5:])
	}
}

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("f", 5000)

	chunks := ChunkText("doc", text, 1500, 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start >= chunks[i-1].End {
			t.Errorf("chunks %d and %d do not overlap", i-1, i)
		}
	}
}

func TestChunkTextNoDuplicateTail(t *testing.T) {
	text := strings.Repeat("f", 5000)

	chunks := ChunkText("doc", text, 1500, 200, 50)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.Start >= prev.Start && cur.End <= prev.End {
			t.Errorf("chunk %d [%d,%d) is contained in chunk %d [%d,%d)",
				i, cur.Start, cur.End, i-1, prev.Start, prev.End)
		}
	}
	if last := chunks[len(chunks)-1]; last.End != len(text) {
		t.Errorf("last chunk ends at %d, want %d", last.End, len(text))
	}
}

func TestChunkTextKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("α", 2500)

	chunks := ChunkText("doc", text, 1501, 201, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if !utf8.ValidString(chunk.Text) {
			t.Errorf("chunk %d holds invalid UTF-8", chunk.Index)
		}
	}
}

func TestChunkTextOffsetsDelimitText(t *testing.T) {
	text := "  " + strings.Repeat("g", 900) + "\n\n" + strings.Repeat("h", 900) + "\n\n" + strings.Repeat("i", 900) + "  \n"

	chunks := ChunkText("doc", text, 1000, 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if text[chunk.Start:chunk.End] != chunk.Text {
			t.Errorf("chunk %d offsets [%d,%d) do not delimit its text", chunk.Index, chunk.Start, chunk.End)
		}
	}
}

func TestChunkTextIndexesAndHashes(t *testing.T) {
	text := strings.Repeat("The sum telescopes. ", 400)
	chunks := ChunkText("doc", text, 1500, 200, 50)

	seen := make(map[string]bool)
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if chunk.Hash != HashText(chunk.Text) {
			t.Errorf("chunk %d hash does not match its text", i)
		}
		if seen[chunk.ID] {
			t.Errorf("duplicate chunk id %s", chunk.ID)
		}
		seen[chunk.ID] = true
	}
}

func TestHashTextStable(t *testing.T) {
	if HashText("abc") != HashText("abc") {
		t.Error("equal inputs must hash equally")
	}
	if HashText("abc") == HashText("abd") {
		t.Error("different inputs should not collide")
	}
}
