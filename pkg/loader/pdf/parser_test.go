package pdf

import (
	"strings"
	"testing"
)

func TestMarkPages(t *testing.T) {
	in := "First page text.\fSecond page text.\f"
	out := markPages(in)

	if !strings.Contains(out, "[Page 1]\nFirst page text.") {
		t.Errorf("missing first page marker:\n%s", out)
	}
	if !strings.Contains(out, "[Page 2]\nSecond page text.") {
		t.Errorf("missing second page marker:\n%s", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
}

func TestMarkPagesSkipsBlankPages(t *testing.T) {
	out := markPages("Content.\f\f\fLater content.")
	if strings.Contains(out, "[Page 2]") || strings.Contains(out, "[Page 3]") {
		t.Errorf("blank pages should be skipped:\n%s", out)
	}
	// Page numbering still reflects the original position.
	if !strings.Contains(out, "[Page 4]\nLater content.") {
		t.Errorf("page numbering lost across blanks:\n%s", out)
	}
}

func TestMarkPagesCollapsesNewlineRuns(t *testing.T) {
	out := markPages("a\n\n\n\n\nb")
	if strings.Contains(out, "\n\n\n") {
		t.Errorf("newline runs not collapsed:\n%q", out)
	}
}

func TestMarkPagesEmptyInput(t *testing.T) {
	if out := markPages(""); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
