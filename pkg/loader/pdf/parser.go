package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

var reNewlines = regexp.MustCompile(`\n{3,}`)

func parsePDF(ctx context.Context, path string) ([]byte, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	cCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(
		cCtx,
		"pdftotext",
		"-enc", "UTF-8",
		"-eol", "unix",
		"-q",
		path,
		"-",
	)

	out, err := cmd.CombinedOutput()
	if cCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("pdftotext timed out")
	}
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w: %s", err, bytes.TrimSpace(out))
	}

	return []byte(markPages(string(out))), nil
}

// markPages replaces the form-feed page separators pdftotext emits with
// inline [Page N] markers, so chunk text keeps page provenance.
func markPages(text string) string {
	pages := strings.Split(text, "\f")
	var b strings.Builder
	pageNum := 0
	for _, page := range pages {
		page = strings.TrimSpace(page)
		pageNum++
		if page == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[Page %d]\n%s", pageNum, page)
	}

	out := strings.TrimSpace(b.String())
	out = reNewlines.ReplaceAllString(out, "\n\n")
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}
