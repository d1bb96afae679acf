package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// PDFSource loads the full text of every PDF in a directory. One unreadable
// file never sinks the batch: parse failures are logged and skipped.
type PDFSource struct {
	Dir string
}

// Load extracts one paper per readable PDF. The paper ID is the bare
// filename; the title is the filename with separators as spaces.
func (s PDFSource) Load(ctx context.Context) ([]store.Paper, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Dir)
		}
		return nil, fmt.Errorf("reading pdf directory: %w", err)
	}

	var papers []store.Paper
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := pdfText(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			slog.Warn("corpus: skipping unreadable pdf", "file", e.Name(), "error", err)
			continue
		}

		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		papers = append(papers, store.Paper{
			PaperID: base,
			Title:   strings.NewReplacer("_", " ", "-", " ").Replace(base),
			Text:    text,
		})
	}
	return papers, nil
}

// pdfText extracts plain text page by page. Pages that fail to extract are
// skipped; a document with no extractable text at all is an error.
func pdfText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	if b.Len() == 0 {
		return "", errors.New("no extractable text")
	}
	return b.String(), nil
}
