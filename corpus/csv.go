package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// CSVSource reads a publication manifest, one paper per row. The header row
// names the columns; Title and Link (or URL) are matched case-insensitively
// and every other column passes through as paper metadata.
type CSVSource struct {
	Path string
}

// Load parses the manifest into papers.
func (s CSVSource) Load(_ context.Context) ([]store.Paper, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", s.Path, err)
	}
	return papersFromRows(rows)
}

// papersFromRows converts manifest rows (header first) into papers. Shared
// with the XLSX source so both formats behave identically.
func papersFromRows(rows [][]string) ([]store.Paper, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	titleCol, linkCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "title":
			if titleCol == -1 {
				titleCol = i
			}
		case "link", "url":
			if linkCol == -1 {
				linkCol = i
			}
		}
	}
	if titleCol == -1 {
		return nil, errors.New("corpus: manifest has no title column")
	}

	papers := make([]store.Paper, 0, len(rows)-1)
	for _, row := range rows[1:] {
		title := cellAt(row, titleCol)
		if title == "" {
			continue
		}
		url := cellAt(row, linkCol)

		p := store.Paper{
			PaperID: paperIDFromURL(url, len(papers)+1),
			Title:   title,
			URL:     url,
		}
		for i := range row {
			if i == titleCol || i == linkCol || i >= len(header) {
				continue
			}
			key := strings.TrimSpace(header[i])
			value := strings.TrimSpace(row[i])
			if key == "" || value == "" {
				continue
			}
			p.Extra.Set(key, value)
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// paperIDFromURL derives a stable paper ID from the URL's trailing path
// segment, e.g. ".../articles/PMC4136787/" becomes "PMC4136787". URLs with
// no usable tail fall back to a sequential spacebio_NNN id.
func paperIDFromURL(url string, seq int) string {
	tail := strings.Trim(strings.TrimSpace(url), "/")
	if i := strings.LastIndex(tail, "/"); i >= 0 {
		tail = tail[i+1:]
	}
	if tail != "" && !strings.Contains(tail, ":") {
		return tail
	}
	return fmt.Sprintf("spacebio_%03d", seq)
}
