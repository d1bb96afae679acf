package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// XLSXSource reads the publication manifest from a spreadsheet. Only the
// first sheet is read; its header row maps columns exactly like the CSV
// source does.
type XLSXSource struct {
	Path string
}

// Load parses the first sheet into papers.
func (s XLSXSource) Load(_ context.Context) ([]store.Paper, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return papersFromRows(rows)
}
