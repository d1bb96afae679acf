package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// JSONSource reads papers back out of a corpus interchange file, the shape
// an extraction run persists. It lets a graph rebuild reuse already
// processed papers without touching the original documents.
type JSONSource struct {
	Path string
}

// Load returns the processed papers recorded in the file.
func (s JSONSource) Load(_ context.Context) ([]store.Paper, error) {
	c, err := store.LoadCorpus(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return nil, err
	}
	return c.ProcessedPapers, nil
}
