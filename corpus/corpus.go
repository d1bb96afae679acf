// Package corpus loads research papers from the supported source formats:
// the persisted corpus interchange file, publication manifests in CSV or
// XLSX form, and directories of PDF full texts.
package corpus

import (
	"context"
	"errors"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// ErrNotFound reports a source whose backing file or directory is missing.
var ErrNotFound = errors.New("corpus: source not found")

// Source yields the papers an extraction run will process.
type Source interface {
	Load(ctx context.Context) ([]store.Paper, error)
}
