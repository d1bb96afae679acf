package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadCorpus reads a corpus interchange file. A missing file is reported
// with the underlying os error so callers can distinguish it from a corrupt
// one via errors.Is(err, os.ErrNotExist).
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}

	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing corpus file %s: %w", path, err)
	}
	return &c, nil
}

// SaveCorpus writes the corpus interchange file atomically: the JSON is
// written to a temp file in the same directory, then renamed over the target.
func SaveCorpus(path string, c *Corpus) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating corpus directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".corpus-*.json")
	if err != nil {
		return fmt.Errorf("creating temp corpus file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing corpus file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing corpus file: %w", err)
	}
	return nil
}
