package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// Defaults tuned for research-paper abstracts and sections.
const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// Config controls the chunking behaviour.
type Config struct {
	ChunkSize int // Maximum characters per chunk.
	Overlap   int // Characters of repeated context between consecutive chunks.
}

// Chunk is one segment of a cleaned document, ready for triple extraction.
type Chunk struct {
	Text       string         `json:"text"`
	ChunkID    int            `json:"chunk_id"`
	TokenCount int            `json:"token_count"`
	Extra      store.Metadata `json:"-"`
}

// Chunker splits cleaned text into overlapping segments.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with the given configuration.
// Zero-value fields are replaced with sensible defaults.
func New(cfg Config) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Overlap <= 0 {
		cfg.Overlap = DefaultOverlap
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 10
	}
	return &Chunker{cfg: cfg}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	charsetRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?\-()]`)
	runOnRe      = regexp.MustCompile(`([a-z])([A-Z])`)
)

// Clean normalizes raw paper text: whitespace runs collapse to single
// spaces, characters outside a safe punctuation set are stripped, and a
// sentence break is inserted where a lower-case letter runs straight into
// an upper-case one (a common artifact of PDF text extraction).
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	text = charsetRe.ReplaceAllString(text, "")
	text = runOnRe.ReplaceAllString(text, "$1. $2")
	return text
}

// separators in boundary preference order: paragraph, line, sentence, word.
var separators = []string{"\n\n", "\n", ". ", " "}

// Split cuts text into pieces of at most ChunkSize characters with Overlap
// characters repeated between consecutive pieces. Each cut lands on the
// latest boundary inside the window, trying paragraph breaks first and
// falling through to a hard character cut only when the window contains no
// boundary at all.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.cfg.ChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.cfg.ChunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		cut := -1
		window := text[start:end]
		for _, sep := range separators {
			if i := strings.LastIndex(window, sep); i > 0 {
				cut = start + i + len(sep)
				break
			}
		}
		if cut <= start {
			// Hard cut, backed off to a rune boundary.
			cut = end
			for cut > start && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}

		chunks = append(chunks, text[start:cut])

		next := cut - c.cfg.Overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// Process cleans text, splits it, and wraps the pieces into chunk records
// with sequential IDs, whitespace word counts, and the caller's metadata
// copied onto every chunk. Empty or whitespace-only input yields an empty
// slice, never an error.
func (c *Chunker) Process(text string, extra store.Metadata) []Chunk {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}

	parts := c.Split(cleaned)
	chunks := make([]Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, Chunk{
			Text:       p,
			ChunkID:    i,
			TokenCount: len(strings.Fields(p)),
			Extra:      extra.Clone(),
		})
	}
	return chunks
}
