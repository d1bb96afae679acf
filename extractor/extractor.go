package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/llm"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

const (
	// maxSourceText caps the provenance excerpt stamped onto each triple.
	maxSourceText = 200

	// perChunkTimeout bounds the LLM call for a single chunk, retries
	// included. A chunk that cannot be extracted in time falls back to
	// the rule-based path like any other provider failure.
	perChunkTimeout = 90 * time.Second

	extractionTemperature = 0.1
	extractionMaxTokens   = 1000
)

// extractionSystemPrompt instructs the model to return structured triples.
// Low recall is acceptable; hallucinated relationships are not, so the prompt
// restricts extraction to relationships explicitly stated in the text.
const extractionSystemPrompt = `You are an expert in space biology, biomedical research, and knowledge extraction.

Your task is to extract structured knowledge triples from scientific text in the format:
(Subject, Predicate, Object)

INSTRUCTIONS:
1. Extract only factual relationships explicitly stated in the text
2. Use clear, standardized terms for entities (e.g. "Microgravity" not "micro-gravity")
3. Use informative predicates that capture the relationship (e.g. "affects", "causes", "reduces", "increases")
4. Focus on key entities: organisms, biological processes, environmental conditions, molecular components
5. Return ONLY the triples in JSON format as shown below
6. Extract 3-8 triples per text chunk

OUTPUT FORMAT:
{
  "triples": [
    {
      "subject": "Entity1",
      "predicate": "relationship",
      "object": "Entity2",
      "confidence": 0.9
    }
  ]
}

EXAMPLE:
{
  "triples": [
    {
      "subject": "Microgravity",
      "predicate": "affects",
      "object": "Bone Density",
      "confidence": 0.95
    },
    {
      "subject": "Mice",
      "predicate": "exposed_to",
      "object": "Microgravity",
      "confidence": 0.9
    }
  ]
}`

// extractionUserPrompt wraps one chunk of cleaned text.
const extractionUserPrompt = `Extract knowledge triples from this space biology text:

TEXT:
%s

Provide the output in the exact JSON format specified.`

// Extractor turns chunk text into provenance-stamped triples. The LLM is the
// primary path; any collaborator failure routes to the rule-based fallback,
// so Extract never returns an error.
type Extractor struct {
	provider llm.Provider
	model    string
	now      func() time.Time
}

// New creates an extractor backed by the given provider. An empty model
// defers to the provider's default.
func New(provider llm.Provider, model string) *Extractor {
	return &Extractor{
		provider: provider,
		model:    model,
		now:      time.Now,
	}
}

// Extract pulls triples out of one chunk of text. Each returned triple is
// stamped with the paper's identity, a truncated source excerpt, the
// extraction timestamp and method, and the caller's chunk metadata (without
// overwriting extractor-assigned fields). Collaborator failures are logged
// and absorbed; the result may be empty but the call never fails.
func (e *Extractor) Extract(ctx context.Context, text string, paper store.Paper, extra store.Metadata) []store.Triple {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	triples, err := e.extractLLM(ctx, text)
	if err != nil {
		slog.Warn("extractor: llm extraction failed, using fallback rules",
			"paper_id", paper.PaperID, "error", err)
		triples = Fallback(text)
	}

	out := make([]store.Triple, 0, len(triples))
	for _, t := range triples {
		stamped, ok := e.stamp(t, text, paper, extra)
		if !ok {
			continue
		}
		out = append(out, stamped)
	}
	return out
}

// extractLLM makes the single bounded extraction call and decodes the reply.
func (e *Extractor) extractLLM(ctx context.Context, text string) ([]store.Triple, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("no llm provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, perChunkTimeout)
	defer cancel()

	resp, err := e.provider.Generate(ctx, llm.GenerateRequest{
		Model:       e.model,
		System:      extractionSystemPrompt,
		Prompt:      fmt.Sprintf(extractionUserPrompt, text),
		Temperature: extractionTemperature,
		MaxTokens:   extractionMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}

	triples, err := parseTriples(resp.Content)
	if err != nil {
		return nil, err
	}
	for i := range triples {
		triples[i].ExtractionMethod = store.MethodLLM
	}
	return triples, nil
}

// stamp validates one raw triple and attaches provenance. Triples missing a
// subject, predicate or object are dropped; out-of-range confidences are
// clamped into [0, 1].
func (e *Extractor) stamp(t store.Triple, text string, paper store.Paper, extra store.Metadata) (store.Triple, bool) {
	t.Subject = strings.TrimSpace(t.Subject)
	t.Predicate = strings.TrimSpace(t.Predicate)
	t.Object = strings.TrimSpace(t.Object)
	if t.Subject == "" || t.Predicate == "" || t.Object == "" {
		return store.Triple{}, false
	}

	if t.Confidence < 0 {
		t.Confidence = 0
	} else if t.Confidence > 1 {
		t.Confidence = 1
	}

	t.SourceText = excerpt(text)
	t.ExtractionDate = e.now().UTC().Format(time.RFC3339)
	t.PaperID = paper.PaperID
	t.Title = paper.Title
	t.URL = paper.URL

	// Caller metadata first, extractor-side keys win on collision.
	t.Extra = extra.Merge(t.Extra)

	return t, true
}

// excerpt truncates chunk text to the provenance cap, rune-safe.
func excerpt(text string) string {
	r := []rune(text)
	if len(r) <= maxSourceText {
		return text
	}
	return string(r[:maxSourceText]) + "..."
}
