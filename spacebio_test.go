package spacebio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/query"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// writeManifest writes a two-paper CSV whose titles trigger the keyword
// extraction rules.
func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papers.csv")
	rows := "Title,Link\n" +
		"Effects of Microgravity on Bone Density in Mice,https://example.org/PMC001\n" +
		"Plant Growth and Development in Microgravity,https://example.org/PMC002\n"
	if err := os.WriteFile(path, []byte(rows), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return path
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func sampleTriples() []store.Triple {
	return []store.Triple{
		{Subject: "Microgravity", Predicate: "affects", Object: "Bone Density",
			Confidence: 0.9, PaperID: "spacebio_001", Title: "Bone Loss in Orbit"},
		{Subject: "Microgravity", Predicate: "causes", Object: "Muscle Atrophy",
			Confidence: 0.85, PaperID: "spacebio_002", Title: "Muscle Wasting Study"},
		{Subject: "Radiation", Predicate: "affects", Object: "Immune System",
			Confidence: 0.8, PaperID: "spacebio_003", Title: "Radiation and Immunity"},
	}
}

// chatHandler returns an OpenAI-compatible completion carrying content,
// counting the calls it serves.
func chatHandler(t *testing.T, calls *atomic.Int32, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected request path %q", r.URL.Path)
		}
		reply := map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}, "finish_reason": "stop"},
			},
		}
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			t.Errorf("encoding reply: %v", err)
		}
	}
}

// formatterFunc adapts a function to the answer formatter interface.
type formatterFunc func(ctx context.Context, question string, intent query.Intent, ranked []store.Triple) (string, error)

func (f formatterFunc) Format(ctx context.Context, question string, intent query.Intent, ranked []store.Triple) (string, error) {
	return f(ctx, question, intent, ranked)
}

// ------------------------------------------------------------------
// Construction
// ------------------------------------------------------------------

func TestNewDefaults(t *testing.T) {
	e := newEngine(t, Config{})

	if e.cfg.MinConfidence != 0.6 {
		t.Errorf("min confidence: got %v, want 0.6", e.cfg.MinConfidence)
	}
	if e.cfg.CorpusPath != "space_biology_corpus.json" {
		t.Errorf("corpus path: got %q", e.cfg.CorpusPath)
	}
	if e.provider != nil {
		t.Error("expected no provider without llm config")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{MinConfidence: 1.5})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Config{LLM: LLMConfig{Provider: "mystery"}})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewMissingKeyRunsRuleBased(t *testing.T) {
	e := newEngine(t, Config{LLM: LLMConfig{Provider: "groq"}})
	if e.provider != nil {
		t.Error("expected provider to be disabled without an api key")
	}
}

// ------------------------------------------------------------------
// Extraction
// ------------------------------------------------------------------

func TestExtractRuleBased(t *testing.T) {
	e := newEngine(t, Config{CSVPath: writeManifest(t)})

	c, err := e.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if c.ExtractionInfo.TotalPapers != 2 {
		t.Errorf("total papers: got %d, want 2", c.ExtractionInfo.TotalPapers)
	}
	if c.ExtractionInfo.Model != "rule-based" {
		t.Errorf("model: got %q, want rule-based", c.ExtractionInfo.Model)
	}
	if c.ExtractionInfo.MinConfidence != 0.6 {
		t.Errorf("min confidence: got %v, want 0.6", c.ExtractionInfo.MinConfidence)
	}
	if len(c.Triples) != 2 {
		t.Fatalf("got %d triples, want 2: %+v", len(c.Triples), c.Triples)
	}

	first := c.Triples[0]
	if first.Subject != "Microgravity" || first.Object != "Bone Density" {
		t.Errorf("unexpected first triple: %+v", first)
	}
	if first.ExtractionMethod != store.MethodFallback {
		t.Errorf("method: got %q, want %q", first.ExtractionMethod, store.MethodFallback)
	}
	if first.PaperID != "PMC001" {
		t.Errorf("paper id: got %q, want PMC001", first.PaperID)
	}
	if second := c.Triples[1]; second.Subject != "Plants" || second.Object != "Microgravity" {
		t.Errorf("unexpected second triple: %+v", second)
	}
}

func TestExtractMissingSource(t *testing.T) {
	e := newEngine(t, Config{CSVPath: filepath.Join(t.TempDir(), "missing.csv")})

	_, err := e.Extract(context.Background())
	if !errors.Is(err, ErrCorpusNotFound) {
		t.Fatalf("got %v, want ErrCorpusNotFound", err)
	}
}

func TestExtractMinConfidenceOption(t *testing.T) {
	e := newEngine(t, Config{CSVPath: writeManifest(t)})

	c, err := e.Extract(context.Background(), WithMinConfidence(0.75))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(c.Triples) != 0 {
		t.Errorf("rule triples at 0.7 should not pass a 0.75 threshold, got %d", len(c.Triples))
	}
	if c.ExtractionInfo.MinConfidence != 0.75 {
		t.Errorf("min confidence: got %v, want 0.75", c.ExtractionInfo.MinConfidence)
	}
}

func TestExtractWithoutLLMSkipsProvider(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(chatHandler(t, &calls, `{"triples":[]}`))
	defer srv.Close()

	e := newEngine(t, Config{
		CSVPath: writeManifest(t),
		LLM:     LLMConfig{Provider: "custom", Model: "test-model", BaseURL: srv.URL},
	})

	c, err := e.Extract(context.Background(), WithoutLLM())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("provider called %d times, want 0", got)
	}
	if c.ExtractionInfo.Model != "rule-based" {
		t.Errorf("model: got %q, want rule-based", c.ExtractionInfo.Model)
	}
	if len(c.Triples) != 2 {
		t.Errorf("got %d triples, want 2 from the rules", len(c.Triples))
	}
}

func TestExtractLLMPath(t *testing.T) {
	payload := `{"triples":[{"subject":"Microgravity","predicate":"reduces",` +
		`"object":"Bone Mineral Density","confidence":0.92}]}`

	var calls atomic.Int32
	srv := httptest.NewServer(chatHandler(t, &calls, payload))
	defer srv.Close()

	e := newEngine(t, Config{
		CSVPath: writeManifest(t),
		LLM:     LLMConfig{Provider: "custom", Model: "test-model", BaseURL: srv.URL},
	})

	c, err := e.Extract(context.Background())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("provider called %d times, want 2 (one per paper)", got)
	}
	// Both papers yield the same triple; the filter keeps the first.
	if len(c.Triples) != 1 {
		t.Fatalf("got %d triples, want 1 after dedup: %+v", len(c.Triples), c.Triples)
	}
	got := c.Triples[0]
	if got.ExtractionMethod != store.MethodLLM {
		t.Errorf("method: got %q, want %q", got.ExtractionMethod, store.MethodLLM)
	}
	if got.PaperID != "PMC001" {
		t.Errorf("paper id: got %q, want first paper PMC001", got.PaperID)
	}
	if got.Confidence != 0.92 {
		t.Errorf("confidence: got %v, want 0.92", got.Confidence)
	}
	if c.ExtractionInfo.Model != "test-model" {
		t.Errorf("model: got %q, want test-model", c.ExtractionInfo.Model)
	}
}

// ------------------------------------------------------------------
// Graph lifecycle
// ------------------------------------------------------------------

func TestBuildGraphSwapsState(t *testing.T) {
	e := newEngine(t, Config{})

	e.BuildGraph(sampleTriples())
	if got := e.Statistics().TotalNodes; got != 5 {
		t.Errorf("nodes: got %d, want 5", got)
	}
	if got := len(e.Triples()); got != 3 {
		t.Errorf("triples: got %d, want 3", got)
	}

	e.BuildGraph(sampleTriples()[:1])
	if got := e.Statistics().TotalNodes; got != 2 {
		t.Errorf("nodes after rebuild: got %d, want 2", got)
	}
}

func TestRebuildIfEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	c := &store.Corpus{
		ExtractionInfo: store.ExtractionInfo{TotalPapers: 3, TotalTriples: 3},
		Triples:        sampleTriples(),
	}
	if err := store.SaveCorpus(path, c); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	e := newEngine(t, Config{CorpusPath: path})
	if err := e.RebuildIfEmpty(context.Background()); err != nil {
		t.Fatalf("RebuildIfEmpty: %v", err)
	}
	if got := e.Statistics().TotalNodes; got != 5 {
		t.Errorf("nodes: got %d, want 5", got)
	}

	// A loaded graph is left alone.
	e.BuildGraph(sampleTriples()[:1])
	if err := e.RebuildIfEmpty(context.Background()); err != nil {
		t.Fatalf("RebuildIfEmpty on loaded graph: %v", err)
	}
	if got := e.Statistics().TotalNodes; got != 2 {
		t.Errorf("nodes: got %d, want 2 (rebuild must not reload)", got)
	}
}

func TestRebuildIfEmptyMissingCorpus(t *testing.T) {
	e := newEngine(t, Config{CorpusPath: filepath.Join(t.TempDir(), "missing.json")})

	err := e.RebuildIfEmpty(context.Background())
	if !errors.Is(err, ErrCorpusNotFound) {
		t.Fatalf("got %v, want ErrCorpusNotFound", err)
	}
}

// ------------------------------------------------------------------
// Query
// ------------------------------------------------------------------

func TestQueryEmptyQuestion(t *testing.T) {
	e := newEngine(t, Config{})

	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := e.Query(context.Background(), q); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Query(%q): got %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestQueryFallbackAnswer(t *testing.T) {
	e := newEngine(t, Config{})
	e.BuildGraph(sampleTriples())

	ans, err := e.Query(context.Background(), "What affects bone density?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if ans.Query != "What affects bone density?" {
		t.Errorf("query echo: got %q", ans.Query)
	}
	if ans.Intent.Source != query.SourceFallback {
		t.Errorf("intent source: got %q, want %q", ans.Intent.Source, query.SourceFallback)
	}
	if ans.Intent.Type != query.IntentWhatAffects {
		t.Errorf("intent type: got %q, want %q", ans.Intent.Type, query.IntentWhatAffects)
	}
	if ans.RelevantTripleCount != 1 {
		t.Fatalf("relevant count: got %d, want 1", ans.RelevantTripleCount)
	}
	if got := ans.TopTriples[0].Object; got != "Bone Density" {
		t.Errorf("top triple object: got %q", got)
	}
	if !strings.HasPrefix(ans.AnswerText, "Based on the research data") {
		t.Errorf("answer text: got %q", ans.AnswerText)
	}
}

func TestQueryNoMatches(t *testing.T) {
	e := newEngine(t, Config{})
	e.BuildGraph(sampleTriples())

	ans, err := e.Query(context.Background(), "What affects cartilage repair?")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if ans.RelevantTripleCount != 0 {
		t.Errorf("relevant count: got %d, want 0", ans.RelevantTripleCount)
	}
	want := "I couldn't find specific information to answer your question in the current knowledge base."
	if ans.AnswerText != want {
		t.Errorf("answer text: got %q, want %q", ans.AnswerText, want)
	}
}

func TestQueryTopK(t *testing.T) {
	triples := make([]store.Triple, 0, 7)
	for i := 0; i < 7; i++ {
		triples = append(triples, store.Triple{
			Subject:    fmt.Sprintf("Factor %d", i),
			Predicate:  "affects",
			Object:     "Bone Density",
			Confidence: 0.9 - float64(i)*0.01,
		})
	}

	e := newEngine(t, Config{})
	e.BuildGraph(triples)

	ans, err := e.Query(context.Background(), "What affects bone density?", WithTopK(2))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if ans.RelevantTripleCount != 7 {
		t.Errorf("relevant count: got %d, want 7", ans.RelevantTripleCount)
	}
	if len(ans.TopTriples) != 2 {
		t.Errorf("top triples: got %d, want 2", len(ans.TopTriples))
	}
}

func TestQueryWithFormatter(t *testing.T) {
	e := newEngine(t, Config{})
	e.BuildGraph(sampleTriples())

	fixed := formatterFunc(func(context.Context, string, query.Intent, []store.Triple) (string, error) {
		return "a fixed summary", nil
	})
	ans, err := e.Query(context.Background(), "What affects bone density?", WithFormatter(fixed))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if ans.AnswerText != "a fixed summary" {
		t.Errorf("answer text: got %q", ans.AnswerText)
	}
}

func TestQueryFormatterFailureDegrades(t *testing.T) {
	e := newEngine(t, Config{})
	e.BuildGraph(sampleTriples())

	broken := formatterFunc(func(context.Context, string, query.Intent, []store.Triple) (string, error) {
		return "", errors.New("formatter down")
	})
	ans, err := e.Query(context.Background(), "What affects bone density?", WithFormatter(broken))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.HasPrefix(ans.AnswerText, "Based on the research data") {
		t.Errorf("expected list fallback, got %q", ans.AnswerText)
	}
}
