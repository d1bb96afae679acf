// Package spacebio builds and queries a knowledge graph of space biology
// research findings. Papers are cleaned and chunked, knowledge triples are
// extracted by an LLM (with a keyword rule fallback), and the surviving
// triples form a directed multigraph that answers natural-language
// questions with full source provenance.
package spacebio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/answer"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/chunker"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/corpus"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/extractor"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/graph"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/llm"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/query"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// defaultTopTriples is how many ranked triples an Answer carries.
const defaultTopTriples = 5

// Engine is the main entry point. It owns the corpus source, the
// extraction pipeline and the queryable graph. The graph is read-mostly:
// queries take a read lock and BuildGraph swaps in a fresh graph under the
// write lock, so a rebuild never blocks in-flight reads.
type Engine struct {
	cfg       Config
	source    corpus.Source
	provider  llm.Provider
	chunkr    *chunker.Chunker
	extractr  *extractor.Extractor
	formatter answer.Formatter
	cache     *store.Store

	mu      sync.RWMutex
	graph   *graph.Graph
	triples []store.Triple
}

// Answer is the result of a single question.
type Answer struct {
	Query               string         `json:"query"`
	Intent              query.Intent   `json:"intent"`
	RelevantTripleCount int            `json:"relevant_triples_count"`
	TopTriples          []store.Triple `json:"top_triples"`
	AnswerText          string         `json:"answer"`
}

// ExtractOption configures extraction behavior.
type ExtractOption func(*extractOptions)

type extractOptions struct {
	minConfidence float64
	withoutLLM    bool
}

// WithMinConfidence overrides the configured confidence threshold for this
// extraction run.
func WithMinConfidence(c float64) ExtractOption {
	return func(o *extractOptions) { o.minConfidence = c }
}

// WithoutLLM forces rule-based extraction even when a provider is
// configured.
func WithoutLLM() ExtractOption {
	return func(o *extractOptions) { o.withoutLLM = true }
}

// QueryOption configures query behavior.
type QueryOption func(*queryOptions)

type queryOptions struct {
	topK      int
	formatter answer.Formatter
}

// WithTopK sets how many ranked triples the Answer carries.
func WithTopK(n int) QueryOption {
	return func(o *queryOptions) { o.topK = n }
}

// WithFormatter overrides the answer formatter for this query.
func WithFormatter(f answer.Formatter) QueryOption {
	return func(o *queryOptions) { o.formatter = f }
}

// New creates an Engine from the configuration.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply defaults for zero values.
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = extractor.DefaultMinConfidence
	}
	if cfg.CorpusPath == "" && cfg.CSVPath == "" && cfg.XLSXPath == "" && cfg.PDFDir == "" {
		cfg.CorpusPath = DefaultConfig().CorpusPath
	}

	// Open the SQLite cache when configured.
	var cache *store.Store
	if cfg.DBPath != "" {
		s, err := store.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		cache = s
	}

	// Create the LLM provider. A missing API key is not fatal: the engine
	// runs extraction and query resolution on the rule-based paths, which
	// is also what happens when the provider errors at request time.
	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		if needsAPIKey(cfg.LLM.Provider) && cfg.LLM.APIKey == "" {
			slog.Warn("llm provider disabled, no api key configured",
				"provider", cfg.LLM.Provider)
		} else {
			p, err := llm.NewProvider(llm.Config{
				Provider: cfg.LLM.Provider,
				Model:    cfg.LLM.Model,
				BaseURL:  cfg.LLM.BaseURL,
				APIKey:   cfg.LLM.APIKey,
			})
			if err != nil {
				if cache != nil {
					cache.Close()
				}
				return nil, fmt.Errorf("creating llm provider: %w", err)
			}
			provider = p
		}
	}

	return &Engine{
		cfg:      cfg,
		source:   corpusSource(cfg),
		provider: provider,
		chunkr: chunker.New(chunker.Config{
			ChunkSize: cfg.ChunkSize,
			Overlap:   cfg.ChunkOverlap,
		}),
		extractr:  extractor.New(provider, cfg.LLM.Model),
		formatter: answer.NewGenerative(provider, cfg.LLM.Model),
		cache:     cache,
		graph:     graph.NewGraph(),
	}, nil
}

// corpusSource picks the paper source from the configured paths. Explicit
// manifest and document sources win over the JSON interchange default.
func corpusSource(cfg Config) corpus.Source {
	switch {
	case cfg.CSVPath != "":
		return corpus.CSVSource{Path: cfg.CSVPath}
	case cfg.XLSXPath != "":
		return corpus.XLSXSource{Path: cfg.XLSXPath}
	case cfg.PDFDir != "":
		return corpus.PDFSource{Dir: cfg.PDFDir}
	default:
		return corpus.JSONSource{Path: cfg.CorpusPath}
	}
}

// needsAPIKey reports whether a provider is a hosted service that cannot
// work without a key.
func needsAPIKey(provider string) bool {
	switch provider {
	case "groq", "openai", "openrouter", "xai", "gemini":
		return true
	}
	return false
}

// Extract loads the corpus source, chunks every paper, extracts knowledge
// triples and filters them by confidence. The returned corpus carries the
// kept triples together with the processed papers and run metadata. It is
// not loaded into the engine; call BuildGraph with the triples, and
// store.SaveCorpus to persist.
func (e *Engine) Extract(ctx context.Context, opts ...ExtractOption) (*store.Corpus, error) {
	options := extractOptions{minConfidence: e.cfg.MinConfidence}
	for _, o := range opts {
		o(&options)
	}

	papers, err := e.source.Load(ctx)
	if err != nil {
		if errors.Is(err, corpus.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrCorpusNotFound, err)
		}
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	extractr := e.extractr
	model := e.cfg.LLM.Model
	if options.withoutLLM {
		extractr = extractor.New(nil, "")
	}
	if options.withoutLLM || e.provider == nil {
		model = "rule-based"
	}

	slog.Info("extract: corpus loaded", "papers", len(papers), "model", model)
	start := time.Now()

	var raw []store.Triple
	var chunks int
	for _, p := range papers {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Manifest sources carry no body text, so the title stands in:
		// it is enough for the rule-based patterns to find a finding.
		text := p.Text
		if text == "" {
			text = p.Title
		}
		for _, sec := range chunker.SplitSections(text) {
			extra := p.Extra
			if sec.Name != "" {
				extra = p.Extra.Clone()
				extra.Set("section", sec.Name)
			}
			for _, ch := range e.chunkr.Process(sec.Text, extra) {
				chunks++
				raw = append(raw, extractr.Extract(ctx, ch.Text, p, ch.Extra)...)
			}
		}
	}

	triples := extractor.Filter(raw, options.minConfidence)
	slog.Info("extract: complete",
		"papers", len(papers), "chunks", chunks,
		"raw_triples", len(raw), "kept", len(triples),
		"min_confidence", options.minConfidence,
		"elapsed", time.Since(start).Round(time.Millisecond))

	c := &store.Corpus{
		ExtractionInfo: store.ExtractionInfo{
			TotalPapers:    len(papers),
			TotalTriples:   len(triples),
			ExtractionDate: time.Now().UTC().Format(time.RFC3339),
			Model:          model,
			MinConfidence:  options.minConfidence,
		},
		ProcessedPapers: papers,
		Triples:         triples,
	}

	if e.cache != nil {
		if err := e.cacheCorpus(ctx, c); err != nil {
			slog.Warn("extract: caching failed", "error", err)
		}
	}
	return c, nil
}

// cacheCorpus mirrors an extraction run into the SQLite cache.
func (e *Engine) cacheCorpus(ctx context.Context, c *store.Corpus) error {
	for _, p := range c.ProcessedPapers {
		if _, err := e.cache.UpsertPaper(ctx, p); err != nil {
			return fmt.Errorf("caching paper %s: %w", p.PaperID, err)
		}
	}
	if err := e.cache.ClearTriples(ctx); err != nil {
		return fmt.Errorf("clearing cached triples: %w", err)
	}
	if err := e.cache.InsertTriples(ctx, c.Triples); err != nil {
		return fmt.Errorf("caching triples: %w", err)
	}
	return e.cache.RecordExtractionRun(ctx, c.ExtractionInfo)
}

// BuildGraph replaces the queryable graph with one built from the given
// triples. Readers keep the old graph until the new one is ready.
func (e *Engine) BuildGraph(triples []store.Triple) {
	g := graph.Build(triples)
	cp := make([]store.Triple, len(triples))
	copy(cp, triples)

	e.mu.Lock()
	e.graph = g
	e.triples = cp
	e.mu.Unlock()

	slog.Info("graph built",
		"nodes", g.NumNodes(), "edges", g.NumEdges(), "triples", len(cp))
}

// RebuildIfEmpty builds the graph from previously extracted triples when
// none are loaded yet, trying the SQLite cache first and the JSON
// interchange file second. Read-only commands use it so they work without
// an explicit extract-and-build step.
func (e *Engine) RebuildIfEmpty(ctx context.Context) error {
	e.mu.RLock()
	built := e.graph.NumNodes() > 0
	e.mu.RUnlock()
	if built {
		return nil
	}

	if e.cache != nil {
		triples, err := e.cache.AllTriples(ctx)
		if err != nil {
			slog.Warn("rebuild: cache read failed", "error", err)
		} else if len(triples) > 0 {
			e.BuildGraph(triples)
			return nil
		}
	}

	c, err := store.LoadCorpus(e.cfg.CorpusPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCorpusNotFound, e.cfg.CorpusPath)
		}
		return fmt.Errorf("loading corpus: %w", err)
	}
	e.BuildGraph(c.Triples)
	return nil
}

// Query answers a natural-language question from the current graph.
// Resolution and formatting degrade to their rule-based fallbacks instead
// of failing, so a well-formed Answer always comes back; the only error is
// a blank question.
func (e *Engine) Query(ctx context.Context, question string, opts ...QueryOption) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuery
	}

	options := queryOptions{topK: defaultTopTriples, formatter: e.formatter}
	for _, o := range opts {
		o(&options)
	}

	e.mu.RLock()
	g := e.graph
	triples := e.triples
	e.mu.RUnlock()

	start := time.Now()
	resolver := query.NewResolver(g, e.provider, e.cfg.LLM.Model)
	intent := resolver.Resolve(ctx, question)
	slog.Info("query: intent resolved",
		"type", intent.Type, "focus", intent.Focus,
		"entities", len(intent.Entities), "source", intent.Source)

	ranked := query.Rank(triples, intent)

	text, err := options.formatter.Format(ctx, question, intent, ranked)
	if err != nil {
		slog.Warn("query: formatter failed, using list format", "error", err)
		text, _ = answer.Lister{}.Format(ctx, question, intent, ranked)
	}

	top := ranked
	if options.topK >= 0 && len(top) > options.topK {
		top = top[:options.topK]
	}

	ans := &Answer{
		Query:               question,
		Intent:              intent,
		RelevantTripleCount: len(ranked),
		TopTriples:          top,
		AnswerText:          text,
	}
	slog.Info("query: answered",
		"relevant", len(ranked), "elapsed", time.Since(start).Round(time.Millisecond))

	if e.cache != nil {
		rec := store.QueryRecord{
			Query:      question,
			IntentType: intent.Type,
			FocusArea:  intent.Focus,
			Matched:    len(ranked),
			Answer:     text,
			Source:     intent.Source,
		}
		if err := e.cache.LogQuery(ctx, rec); err != nil {
			slog.Warn("query: audit log failed", "error", err)
		}
	}
	return ans, nil
}

// Statistics summarizes the current graph.
func (e *Engine) Statistics() graph.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Statistics()
}

// Export returns the renderer-agnostic view of the current graph.
func (e *Engine) Export() *graph.Export {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Export()
}

// Paths lists directed entity paths between two nodes, bounded by maxLen
// hops. Unknown endpoints yield an empty result.
func (e *Engine) Paths(from, to string, maxLen int) [][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Paths(from, to, maxLen)
}

// Triples returns the currently loaded triples.
func (e *Engine) Triples() []store.Triple {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make([]store.Triple, len(e.triples))
	copy(cp, e.triples)
	return cp
}

// Close releases the SQLite cache if one is open.
func (e *Engine) Close() error {
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}
