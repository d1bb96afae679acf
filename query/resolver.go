package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/graph"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/llm"
)

// Intent types a question can resolve to.
const (
	IntentWhatAffects    = "what_affects"
	IntentWhatDoesAffect = "what_does_affect"
	IntentConnection     = "connection"
	IntentSummary        = "summary"
	IntentGeneral        = "general"
)

// Where an intent came from.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Intent is the structured reading of a natural-language question: which
// graph entities it mentions, what kind of question it is, and the focus
// area it leans toward.
type Intent struct {
	Entities    []string `json:"entities"`
	Type        string   `json:"query_type"`
	Focus       string   `json:"focus_area,omitempty"`
	Description string   `json:"intent_description,omitempty"`
	Source      string   `json:"source"`
}

// Resolver turns questions into intents, preferring the LLM and falling back
// to rule-based matching against the graph's node names.
type Resolver struct {
	graph    *graph.Graph
	provider llm.Provider
	model    string
}

// NewResolver creates a resolver over a built graph. A nil provider disables
// the LLM path; resolution then always uses the rule fallback.
func NewResolver(g *graph.Graph, provider llm.Provider, model string) *Resolver {
	return &Resolver{graph: g, provider: provider, model: model}
}

const (
	resolveTemperature = 0.1
	resolveMaxTokens   = 300
	resolveSampleSize  = 50

	// resolveTimeout bounds the resolution call; a slow provider degrades
	// to the rule fallback instead of stalling the query.
	resolveTimeout = 30 * time.Second
)

// Resolve analyzes one question. It never fails: when the LLM is missing,
// errors out or replies with something unusable, the rule fallback supplies
// the intent instead.
func (r *Resolver) Resolve(ctx context.Context, question string) Intent {
	intent, err := r.resolveLLM(ctx, question)
	if err != nil {
		slog.Warn("query: llm intent resolution failed, using rule fallback", "error", err)
		return r.fallback(question)
	}
	return intent
}

func (r *Resolver) resolveLLM(ctx context.Context, question string) (Intent, error) {
	if r.provider == nil {
		return Intent{}, errors.New("no llm provider configured")
	}

	sample := r.graph.Nodes()
	if len(sample) > resolveSampleSize {
		sample = sample[:resolveSampleSize]
	}

	ctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()

	resp, err := r.provider.Generate(ctx, llm.GenerateRequest{
		Model:       r.model,
		Prompt:      resolvePrompt(question, sample),
		Temperature: resolveTemperature,
		MaxTokens:   resolveMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("generate: %w", err)
	}

	payload, err := parseIntentReply(resp.Content)
	if err != nil {
		return Intent{}, err
	}

	intent := Intent{
		Entities:    r.canonicalize(payload.Entities),
		Type:        strings.ToLower(strings.TrimSpace(payload.QueryType)),
		Focus:       strings.ToLower(strings.TrimSpace(payload.FocusArea)),
		Description: strings.TrimSpace(payload.Description),
		Source:      SourceLLM,
	}
	if intent.Type == "" {
		intent.Type = IntentGeneral
	}
	return intent, nil
}

func resolvePrompt(question string, sample []string) string {
	return fmt.Sprintf(`You are an expert at analyzing scientific queries about space biology research.

Available entities in our knowledge graph include (sample): %s...

User Query: "%s"

Please analyze this query and extract:
1. Main entities mentioned (find the closest matches from available entities)
2. Query type (what_affects, what_does_affect, connection, summary, or general)
3. Specific focus area (plants, bone, immune, muscle, or bacteria; omit if none applies)

Respond in JSON format:
{
    "entities": ["entity1", "entity2"],
    "query_type": "what_does_affect",
    "focus_area": "plants",
    "intent_description": "User wants to know how microgravity affects plants specifically"
}`, strings.Join(sample, ", "), question)
}

// canonicalize maps LLM-named entities onto graph nodes through the alias
// index. Names the index cannot resolve stay as given, since ranking matches
// by substring anyway. Duplicates collapse, order is kept.
func (r *Resolver) canonicalize(entities []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range entities {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		names := r.graph.Canonical(e)
		if names == nil {
			names = []string{e}
		}
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// intentTriggers maps question phrases to an intent type, checked in order
// with the first hit winning.
var intentTriggers = []struct {
	Phrases []string
	Type    string
}{
	{Phrases: []string{"what affects", "what influences"}, Type: IntentWhatAffects},
	{Phrases: []string{"what does", "how does"}, Type: IntentWhatDoesAffect},
	{Phrases: []string{"connection", "relationship between"}, Type: IntentConnection},
	{Phrases: []string{"tell me about", "summary"}, Type: IntentSummary},
}

// fallback resolves a question with rules alone: entities are graph nodes
// mentioned in the question (alias-assisted substring scan), the type comes
// from trigger phrases and the focus from the resolver focus table.
func (r *Resolver) fallback(question string) Intent {
	lower := strings.ToLower(question)

	intent := Intent{
		Entities: r.graph.Mentioned(question),
		Type:     IntentGeneral,
		Focus:    focusOf(lower),
		Source:   SourceFallback,
	}
	for _, trig := range intentTriggers {
		if containsAny(lower, trig.Phrases) {
			intent.Type = trig.Type
			break
		}
	}

	about := intent.Focus
	if about == "" {
		about = "general topic"
	}
	intent.Description = "User query about " + about
	return intent
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Reply parsing
// ---------------------------------------------------------------------------

// intentPayload is the JSON shape the resolver prompt asks for.
type intentPayload struct {
	Entities    []string `json:"entities"`
	QueryType   string   `json:"query_type"`
	FocusArea   string   `json:"focus_area"`
	Description string   `json:"intent_description"`
}

var intentFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// parseIntentReply pulls the intent JSON out of a model reply, tolerating
// code fences, surrounding prose and mildly malformed JSON.
func parseIntentReply(raw string) (intentPayload, error) {
	var payload intentPayload

	if m := intentFenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end == -1 || end < start {
			return payload, errors.New("no json payload in reply")
		}
		raw = raw[start : end+1]
	}

	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return payload, nil
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return payload, fmt.Errorf("invalid intent payload: %v", err)
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return payload, fmt.Errorf("invalid intent payload: %v", err)
	}
	return payload, nil
}
