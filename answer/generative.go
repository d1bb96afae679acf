package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/llm"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/query"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

const (
	generateTemperature = 0.3
	generateMaxTokens   = 800
	// contextLimit is how many ranked triples the model sees as evidence.
	contextLimit = 10
	// generateTimeout bounds the answer call; past it the list format
	// stands in, same as any other generation failure.
	generateTimeout = 60 * time.Second
)

// Generative asks an LLM to write a conversational answer grounded in the
// ranked findings. Whenever the model is missing, fails or replies with
// nothing usable, the Lister's output stands in, so Format always returns a
// sensible answer.
type Generative struct {
	provider llm.Provider
	model    string
	lister   Lister
}

// NewGenerative creates a generative formatter. A nil provider makes it
// behave exactly like the Lister.
func NewGenerative(provider llm.Provider, model string) *Generative {
	return &Generative{provider: provider, model: model}
}

// Format renders the answer, preferring the LLM.
func (g *Generative) Format(ctx context.Context, question string, intent query.Intent, ranked []store.Triple) (string, error) {
	if g.provider == nil || len(ranked) == 0 {
		return g.lister.Format(ctx, question, intent, ranked)
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	resp, err := g.provider.Generate(genCtx, llm.GenerateRequest{
		Model:       g.model,
		Prompt:      answerPrompt(question, intent, ranked),
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		slog.Warn("answer: llm generation failed, using list fallback", "error", err)
		return g.lister.Format(ctx, question, intent, ranked)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		slog.Warn("answer: llm returned empty reply, using list fallback")
		return g.lister.Format(ctx, question, intent, ranked)
	}
	return text, nil
}

// contextEntry is one finding as presented to the model.
type contextEntry struct {
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
	Source       string  `json:"source"`
	// Evidence is the sentence of the triple's source text that best
	// overlaps the question, when one scores.
	Evidence string `json:"evidence,omitempty"`
}

func answerPrompt(question string, intent query.Intent, ranked []store.Triple) string {
	limit := contextLimit
	if len(ranked) < limit {
		limit = len(ranked)
	}

	questionWords := significantWords(question)
	entries := make([]contextEntry, 0, limit)
	for _, t := range ranked[:limit] {
		entries = append(entries, contextEntry{
			Relationship: t.Subject + " " + t.Predicate + " " + t.Object,
			Confidence:   t.Confidence,
			Source:       titleExcerpt(t.Title) + "...",
			Evidence:     bestEvidence(t.SourceText, questionWords),
		})
	}
	blob, _ := json.MarshalIndent(entries, "", "  ")

	description := intent.Description
	if description == "" {
		description = "General inquiry"
	}
	focus := intent.Focus
	if focus == "" {
		focus = "General"
	}

	return fmt.Sprintf(`You are a space biology research expert. A user asked: "%s"

Based on the following knowledge relationships extracted from research papers, provide a comprehensive and natural answer:

Knowledge Relationships:
%s

Query Intent: %s
Focus Area: %s

Please provide a natural, informative answer that:
1. Directly addresses the user's question
2. Uses the provided relationships as evidence
3. Is written in a conversational, accessible tone
4. Mentions specific research findings when relevant
5. If the focus area is specific (like plants), make sure to address that specifically

If the available data doesn't directly answer the question, acknowledge this and provide the best available related information.`,
		question, blob, description, focus)
}
