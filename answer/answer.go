// Package answer renders ranked knowledge-graph findings into answer text.
// The deterministic Lister is the baseline every other formatter degrades
// to; Generative wraps an LLM around the same inputs.
package answer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/query"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// Formatter renders the answer for a resolved question from its ranked
// supporting triples.
type Formatter interface {
	Format(ctx context.Context, question string, intent query.Intent, ranked []store.Triple) (string, error)
}

// listLimit is how many findings the Lister spells out.
const listLimit = 5

// noFindingsMessage is returned whenever there is nothing to cite.
const noFindingsMessage = "I couldn't find specific information to answer your question in the current knowledge base."

// titleExcerptLen bounds the source title shown per finding.
const titleExcerptLen = 50

// Lister formats findings as a numbered list with confidence and source
// attribution. It is deterministic and never fails.
type Lister struct{}

// Format renders up to five findings, followed by a count of the rest.
func (Lister) Format(_ context.Context, _ string, _ query.Intent, ranked []store.Triple) (string, error) {
	if len(ranked) == 0 {
		return noFindingsMessage, nil
	}

	var b strings.Builder
	b.WriteString("Based on the research data, here are the relevant findings:\n\n")

	limit := listLimit
	if len(ranked) < limit {
		limit = len(ranked)
	}
	for i, t := range ranked[:limit] {
		fmt.Fprintf(&b, "%d. %s %s %s\n", i+1, t.Subject, t.Predicate, t.Object)
		fmt.Fprintf(&b, "   (Confidence: %s, Source: %s...)\n\n",
			formatConfidence(t.Confidence), titleExcerpt(t.Title))
	}
	if len(ranked) > listLimit {
		fmt.Fprintf(&b, "... and %d more related findings.", len(ranked)-listLimit)
	}
	return b.String(), nil
}

// formatConfidence renders a confidence without trailing zeros, so 0.7 stays
// "0.7" rather than "0.70".
func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'g', -1, 64)
}

// titleExcerpt bounds a title at 50 runes. The caller appends the ellipsis.
func titleExcerpt(title string) string {
	r := []rune(title)
	if len(r) <= titleExcerptLen {
		return title
	}
	return string(r[:titleExcerptLen])
}
