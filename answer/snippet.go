package answer

import (
	"strings"
	"unicode"
)

// evidenceMaxLen is the approximate character bound for an evidence snippet.
const evidenceMaxLen = 300

// bestEvidence picks the sentence of a triple's source text that best
// overlaps the question's significant words, joined with its strongest
// adjacent sentence when both fit the bound. Returns empty when nothing
// overlaps, so the entry carries no evidence field.
func bestEvidence(sourceText string, questionWords map[string]bool) string {
	if len(questionWords) == 0 || sourceText == "" {
		return ""
	}

	sentences := splitSentences(sourceText)
	if len(sentences) == 0 {
		return ""
	}

	scores := make([]int, len(sentences))
	for i, s := range sentences {
		for w := range significantWords(s) {
			if questionWords[w] {
				scores[i]++
			}
		}
	}

	best := 0
	for i, sc := range scores {
		if sc > scores[best] {
			best = i
		}
	}
	if scores[best] == 0 {
		return ""
	}

	result := sentences[best]
	if len(result) >= evidenceMaxLen || len(sentences) < 2 {
		return result
	}

	// Join the stronger neighbor when it still scores and fits.
	adj := -1
	for _, delta := range []int{1, -1} {
		i := best + delta
		if i >= 0 && i < len(sentences) && scores[i] > 0 && (adj == -1 || scores[i] > scores[adj]) {
			adj = i
		}
	}
	if adj >= 0 {
		joined := result + " " + sentences[adj]
		if adj < best {
			joined = sentences[adj] + " " + result
		}
		if len(joined) <= evidenceMaxLen {
			result = joined
		}
	}
	return result
}

// significantWords returns the lowercased words of at least 4 characters,
// minus common stop words.
func significantWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) >= 4 && !stopWords[w] {
			words[w] = true
		}
	}
	return words
}

// splitSentences breaks text at sentence punctuation followed by whitespace
// or end of input.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				if s := strings.TrimSpace(cur.String()); s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// stopWords are common English words excluded from overlap scoring.
var stopWords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true,
	"have": true, "been": true, "were": true, "they": true,
	"their": true, "will": true, "would": true, "could": true,
	"should": true, "about": true, "which": true, "there": true,
	"these": true, "those": true, "then": true, "than": true,
	"them": true, "what": true, "when": true, "where": true,
	"your": true, "more": true, "some": true, "such": true,
	"only": true, "also": true, "very": true, "just": true,
	"into": true, "over": true, "each": true, "does": true,
	"most": true, "after": true, "before": true, "other": true,
	"being": true, "same": true, "both": true, "between": true,
}
