package extractor

import (
	"strings"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// fallbackConfidence is the fixed score for rule-derived triples.
const fallbackConfidence = 0.7

// Rule is one keyword co-occurrence pattern. A rule fires when every group
// matches; a group matches when any of its keywords occurs in the lowercased
// chunk text.
type Rule struct {
	Groups     [][]string
	Subject    string
	Predicate  string
	Object     string
	Confidence float64
}

// Rules is the fixed fallback table, checked in order. It is a low-recall,
// zero-cost safety net: the pipeline keeps producing triples with zero
// network access.
var Rules = []Rule{
	{Groups: [][]string{{"microgravity"}, {"bone"}},
		Subject: "Microgravity", Predicate: "affects", Object: "Bone Density", Confidence: fallbackConfidence},
	{Groups: [][]string{{"microgravity"}, {"plant", "arabidopsis"}},
		Subject: "Plants", Predicate: "grown_in", Object: "Microgravity", Confidence: fallbackConfidence},
	{Groups: [][]string{{"radiation"}, {"immune"}},
		Subject: "Radiation", Predicate: "affects", Object: "Immune System", Confidence: fallbackConfidence},
	{Groups: [][]string{{"microgravity"}, {"muscle"}},
		Subject: "Microgravity", Predicate: "causes", Object: "Muscle Atrophy", Confidence: fallbackConfidence},
}

// Fallback scans chunk text with the keyword rules and returns one triple per
// matching rule, each tagged as fallback-extracted. No match yields an empty
// result, never an error.
func Fallback(text string) []store.Triple {
	lower := strings.ToLower(text)

	var out []store.Triple
	for _, r := range Rules {
		if !r.matches(lower) {
			continue
		}
		out = append(out, store.Triple{
			Subject:          r.Subject,
			Predicate:        r.Predicate,
			Object:           r.Object,
			Confidence:       r.Confidence,
			ExtractionMethod: store.MethodFallback,
		})
	}
	return out
}

func (r Rule) matches(lower string) bool {
	for _, group := range r.Groups {
		hit := false
		for _, kw := range group {
			if strings.Contains(lower, kw) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
