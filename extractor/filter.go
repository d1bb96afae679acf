package extractor

import "github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"

// DefaultMinConfidence is the filter threshold applied when the caller does
// not set one.
const DefaultMinConfidence = 0.6

// Filter drops triples below minConfidence, then deduplicates on the
// lowercased, trimmed (subject, predicate, object) key. The first occurrence
// of a key wins and input order is preserved, so a later duplicate with a
// higher confidence is discarded. Callers that want the best-scored variant
// must sort before filtering.
func Filter(triples []store.Triple, minConfidence float64) []store.Triple {
	seen := make(map[string]struct{}, len(triples))
	out := make([]store.Triple, 0, len(triples))

	for _, t := range triples {
		if t.Confidence < minConfidence {
			continue
		}
		key := t.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
