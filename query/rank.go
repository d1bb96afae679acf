package query

import (
	"sort"
	"strings"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// Rank filters a triple corpus down to the triples relevant to an intent and
// orders them by confidence, best first. A triple is relevant when one of the
// intent's entities occurs in its subject or object, case-insensitive. If the
// intent carries a focus area with known keywords, a keyword must also occur
// in the subject, object or predicate. An intent without entities matches
// nothing; a focus the ranking table does not know applies no filter. Equal
// confidences keep corpus order.
func Rank(triples []store.Triple, intent Intent) []store.Triple {
	keywords := rankFocusTable[intent.Focus]

	var matched []store.Triple
	for _, t := range triples {
		subject := strings.ToLower(t.Subject)
		object := strings.ToLower(t.Object)

		if !containsEntity(intent.Entities, subject, object) {
			continue
		}
		if len(keywords) > 0 {
			predicate := strings.ToLower(t.Predicate)
			if !containsKeyword(keywords, subject, object, predicate) {
				continue
			}
		}
		matched = append(matched, t)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Confidence > matched[j].Confidence
	})
	return matched
}

func containsEntity(entities []string, subject, object string) bool {
	for _, e := range entities {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if strings.Contains(subject, e) || strings.Contains(object, e) {
			return true
		}
	}
	return false
}

func containsKeyword(keywords []string, subject, object, predicate string) bool {
	for _, kw := range keywords {
		if strings.Contains(subject, kw) || strings.Contains(object, kw) || strings.Contains(predicate, kw) {
			return true
		}
	}
	return false
}
