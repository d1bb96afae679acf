package query

import "strings"

// Focus area names an intent can carry. Empty means no specific focus.
const (
	FocusPlants   = "plants"
	FocusBone     = "bone"
	FocusImmune   = "immune"
	FocusMuscle   = "muscle"
	FocusBacteria = "bacteria"
)

// focusArea pairs a focus name with its trigger keywords.
type focusArea struct {
	Name     string
	Keywords []string
}

// resolverFocusTable drives focus detection during fallback resolution:
// the first area with a keyword present in the lowercased question wins.
// These are question-side words (how people ask), distinct from the
// triple-side words in rankFocusTable.
var resolverFocusTable = []focusArea{
	{Name: FocusPlants, Keywords: []string{"plant", "plants", "arabidopsis", "flora"}},
	{Name: FocusBone, Keywords: []string{"bone", "bones", "skeleton", "skeletal"}},
	{Name: FocusImmune, Keywords: []string{"immune", "immunity", "immunological"}},
	{Name: FocusMuscle, Keywords: []string{"muscle", "muscles", "muscular"}},
	{Name: FocusBacteria, Keywords: []string{"bacteria", "bacterial", "microbial"}},
}

// rankFocusTable holds the triple-side keywords Rank matches against a
// triple's subject, object and predicate. A focus absent from this table
// applies no filter.
var rankFocusTable = map[string][]string{
	FocusPlants:   {"plant", "arabidopsis", "root", "leaf", "seed", "growth"},
	FocusBone:     {"bone", "skeleton", "skeletal", "osteo", "calcium"},
	FocusImmune:   {"immune", "immunity", "antibody", "lymph", "cytokine"},
	FocusMuscle:   {"muscle", "muscular", "fiber", "contraction", "atrophy"},
	FocusBacteria: {"bacteria", "bacterial", "microbial", "pathogen"},
}

// focusOf returns the first focus area triggered by the lowercased question,
// or empty when none applies.
func focusOf(lowerQuestion string) string {
	for _, area := range resolverFocusTable {
		for _, kw := range area.Keywords {
			if strings.Contains(lowerQuestion, kw) {
				return area.Name
			}
		}
	}
	return ""
}
