package graph

import (
	"regexp"
	"strings"
)

// stopAffixRe strips generic leading articles and trailing qualifier words so
// "The Immune Response" and "immune" can meet in the alias index.
var stopAffixRe = regexp.MustCompile(`(^the |^a |^an | response$| activity$| level$)`)

// aliasSepRe removes hyphens, underscores and whitespace for the
// punctuation-free variant.
var aliasSepRe = regexp.MustCompile(`[-\s_]`)

// aliasForms derives the lookup variants for one canonical node name:
// the lowercase form, a stop-affix-stripped form, a separator-free form, and
// the space/hyphen interchanged forms.
func aliasForms(name string) []string {
	lower := strings.ToLower(name)
	forms := []string{lower}

	add := func(s string) {
		if s == "" {
			return
		}
		for _, f := range forms {
			if f == s {
				return
			}
		}
		forms = append(forms, s)
	}

	add(stopAffixRe.ReplaceAllString(lower, ""))
	add(aliasSepRe.ReplaceAllString(lower, ""))
	add(strings.ReplaceAll(lower, " ", "-"))
	add(strings.ReplaceAll(lower, "-", " "))

	return forms
}

// indexAliases registers every alias form of a canonical node name.
func (g *Graph) indexAliases(name string) {
	for _, form := range aliasForms(name) {
		names := g.aliases[form]
		dup := false
		for _, n := range names {
			if n == name {
				dup = true
				break
			}
		}
		if !dup {
			g.aliases[form] = append(names, name)
		}
	}
}

// Canonical resolves a free-text mention to the canonical node names it could
// refer to. The mention is lowercased and its alias forms are tried in
// derivation order; the first form with an index entry wins. Unresolvable
// mentions yield nil.
func (g *Graph) Canonical(mention string) []string {
	lower := strings.ToLower(strings.TrimSpace(mention))
	if lower == "" {
		return nil
	}
	for _, form := range aliasForms(lower) {
		if names, ok := g.aliases[form]; ok {
			out := make([]string, len(names))
			copy(out, names)
			return out
		}
	}
	return nil
}

// Mentioned scans free text for node mentions: a node counts as mentioned
// when any of its alias forms occurs as a substring of the lowercased text.
// Results follow node insertion order.
func (g *Graph) Mentioned(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}
	var found []string
	for _, name := range g.nodeOrder {
		for _, form := range aliasForms(name) {
			if strings.Contains(lower, form) {
				found = append(found, name)
				break
			}
		}
	}
	return found
}
