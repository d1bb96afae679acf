package chunker

import (
	"regexp"
	"strings"
)

// Section is a contiguous span of paper text under one heading.
type Section struct {
	Name string // canonical lowercase name, "" for text before any heading
	Text string
}

// sectionAliases maps heading text to the canonical section names used in
// triple provenance. Keys are compared after lowercasing and stripping
// numbering, hashes and trailing punctuation.
var sectionAliases = map[string]string{
	"abstract":               "abstract",
	"summary":                "abstract",
	"introduction":           "introduction",
	"background":             "introduction",
	"methods":                "methods",
	"methodology":            "methods",
	"materials and methods":  "methods",
	"results":                "results",
	"findings":               "results",
	"results and discussion": "results",
	"discussion":             "discussion",
	"conclusion":             "conclusion",
	"conclusions":            "conclusion",
	"references":             "references",
	"bibliography":           "references",
	"acknowledgments":        "acknowledgments",
	"acknowledgements":       "acknowledgments",
}

// headingNumbering matches hierarchical prefixes such as "1.", "2.3" or
// "IV." at the start of a heading line.
var headingNumbering = regexp.MustCompile(`^(?:\d+(?:\.\d+)*\.?|[IVXLC]+\.)\s+`)

// SplitSections breaks raw paper text into heading-delimited sections so
// extracted triples can record where in the paper they came from. It works
// on raw text because cleaning collapses the newlines that carry the
// heading structure. Text with no recognizable headings comes back as a
// single unnamed section; blank input yields nil.
func SplitSections(text string) []Section {
	lines := strings.Split(text, "\n")

	var sections []Section
	current := Section{}
	var buf []string

	flush := func() {
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		if body != "" {
			current.Text = body
			sections = append(sections, current)
		}
		buf = buf[:0]
	}

	for _, line := range lines {
		if name, ok := sectionHeading(line); ok {
			flush()
			current = Section{Name: name}
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

// sectionHeading reports whether a line is a recognized paper section
// heading, returning the canonical name. Headings are short lines whose
// text, after stripping numbering and markdown hashes, matches a known
// section title ("ABSTRACT", "2. Methods", "## Results").
func sectionHeading(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > 60 {
		return "", false
	}

	trimmed = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	trimmed = headingNumbering.ReplaceAllString(trimmed, "")
	key := strings.ToLower(strings.TrimRight(trimmed, ":. "))

	name, ok := sectionAliases[key]
	return name, ok
}
