package graph

// exportExcerptLen caps the source-text excerpt carried per provenance
// record in an export.
const exportExcerptLen = 100

// ExportNode is one node in the renderer-agnostic export.
type ExportNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ExportEdge is one directed relation in the export.
type ExportEdge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Predicate string `json:"predicate"`
}

// ProvenanceRecord is the per-triple evidence attached to an exported edge.
type ProvenanceRecord struct {
	PaperID        string  `json:"paper_id"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Confidence     float64 `json:"confidence"`
	SourceText     string  `json:"source_text"`
	ExtractionDate string  `json:"extraction_date"`
}

// Export is a plain node/edge/metadata structure for external renderers.
// Metadata is keyed "subject_predicate_object" and lists one record per
// contributing triple.
type Export struct {
	Nodes    []ExportNode                  `json:"nodes"`
	Edges    []ExportEdge                  `json:"edges"`
	Metadata map[string][]ProvenanceRecord `json:"metadata"`
}

// Export serializes the graph. Node and edge order follow insertion order so
// repeated exports of the same graph are identical.
func (g *Graph) Export() *Export {
	ex := &Export{
		Nodes:    make([]ExportNode, 0, len(g.nodeOrder)),
		Edges:    make([]ExportEdge, 0, len(g.edgeOrder)),
		Metadata: make(map[string][]ProvenanceRecord),
	}

	for _, name := range g.nodeOrder {
		ex.Nodes = append(ex.Nodes, ExportNode{ID: name, Type: g.nodes[name]})
	}

	for _, key := range g.edgeOrder {
		for _, rel := range g.edges[key] {
			ex.Edges = append(ex.Edges, ExportEdge{
				Source:    key.source,
				Target:    key.target,
				Predicate: rel.Predicate,
			})

			metaKey := key.source + "_" + rel.Predicate + "_" + key.target
			for _, t := range rel.Provenance {
				ex.Metadata[metaKey] = append(ex.Metadata[metaKey], ProvenanceRecord{
					PaperID:        t.PaperID,
					Title:          t.Title,
					URL:            t.URL,
					Confidence:     t.Confidence,
					SourceText:     exportExcerpt(t.SourceText),
					ExtractionDate: t.ExtractionDate,
				})
			}
		}
	}

	return ex
}

// exportExcerpt truncates source text for display, rune-safe.
func exportExcerpt(text string) string {
	r := []rune(text)
	if len(r) <= exportExcerptLen {
		return text
	}
	return string(r[:exportExcerptLen]) + "..."
}

// NodeTypeColors maps each node type to the display color renderers use.
var NodeTypeColors = map[string]string{
	TypeSpecies:     "#FF6B6B",
	TypeCondition:   "#4ECDC4",
	TypeMeasurement: "#45B7D1",
	TypeLocation:    "#96CEB4",
	TypeSubstance:   "#FFEAA7",
	TypeProcess:     "#DDA0DD",
	TypeDisease:     "#FF7675",
	TypeTechnology:  "#74B9FF",
	TypeUnknown:     "#DCDDE1",
}

// EdgeColor bands an edge by confidence: green at 0.9 and above, yellow at
// 0.7 and above, orange below.
func EdgeColor(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "#00FF00"
	case confidence >= 0.7:
		return "#FFFF00"
	default:
		return "#FF6600"
	}
}

// NodeSize scales a node's display size with its degree, clamped to [10, 50].
func NodeSize(degree int) int {
	size := degree * 3
	if size < 10 {
		size = 10
	}
	if size > 50 {
		size = 50
	}
	return size
}
