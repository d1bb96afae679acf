package graph

import "strings"

// Node type constants assigned during graph construction.
const (
	TypeSpecies     = "species"
	TypeCondition   = "condition"
	TypeMeasurement = "measurement"
	TypeLocation    = "location"
	TypeSubstance   = "substance"
	TypeProcess     = "process"
	TypeDisease     = "disease"
	TypeTechnology  = "technology"
	TypeUnknown     = "unknown"
)

// nodeTypePattern pairs a category with its trigger keywords.
type nodeTypePattern struct {
	Category string
	Keywords []string
}

// nodeTypeTable drives node classification. Categories are checked in this
// fixed order and the first keyword hit wins, so a name matching both
// "cell" (species) and "bone" (location) classifies as species.
var nodeTypeTable = []nodeTypePattern{
	{Category: TypeSpecies, Keywords: []string{
		"mice", "mouse", "rat", "human", "astronaut", "arabidopsis",
		"drosophila", "cell", "bacteria", "virus", "organism", "species",
		"klebsiella", "enterobacteriales", "lactobacillus", "bacillus",
		"microbe", "microorganism", "pathogen",
	}},
	{Category: TypeCondition, Keywords: []string{
		"microgravity", "weightless", "space", "radiation", "cosmic",
		"hypergravity", "centrifuge", "simulated", "flight", "mission",
		"unloading", "loading", "stress", "environment", "exposure",
	}},
	{Category: TypeMeasurement, Keywords: []string{
		"density", "expression", "level", "rate", "activity", "function",
		"response", "change", "adaptation", "growth", "development",
		"concentration", "volume", "mass", "weight", "size", "count",
	}},
	{Category: TypeLocation, Keywords: []string{
		"bone", "muscle", "heart", "brain", "liver", "kidney", "lung",
		"blood", "tissue", "organ", "cell", "membrane", "nucleus",
		"gastrointestinal", "tract", "nasopharynx", "skeleton",
	}},
	{Category: TypeSubstance, Keywords: []string{
		"protein", "gene", "dna", "rna", "hormone", "enzyme", "chemical",
		"molecule", "compound", "drug", "antibiotic", "calcium", "oxygen",
		"glucose", "insulin", "collagen", "cytokine",
	}},
	{Category: TypeProcess, Keywords: []string{
		"metabolism", "synthesis", "degradation", "signaling", "transport",
		"regulation", "transcription", "translation", "replication",
		"differentiation", "proliferation", "apoptosis", "inflammation",
	}},
	{Category: TypeDisease, Keywords: []string{
		"disease", "pathology", "infection", "cancer", "tumor", "syndrome",
		"disorder", "dysfunction", "injury", "damage", "toxicity",
		"resistance", "virulence",
	}},
	{Category: TypeTechnology, Keywords: []string{
		"system", "device", "equipment", "platform", "instrument",
		"sensor", "monitor", "station", "satellite", "spacecraft",
	}},
}

// ClassifyNodeType assigns a node one of the fixed categories by substring
// match against its lowercased name, in table priority order. Unmatched
// names are unknown.
func ClassifyNodeType(name string) string {
	lower := strings.ToLower(name)
	for _, p := range nodeTypeTable {
		for _, kw := range p.Keywords {
			if strings.Contains(lower, kw) {
				return p.Category
			}
		}
	}
	return TypeUnknown
}
