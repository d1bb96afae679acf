package graph

import (
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// Relation is one predicate between a node pair, with the provenance of every
// triple that contributed it. Parallel predicates between the same pair are
// distinct relations; a repeat of the same (subject, predicate, object)
// appends provenance instead of creating a duplicate.
type Relation struct {
	Predicate  string
	Provenance []store.Triple
}

// edgeKey identifies a directed node pair.
type edgeKey struct {
	source string
	target string
}

// Graph is a directed multigraph over normalized entity names. Nodes carry a
// cached type classification; an alias index maps surface variants of node
// names back to their canonical form. Build once, then read freely: the graph
// is not safe for concurrent mutation.
type Graph struct {
	nodes     map[string]string     // canonical name -> node type
	nodeOrder []string              // insertion order, for stable iteration
	edges     map[edgeKey][]Relation
	edgeOrder []edgeKey
	out       map[string][]string // adjacency, one entry per node pair
	in        map[string][]string
	aliases   map[string][]string // alias form -> canonical names
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]string),
		edges:   make(map[edgeKey][]Relation),
		out:     make(map[string][]string),
		in:      make(map[string][]string),
		aliases: make(map[string][]string),
	}
}

// Build constructs a graph from a triple corpus. Building twice from the same
// input yields the same node set, edge set and type assignments.
func Build(triples []store.Triple) *Graph {
	start := time.Now()
	g := NewGraph()
	for _, t := range triples {
		g.Add(t)
	}
	slog.Info("building knowledge graph",
		"triples", len(triples),
		"nodes", g.NumNodes(),
		"edges", g.NumEdges(),
		"duration", time.Since(start).Round(time.Millisecond))
	return g
}

// Add inserts one triple. The subject and object are normalized to title
// case, the predicate to lowercase with spaces as underscores. Triples with
// an empty subject, predicate or object after trimming are skipped.
func (g *Graph) Add(t store.Triple) {
	subject := NormalizeEntity(t.Subject)
	object := NormalizeEntity(t.Object)
	predicate := NormalizePredicate(t.Predicate)
	if subject == "" || object == "" || predicate == "" {
		return
	}

	g.addNode(subject)
	g.addNode(object)

	key := edgeKey{source: subject, target: object}
	rels, seen := g.edges[key]
	if !seen {
		g.edgeOrder = append(g.edgeOrder, key)
		g.out[subject] = append(g.out[subject], object)
		g.in[object] = append(g.in[object], subject)
	}

	for i := range rels {
		if rels[i].Predicate == predicate {
			rels[i].Provenance = append(rels[i].Provenance, t)
			return
		}
	}
	g.edges[key] = append(rels, Relation{Predicate: predicate, Provenance: []store.Triple{t}})
}

// addNode registers a node, classifying its type and indexing its aliases
// exactly once.
func (g *Graph) addNode(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = ClassifyNodeType(name)
	g.nodeOrder = append(g.nodeOrder, name)
	g.indexAliases(name)
}

// NormalizeEntity trims a free-text entity name and title-cases it: the
// first letter of every word upper, the rest lower.
func NormalizeEntity(s string) string {
	return titleCase(strings.TrimSpace(s))
}

// NormalizePredicate trims and lowercases a predicate, replacing spaces with
// underscores.
func NormalizePredicate(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// titleCase uppercases the first letter of every run of letters and
// lowercases the rest. Digits and punctuation end a run, so "t-cell response"
// becomes "T-Cell Response".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			inWord = true
		} else {
			b.WriteRune(r)
			inWord = false
		}
	}
	return b.String()
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the count of distinct (source, target, predicate)
// relations.
func (g *Graph) NumEdges() int {
	n := 0
	for _, rels := range g.edges {
		n += len(rels)
	}
	return n
}

// HasNode reports whether the normalized form of name is a node.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[NormalizeEntity(name)]
	return ok
}

// Nodes returns the canonical node names in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodeOrder))
	copy(out, g.nodeOrder)
	return out
}

// NodeType returns the cached classification for a node, or unknown for
// absent nodes.
func (g *Graph) NodeType(name string) string {
	if t, ok := g.nodes[NormalizeEntity(name)]; ok {
		return t
	}
	return TypeUnknown
}

// Relations returns the parallel relations from source to target, nil when
// the pair has no edge.
func (g *Graph) Relations(source, target string) []Relation {
	return g.edges[edgeKey{source: NormalizeEntity(source), target: NormalizeEntity(target)}]
}

// Degree returns in-degree plus out-degree, counting each predicate between a
// node pair separately. Unknown nodes have degree 0.
func (g *Graph) Degree(name string) int {
	node := NormalizeEntity(name)
	d := 0
	for _, tgt := range g.out[node] {
		d += len(g.edges[edgeKey{source: node, target: tgt}])
	}
	for _, src := range g.in[node] {
		d += len(g.edges[edgeKey{source: src, target: node}])
	}
	return d
}
