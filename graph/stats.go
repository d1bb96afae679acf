package graph

import (
	"math"
	"sort"
)

// topConnected is how many of the highest-degree nodes Statistics reports.
const topConnected = 10

// NodeDegree pairs a node with its total degree.
type NodeDegree struct {
	Node   string `json:"node"`
	Degree int    `json:"degree"`
}

// Stats summarizes graph shape for dashboards and the CLI.
type Stats struct {
	TotalNodes    int            `json:"total_nodes"`
	TotalEdges    int            `json:"total_edges"`
	NodeTypes     map[string]int `json:"node_types"`
	MostConnected []NodeDegree   `json:"most_connected_nodes"`
	AverageDegree float64        `json:"average_degree"`
	Density       float64        `json:"density"`
}

// Statistics computes node, edge and degree metrics. Density is
// edges/(nodes*(nodes-1)) for a directed graph, 0 below two nodes, rounded
// to four decimals. The most-connected list holds the top ten nodes by total
// degree, ties kept in node insertion order.
func (g *Graph) Statistics() Stats {
	s := Stats{
		TotalNodes: g.NumNodes(),
		TotalEdges: g.NumEdges(),
		NodeTypes:  make(map[string]int, len(nodeTypeTable)+1),
	}

	degrees := make([]NodeDegree, 0, len(g.nodeOrder))
	degreeSum := 0
	for _, name := range g.nodeOrder {
		s.NodeTypes[g.nodes[name]]++
		d := g.Degree(name)
		degreeSum += d
		degrees = append(degrees, NodeDegree{Node: name, Degree: d})
	}

	if s.TotalNodes > 0 {
		s.AverageDegree = float64(degreeSum) / float64(s.TotalNodes)
	}
	if s.TotalNodes >= 2 {
		d := float64(s.TotalEdges) / float64(s.TotalNodes*(s.TotalNodes-1))
		s.Density = math.Round(d*10000) / 10000
	}

	sort.SliceStable(degrees, func(i, j int) bool {
		return degrees[i].Degree > degrees[j].Degree
	})
	if len(degrees) > topConnected {
		degrees = degrees[:topConnected]
	}
	s.MostConnected = degrees

	return s
}
