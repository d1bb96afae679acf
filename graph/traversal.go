package graph

// maxPathResults caps how many paths a single query returns.
const maxPathResults = 10

// Paths enumerates simple directed paths from one entity to another, each
// with at most maxLen edges and no repeated node, truncated to the first 10
// found. Endpoints are normalized before lookup. An absent endpoint or an
// unreachable target yields an empty result, never an error.
func (g *Graph) Paths(from, to string, maxLen int) [][]string {
	start := NormalizeEntity(from)
	end := NormalizeEntity(to)

	if _, ok := g.nodes[start]; !ok {
		return nil
	}
	if _, ok := g.nodes[end]; !ok {
		return nil
	}

	var paths [][]string
	path := []string{start}
	visited := map[string]bool{start: true}

	// DFS over outgoing pairs. Returns true once the result cap is hit so
	// the whole search can unwind early.
	var walk func(node string) bool
	walk = func(node string) bool {
		if node == end {
			cp := make([]string, len(path))
			copy(cp, path)
			paths = append(paths, cp)
			return len(paths) >= maxPathResults
		}
		if len(path)-1 >= maxLen {
			return false
		}
		for _, next := range g.out[node] {
			if visited[next] {
				continue
			}
			visited[next] = true
			path = append(path, next)
			done := walk(next)
			path = path[:len(path)-1]
			visited[next] = false
			if done {
				return true
			}
		}
		return false
	}
	walk(start)

	return paths
}
