package graph

import "sort"

// Subgraph returns the neighbourhood of root within hops edges, following
// edges in both directions. Node order is sorted by ID; unresolved
// entries of kept nodes come along.
func (g *Graph) Subgraph(root string, hops int) *Graph {
	out := NewGraph()
	if g == nil {
		return out
	}
	if _, ok := g.Nodes[root]; !ok {
		return out
	}
	if hops < 0 {
		hops = 0
	}

	adj := make(map[string][]edgeHop)
	for _, e := range g.Edges {
		adj[e.From] = append(adj[e.From], edgeHop{to: e.To, edge: e})
		adj[e.To] = append(adj[e.To], edgeHop{to: e.From, edge: e})
	}

	visitedDepth := map[string]int{root: 0}
	queue := []queueItem{{id: root, depth: 0}}
	edgeSeen := make(map[Edge]bool)
	var edges []Edge

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= hops {
			continue
		}

		for _, next := range adj[cur.id] {
			if !edgeSeen[next.edge] {
				edgeSeen[next.edge] = true
				edges = append(edges, next.edge)
			}
			nextDepth := cur.depth + 1
			prevDepth, seen := visitedDepth[next.to]
			if !seen || nextDepth < prevDepth {
				visitedDepth[next.to] = nextDepth
				queue = append(queue, queueItem{id: next.to, depth: nextDepth})
			}
		}
	}

	for _, id := range sortedKeys(visitedDepth) {
		out.AddType(g.Nodes[id].Type)
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From == edges[j].From {
			if edges[i].To == edges[j].To {
				return string(edges[i].Kind) < string(edges[j].Kind)
			}
			return edges[i].To < edges[j].To
		}
		return edges[i].From < edges[j].From
	})
	for _, e := range edges {
		out.AddEdge(e)
	}
	for _, u := range g.Unresolved {
		if _, ok := visitedDepth[u.From]; ok {
			out.Unresolved = append(out.Unresolved, u)
		}
	}
	return out
}

type queueItem struct {
	id    string
	depth int
}

type edgeHop struct {
	to   string
	edge Edge
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
