// Package graph is the whole-program view of type relations and
// constructor dependencies, used for checks and diagrams.
package graph

import "aotbridge/internal/catalog"

// Graph manages nodes and their relationships.
type Graph struct {
	Nodes      map[string]*Node
	Edges      []Edge
	Unresolved []Unresolved

	order []string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: []Edge{},
	}
}

// AddType adds a catalog type as a node.
func (g *Graph) AddType(t *catalog.TypeDescriptor) {
	if t == nil {
		return
	}
	if _, ok := g.Nodes[t.Name]; !ok {
		g.order = append(g.order, t.Name)
	}
	g.Nodes[t.Name] = &Node{Type: t}
}

// AddEdge adds e unless an identical edge exists. Edges to unknown nodes
// are dropped.
func (g *Graph) AddEdge(e Edge) {
	if _, ok := g.Nodes[e.From]; !ok {
		return
	}
	if _, ok := g.Nodes[e.To]; !ok {
		return
	}
	for _, x := range g.Edges {
		if x == e {
			return
		}
	}
	g.Edges = append(g.Edges, e)
}

// NodeIDs returns node IDs in insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// GetDependencies returns all nodes that the given node depends on.
func (g *Graph) GetDependencies(id string) []*Node {
	var deps []*Node
	for _, edge := range g.Edges {
		if edge.From == id {
			if node, ok := g.Nodes[edge.To]; ok {
				deps = append(deps, node)
			}
		}
	}
	return deps
}

// GetDependents returns all nodes that depend on the given node.
func (g *Graph) GetDependents(id string) []*Node {
	var deps []*Node
	for _, edge := range g.Edges {
		if edge.To == id {
			if node, ok := g.Nodes[edge.From]; ok {
				deps = append(deps, node)
			}
		}
	}
	return deps
}

// UnresolvedFor returns the problems recorded for one type.
func (g *Graph) UnresolvedFor(id string) []Unresolved {
	var out []Unresolved
	for _, u := range g.Unresolved {
		if u.From == id {
			out = append(out, u)
		}
	}
	return out
}
