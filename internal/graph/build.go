package graph

import (
	"errors"

	"aotbridge/internal/catalog"
	"aotbridge/internal/diag"
	"aotbridge/internal/resolver"
)

// Build records every catalog type, its inheritance edges and, for each
// concrete class, the construction edges of its selected constructor.
// Resolution failures are collected rather than returned.
func Build(c *catalog.Catalog, cr *resolver.ConstructorResolver) *Graph {
	g := NewGraph()
	for _, t := range c.Types() {
		g.AddType(t)
	}

	for _, t := range c.Types() {
		if t.Base != "" {
			g.AddEdge(Edge{From: t.Name, To: t.Base, Kind: RelationInherits})
		}
		for _, i := range t.Interfaces {
			g.AddEdge(Edge{From: t.Name, To: i, Kind: RelationImplements})
		}
	}

	for _, t := range c.Classes() {
		ctor, err := cr.SelectConstructor(t)
		if err != nil {
			g.unresolved(t, "", "", err)
			continue
		}
		for i, p := range ctor.Parameters {
			dep, err := cr.ResolveParameter(t, ctor, i, p)
			if err != nil {
				g.unresolved(t, p.Type.String(), p.Name, err)
				continue
			}
			switch dep.Kind {
			case resolver.DependencySingle:
				g.AddEdge(Edge{From: t.Name, To: dep.Type.Name, Kind: RelationDepends, Parameter: p.Name})
			case resolver.DependencyArray:
				for _, e := range dep.Elements {
					g.AddEdge(Edge{From: t.Name, To: e.Name, Kind: RelationArray, Parameter: p.Name})
				}
			case resolver.DependencyConfig:
				g.AddEdge(Edge{From: t.Name, To: p.Type.Name, Kind: RelationConfig, Parameter: p.Name})
			}
		}
	}

	g.findCycles()
	return g
}

func (g *Graph) unresolved(t *catalog.TypeDescriptor, target, param string, err error) {
	u := Unresolved{From: t.Name, Target: target, Parameter: param, Message: err.Error(), Pos: t.Pos}
	switch {
	case errors.Is(err, diag.ErrAmbiguousDependency):
		u.Reason = ReasonAmbiguous
	case errors.Is(err, diag.ErrNoPublicConstructor):
		u.Reason = ReasonNoConstructor
	case errors.Is(err, diag.ErrCyclicDependency):
		u.Reason = ReasonCyclic
	default:
		u.Reason = ReasonNoCandidate
	}
	if de, ok := diag.As(err); ok && de.Pos.IsValid() {
		u.Pos = de.Pos
	}
	g.Unresolved = append(g.Unresolved, u)
}

// findCycles records one cyclic entry per back edge over construction
// edges, visiting nodes in insertion order.
func (g *Graph) findCycles() {
	adj := make(map[string][]Edge)
	for _, e := range g.Edges {
		if e.Kind.constructs() {
			adj[e.From] = append(adj[e.From], e)
		}
	}

	const (
		unseen = iota
		inProgress
		done
	)
	state := make(map[string]int)
	var visit func(id string)
	visit = func(id string) {
		state[id] = inProgress
		for _, e := range adj[id] {
			switch state[e.To] {
			case inProgress:
				t := g.Nodes[e.To].Type
				g.unresolved(g.Nodes[e.From].Type, e.To, e.Parameter, diag.Cyclic(t.Pos, t.Name))
			case unseen:
				visit(e.To)
			}
		}
		state[id] = done
	}
	for _, id := range g.order {
		if state[id] == unseen {
			visit(id)
		}
	}
}
