// Package resolver decides, at build time, which concrete class satisfies
// each constructor parameter of the consuming application.
package resolver

import "aotbridge/internal/catalog"

// InterfaceResolver indexes every abstract type (interface or abstract
// base class) by the concrete classes that satisfy it.
type InterfaceResolver struct {
	catalog *catalog.Catalog
	index   map[string][]*catalog.TypeDescriptor
	known   map[*catalog.TypeDescriptor]bool
}

// NewInterfaceResolver creates an empty index over a linked catalog.
func NewInterfaceResolver(c *catalog.Catalog) *InterfaceResolver {
	return &InterfaceResolver{
		catalog: c,
		index:   make(map[string][]*catalog.TypeDescriptor),
		known:   make(map[*catalog.TypeDescriptor]bool),
	}
}

// NewInterfaceResolverForCatalog indexes all concrete classes of c.
func NewInterfaceResolverForCatalog(c *catalog.Catalog) *InterfaceResolver {
	r := NewInterfaceResolver(c)
	r.AddKnownClasses(c.Classes())
	return r
}

// AddKnownClasses indexes each concrete class under itself, every
// interface it satisfies (directly, through ancestors, or through interface
// inheritance) and every transitively reachable abstract base. Abstract
// types and classes already known are ignored.
func (r *InterfaceResolver) AddKnownClasses(classes []*catalog.TypeDescriptor) {
	for _, cl := range classes {
		if cl == nil || !cl.IsConcrete() || r.known[cl] {
			continue
		}
		r.known[cl] = true
		r.index[cl.Name] = append(r.index[cl.Name], cl)
		for _, st := range r.catalog.Supertypes(cl) {
			if st.IsConcrete() {
				continue
			}
			r.index[st.Name] = append(r.index[st.Name], cl)
		}
	}
}

// FindClasses returns the concrete classes compatible with target in
// insertion order. The returned slice must not be modified.
func (r *InterfaceResolver) FindClasses(target string) []*catalog.TypeDescriptor {
	return r.index[target]
}
