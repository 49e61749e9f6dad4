// Package discover finds the places in the consuming application that need
// bridge code: callback methods, interface replacements and worker types.
package discover

import (
	"fmt"
	"sort"

	"aotbridge/internal/bridge"
	"aotbridge/internal/catalog"
)

// Kind is the kind of bridge request.
type Kind string

const (
	KindCallback    Kind = "callback"
	KindReplacement Kind = "replacement"
	KindWorker      Kind = "worker"
)

// Request is one call site needing an adapter or a factory.
type Request struct {
	Kind   Kind
	Owner  *catalog.TypeDescriptor
	Method *catalog.Method // nil for workers

	// Replacement requests only.
	Interface       *catalog.TypeDescriptor
	InterfaceMethod *catalog.Method
}

func (r Request) String() string {
	if r.Method == nil {
		return fmt.Sprintf("%s %s", r.Kind, r.Owner.Name)
	}
	return fmt.Sprintf("%s %s.%s", r.Kind, r.Owner.Name, r.Method.Name)
}

// Result pairs a request with what it produced.
type Result struct {
	Request Request
	Handle  int // -1 for workers
	Factory *bridge.WorkerFactory
}

// Discover lists the requests of a linked catalog, ordered by source file
// and then by declaration.
func Discover(c *catalog.Catalog) ([]Request, error) {
	types := make([]*catalog.TypeDescriptor, len(c.Types()))
	copy(types, c.Types())
	sort.SliceStable(types, func(i, j int) bool {
		return types[i].Pos.File < types[j].Pos.File
	})

	var reqs []Request
	for _, t := range types {
		if t.IsInterface() {
			continue
		}
		for i := range t.Methods {
			m := &t.Methods[i]
			if !m.NativeCallback {
				continue
			}
			if !m.Public {
				return nil, fmt.Errorf("%s: callback %s.%s must be public", posOf(t, m), t.Name, m.Name)
			}
			reqs = append(reqs, Request{Kind: KindCallback, Owner: t, Method: m})
		}

		if t.Markers.ReplacesInterface != "" {
			rs, err := replacements(c, t)
			if err != nil {
				return nil, err
			}
			reqs = append(reqs, rs...)
		}

		if t.Markers.Worker {
			reqs = append(reqs, Request{Kind: KindWorker, Owner: t})
		}
	}
	return reqs, nil
}

// replacements registers the implementation of every method of the
// replaced interface, the interface's own methods first.
func replacements(c *catalog.Catalog, t *catalog.TypeDescriptor) ([]Request, error) {
	iface, ok := c.Lookup(t.Markers.ReplacesInterface)
	if !ok || !iface.IsInterface() {
		return nil, fmt.Errorf("%s: %s replaces %s, which is not a known interface", t.Pos, t.Name, t.Markers.ReplacesInterface)
	}
	implements := false
	for _, st := range c.Supertypes(t) {
		if st == iface {
			implements = true
			break
		}
	}
	if !implements {
		return nil, fmt.Errorf("%s: %s replaces %s but does not implement it", t.Pos, t.Name, iface.Name)
	}

	owners := []*catalog.TypeDescriptor{iface}
	for _, st := range c.Supertypes(iface) {
		if st.IsInterface() {
			owners = append(owners, st)
		}
	}

	var reqs []Request
	for _, it := range owners {
		for i := range it.Methods {
			im := &it.Methods[i]
			if im.Static {
				continue
			}
			impl, _, ok := c.Implementation(t, im)
			if !ok {
				return nil, fmt.Errorf("%s: %s has no public implementation of %s.%s", t.Pos, t.Name, it.Name, im.Name)
			}
			reqs = append(reqs, Request{
				Kind:            KindReplacement,
				Owner:           t,
				Method:          impl,
				Interface:       it,
				InterfaceMethod: im,
			})
		}
	}
	return reqs, nil
}

// Apply feeds the requests to the generator in order.
func Apply(g *bridge.Generator, reqs []Request) ([]Result, error) {
	results := make([]Result, 0, len(reqs))
	for _, r := range reqs {
		switch r.Kind {
		case KindWorker:
			f, err := g.EmitWorkerFactory(r.Owner)
			if err != nil {
				return nil, err
			}
			results = append(results, Result{Request: r, Handle: -1, Factory: f})
		default:
			h, err := register(g, r)
			if err != nil {
				return nil, err
			}
			results = append(results, Result{Request: r, Handle: h})
		}
	}
	return results, nil
}

func register(g *bridge.Generator, r Request) (int, error) {
	tmpl := r.Method.CallbackTemplate
	if tmpl == "" && r.InterfaceMethod != nil {
		tmpl = r.InterfaceMethod.CallbackTemplate
	}
	if tmpl == "" {
		return g.RegisterMethod(r.Owner, r.Method)
	}
	st, err := bridge.ParseTemplate(tmpl)
	if err != nil {
		return -1, fmt.Errorf("%s: %s: %w", posOf(r.Owner, r.Method), r, err)
	}
	return g.RegisterAdapter(st, r.Owner, r.Method)
}

func posOf(t *catalog.TypeDescriptor, m *catalog.Method) string {
	if m != nil && m.Pos.IsValid() {
		return m.Pos.String()
	}
	return t.Pos.String()
}
