// Package catalog holds the declared types of one compilation pass.
//
// A Catalog is built once (Add / AddUnit / ParseManifest), then Link
// resolves every written type name to a qualified catalog name where
// possible. After Link the catalog is read-only.
package catalog

import (
	"fmt"
	"strings"
)

// Catalog is the set of declared types plus their marker flags.
type Catalog struct {
	types    []*TypeDescriptor
	byName   map[string]*TypeDescriptor
	bySimple map[string][]*TypeDescriptor
	linked   bool
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		byName:   make(map[string]*TypeDescriptor),
		bySimple: make(map[string][]*TypeDescriptor),
	}
}

// Add registers a type. A second declaration with the same qualified name
// is merged into the first, as partial declarations are.
func (c *Catalog) Add(t *TypeDescriptor) error {
	if c.linked {
		return fmt.Errorf("catalog is linked and cannot accept %s", t.Name)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("type without a name at %s", t.Pos)
	}
	if t.Kind != KindClass && t.Kind != KindInterface {
		return fmt.Errorf("type %s has unknown kind %q", t.Name, t.Kind)
	}
	if prev, ok := c.byName[t.Name]; ok {
		if prev.Kind != t.Kind {
			return fmt.Errorf("type %s declared both as %s and %s", t.Name, prev.Kind, t.Kind)
		}
		mergeInto(prev, t)
		return nil
	}
	if t.Namespace == "" {
		if i := strings.LastIndex(t.Name, "."); i >= 0 {
			t.Namespace = t.Name[:i]
		}
	}
	c.types = append(c.types, t)
	c.byName[t.Name] = t
	simple := t.SimpleName()
	c.bySimple[simple] = append(c.bySimple[simple], t)
	return nil
}

func mergeInto(dst, src *TypeDescriptor) {
	dst.Abstract = dst.Abstract || src.Abstract
	dst.Bases = appendUnique(dst.Bases, src.Bases...)
	dst.Usings = appendUnique(dst.Usings, src.Usings...)
	dst.Properties = append(dst.Properties, src.Properties...)
	dst.Constructors = append(dst.Constructors, src.Constructors...)
	dst.Methods = append(dst.Methods, src.Methods...)
	if src.Markers.ReplacesInterface != "" {
		dst.Markers.ReplacesInterface = src.Markers.ReplacesInterface
	}
	dst.Markers.ConfigurationRoot = dst.Markers.ConfigurationRoot || src.Markers.ConfigurationRoot
	dst.Markers.Worker = dst.Markers.Worker || src.Markers.Worker
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// Link resolves base lists and every signature type reference against the
// catalog. Names that do not denote a catalog type are left as written.
func (c *Catalog) Link() {
	if c.linked {
		return
	}
	for _, t := range c.types {
		t.Base = ""
		t.Interfaces = nil
		for _, b := range t.Bases {
			ref, err := ParseTypeRef(b)
			if err != nil {
				continue
			}
			target, ok := c.Resolve(ref.Name, t)
			switch {
			case ok && target.Kind == KindClass && t.Kind == KindClass && t.Base == "":
				t.Base = target.Name
			case ok:
				t.Interfaces = appendUnique(t.Interfaces, target.Name)
			default:
				t.Interfaces = appendUnique(t.Interfaces, ref.String())
			}
		}
		if t.Markers.ReplacesInterface != "" {
			if target, ok := c.Resolve(t.Markers.ReplacesInterface, t); ok {
				t.Markers.ReplacesInterface = target.Name
			}
		}
		for i := range t.Properties {
			t.Properties[i].Type = c.linkRef(t.Properties[i].Type, t)
		}
		for i := range t.Constructors {
			c.linkParams(t.Constructors[i].Parameters, t)
		}
		for i := range t.Methods {
			t.Methods[i].Return = c.linkRef(t.Methods[i].Return, t)
			c.linkParams(t.Methods[i].Parameters, t)
		}
	}
	c.linked = true
}

func (c *Catalog) linkParams(params []Parameter, from *TypeDescriptor) {
	for i := range params {
		params[i].Type = c.linkRef(params[i].Type, from)
	}
}

func (c *Catalog) linkRef(ref TypeRef, from *TypeDescriptor) TypeRef {
	if target, ok := c.Resolve(ref.Name, from); ok {
		ref.Name = target.Name
	}
	for i := range ref.Args {
		ref.Args[i] = c.linkRef(ref.Args[i], from)
	}
	return ref
}

// Resolve finds the catalog type a name denotes when written inside from.
// Lookup order: exact qualified name, enclosing namespaces innermost first,
// using directives, then a unique simple-name match.
func (c *Catalog) Resolve(name string, from *TypeDescriptor) (*TypeDescriptor, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "global::")
	if name == "" {
		return nil, false
	}
	if t, ok := c.byName[name]; ok {
		return t, true
	}
	if from != nil {
		for ns := from.Namespace; ns != ""; ns = parentNamespace(ns) {
			if t, ok := c.byName[ns+"."+name]; ok {
				return t, true
			}
		}
		for _, u := range from.Usings {
			if t, ok := c.byName[u+"."+name]; ok {
				return t, true
			}
		}
	}
	if !strings.Contains(name, ".") {
		if cands := c.bySimple[name]; len(cands) == 1 {
			return cands[0], true
		}
	}
	return nil, false
}

func parentNamespace(ns string) string {
	if i := strings.LastIndex(ns, "."); i >= 0 {
		return ns[:i]
	}
	return ""
}

// Lookup returns the type with the exact qualified name.
func (c *Catalog) Lookup(name string) (*TypeDescriptor, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Types returns all declared types in declaration order.
func (c *Catalog) Types() []*TypeDescriptor {
	return c.types
}

// Classes returns the concrete classes in declaration order.
func (c *Catalog) Classes() []*TypeDescriptor {
	var out []*TypeDescriptor
	for _, t := range c.types {
		if t.IsConcrete() {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of declared types.
func (c *Catalog) Len() int {
	return len(c.types)
}

// Linked reports whether Link has run.
func (c *Catalog) Linked() bool {
	return c.linked
}

// Supertypes returns every catalog type t can be converted to: its base
// chain and every interface reached from t, its ancestors, and interface
// inheritance, breadth first and without duplicates. t itself is excluded.
func (c *Catalog) Supertypes(t *TypeDescriptor) []*TypeDescriptor {
	var out []*TypeDescriptor
	seen := map[*TypeDescriptor]bool{t: true}
	queue := []*TypeDescriptor{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		var next []string
		if cur.Base != "" {
			next = append(next, cur.Base)
		}
		next = append(next, cur.Interfaces...)
		for _, n := range next {
			st, ok := c.byName[n]
			if !ok || seen[st] {
				continue
			}
			seen[st] = true
			out = append(out, st)
			queue = append(queue, st)
		}
	}
	return out
}

// Implementation returns the public instance method of class t (or its
// nearest ancestor declaring it) matching the interface method m.
func (c *Catalog) Implementation(t *TypeDescriptor, m *Method) (*Method, *TypeDescriptor, bool) {
	seen := make(map[*TypeDescriptor]bool)
	for cur := t; cur != nil && !seen[cur]; {
		seen[cur] = true
		if impl, ok := cur.FindMethod(m.Name, m.Parameters); ok && impl.Public && !impl.Static {
			return impl, cur, true
		}
		next, ok := c.byName[cur.Base]
		if !ok {
			break
		}
		cur = next
	}
	return nil, nil, false
}
