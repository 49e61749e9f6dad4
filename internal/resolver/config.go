package resolver

import (
	"aotbridge/internal/catalog"
	"aotbridge/internal/diag"
)

// ConfigResolver offers a pre-built configuration access expression for
// recognized parameter types, as an alternative to construction.
type ConfigResolver interface {
	Name() string
	TryGetConfigAccess(t catalog.TypeRef) (expr string, ok bool)
}

// ConfigResolverChain consults its resolvers in order; the first hit wins.
type ConfigResolverChain struct {
	resolvers []ConfigResolver
}

func NewConfigResolverChain(resolvers ...ConfigResolver) *ConfigResolverChain {
	var rs []ConfigResolver
	for _, r := range resolvers {
		if r != nil {
			rs = append(rs, r)
		}
	}
	return &ConfigResolverChain{resolvers: rs}
}

func (c *ConfigResolverChain) Name() string {
	return "chain"
}

func (c *ConfigResolverChain) TryGetConfigAccess(t catalog.TypeRef) (string, bool) {
	for _, r := range c.resolvers {
		if expr, ok := r.TryGetConfigAccess(t); ok {
			return expr, true
		}
	}
	return "", false
}

// DefaultConfigAccessor is the managed expression that yields the
// deserialized configuration root.
const DefaultConfigAccessor = "global::AppConfiguration.Current"

// RootConfigResolver recognizes the class marked [ConfigurationRoot] and
// the declared types of its properties.
type RootConfigResolver struct {
	root     *catalog.TypeDescriptor
	accessor string
	byType   map[string]string
}

// NewRootConfigResolver finds the configuration root of c. It fails when
// more than one class carries the marker; a catalog without a root yields a
// resolver that recognizes nothing.
func NewRootConfigResolver(c *catalog.Catalog, accessor string) (*RootConfigResolver, error) {
	if accessor == "" {
		accessor = DefaultConfigAccessor
	}
	r := &RootConfigResolver{accessor: accessor, byType: make(map[string]string)}

	var roots []*catalog.TypeDescriptor
	for _, t := range c.Types() {
		if t.Markers.ConfigurationRoot {
			roots = append(roots, t)
		}
	}
	switch {
	case len(roots) > 1:
		names := make([]string, 0, len(roots))
		for _, t := range roots {
			names = append(names, t.Name)
		}
		return nil, diag.MultipleConfigRoots(roots[1].Pos, names)
	case len(roots) == 0:
		return r, nil
	}

	r.root = roots[0]
	r.byType[r.root.Name] = accessor
	for _, p := range r.root.Properties {
		key := p.Type.String()
		if _, dup := r.byType[key]; dup {
			continue
		}
		r.byType[key] = accessor + "." + p.Name
	}
	return r, nil
}

func (r *RootConfigResolver) Name() string {
	return "configuration_root"
}

// Root returns the configuration root type, or nil.
func (r *RootConfigResolver) Root() *catalog.TypeDescriptor {
	return r.root
}

func (r *RootConfigResolver) TryGetConfigAccess(t catalog.TypeRef) (string, bool) {
	expr, ok := r.byType[t.String()]
	return expr, ok
}

// StaticConfigResolver maps type names to fixed access expressions.
type StaticConfigResolver struct {
	exprs map[string]string
}

func NewStaticConfigResolver(exprs map[string]string) *StaticConfigResolver {
	m := make(map[string]string, len(exprs))
	for k, v := range exprs {
		m[k] = v
	}
	return &StaticConfigResolver{exprs: m}
}

func (r *StaticConfigResolver) Name() string {
	return "static"
}

// TryGetConfigAccess matches the full written type first, then its simple name.
func (r *StaticConfigResolver) TryGetConfigAccess(t catalog.TypeRef) (string, bool) {
	if expr, ok := r.exprs[t.String()]; ok {
		return expr, true
	}
	if t.Rank == 0 && t.Pointer == 0 && len(t.Args) == 0 {
		if expr, ok := r.exprs[t.SimpleName()]; ok {
			return expr, true
		}
	}
	return "", false
}
