package resolver

import (
	"strings"

	"aotbridge/internal/catalog"
	"aotbridge/internal/diag"
)

// DependencyKind tells how a constructor parameter is satisfied.
type DependencyKind int

const (
	// DependencySingle is satisfied by constructing exactly one class.
	DependencySingle DependencyKind = iota
	// DependencyArray is satisfied by an array of every implementer.
	DependencyArray
	// DependencyConfig is satisfied by a configuration access expression.
	DependencyConfig
)

func (k DependencyKind) String() string {
	switch k {
	case DependencySingle:
		return "single"
	case DependencyArray:
		return "array"
	case DependencyConfig:
		return "config"
	}
	return "unknown"
}

// Dependency is the resolution of one constructor parameter.
type Dependency struct {
	Consumer  *catalog.TypeDescriptor
	Position  int
	Parameter catalog.Parameter
	Kind      DependencyKind

	Type        *catalog.TypeDescriptor   // DependencySingle
	ElementType catalog.TypeRef           // DependencyArray, as declared
	Elements    []*catalog.TypeDescriptor // DependencyArray, index order
	ConfigExpr  string                    // DependencyConfig
}

// collectionInterfaces are the one-argument generic interfaces that an
// array satisfies.
var collectionInterfaces = map[string]bool{
	"IEnumerable":         true,
	"ICollection":         true,
	"IList":               true,
	"IReadOnlyCollection": true,
	"IReadOnlyList":       true,
}

const genericCollectionsNamespace = "System.Collections.Generic."

// ConstructorResolver picks the constructor to invoke for a type and
// resolves each of its parameters.
type ConstructorResolver struct {
	interfaces *InterfaceResolver
	config     ConfigResolver
}

// NewConstructorResolver creates a resolver. config may be nil.
func NewConstructorResolver(interfaces *InterfaceResolver, config ConfigResolver) *ConstructorResolver {
	return &ConstructorResolver{interfaces: interfaces, config: config}
}

// Interfaces returns the underlying implementation index.
func (r *ConstructorResolver) Interfaces() *InterfaceResolver {
	return r.interfaces
}

// SelectConstructor returns the public constructor with the greatest arity,
// ties broken by declaration order. A type without declared constructors
// gets the implicit parameterless one.
func (r *ConstructorResolver) SelectConstructor(t *catalog.TypeDescriptor) (*catalog.Constructor, error) {
	if len(t.Constructors) == 0 {
		return &catalog.Constructor{Public: true, Pos: t.Pos}, nil
	}
	var best *catalog.Constructor
	for i := range t.Constructors {
		c := &t.Constructors[i]
		if !c.Public {
			continue
		}
		if best == nil || len(c.Parameters) > len(best.Parameters) {
			best = c
		}
	}
	if best == nil {
		return nil, diag.NoPublicConstructor(t.Pos, t.Name)
	}
	return best, nil
}

// GetConstructorAndParameters selects the constructor of t and resolves
// every parameter. Results are computed on demand and never cached.
func (r *ConstructorResolver) GetConstructorAndParameters(t *catalog.TypeDescriptor) (*catalog.Constructor, []Dependency, error) {
	ctor, err := r.SelectConstructor(t)
	if err != nil {
		return nil, nil, err
	}
	deps := make([]Dependency, 0, len(ctor.Parameters))
	for i, p := range ctor.Parameters {
		dep, err := r.ResolveParameter(t, ctor, i, p)
		if err != nil {
			return nil, nil, err
		}
		deps = append(deps, dep)
	}
	return ctor, deps, nil
}

// ResolveParameter resolves one parameter: array shapes first, then the
// configuration resolver, then exactly one implementing class.
func (r *ConstructorResolver) ResolveParameter(consumer *catalog.TypeDescriptor, ctor *catalog.Constructor, pos int, p catalog.Parameter) (Dependency, error) {
	dep := Dependency{Consumer: consumer, Position: pos, Parameter: p}
	where := ctor.Pos
	if !where.IsValid() {
		where = consumer.Pos
	}

	if elem, ok := ArrayElement(p.Type); ok {
		dep.Kind = DependencyArray
		dep.ElementType = elem
		dep.Elements = r.interfaces.FindClasses(elem.Name)
		return dep, nil
	}

	if r.config != nil {
		if expr, ok := r.config.TryGetConfigAccess(p.Type); ok {
			dep.Kind = DependencyConfig
			dep.ConfigExpr = expr
			return dep, nil
		}
	}

	classes := r.interfaces.FindClasses(p.Type.Name)
	if p.Type.Rank > 0 || p.Type.Pointer > 0 || len(p.Type.Args) > 0 {
		// Constructed generic, pointer and array types (including
		// multi-dimensional ones) are never catalog classes.
		classes = nil
	}
	switch len(classes) {
	case 0:
		return dep, diag.Unresolved(where, p.Type.String(), consumer.Name)
	case 1:
		dep.Kind = DependencySingle
		dep.Type = classes[0]
		return dep, nil
	default:
		names := make([]string, 0, len(classes))
		for _, c := range classes {
			names = append(names, c.Name)
		}
		return dep, diag.Ambiguous(where, p.Type.String(), consumer.Name, names)
	}
}

// ArrayElement reports whether ref is an array dependency shape and
// returns its element type: T[] or a collection interface of one T.
func ArrayElement(ref catalog.TypeRef) (catalog.TypeRef, bool) {
	if ref.Rank == 1 && ref.Dimensions() == 1 && ref.Pointer == 0 {
		return ref.Elem(), true
	}
	if ref.Rank != 0 || ref.Pointer != 0 || len(ref.Args) != 1 {
		return catalog.TypeRef{}, false
	}
	name := strings.TrimPrefix(ref.Name, genericCollectionsNamespace)
	if !collectionInterfaces[name] {
		return catalog.TypeRef{}, false
	}
	return ref.Args[0], true
}
