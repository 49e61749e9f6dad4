// Package bridge generates the managed entry points that native code calls
// through an integer handle, and the native glue indexing them.
package bridge

import (
	"fmt"

	"aotbridge/internal/builder"
	"aotbridge/internal/catalog"
	"aotbridge/internal/names"
)

// Adapter is a generated static method that builds the declaring type and
// forwards to the target method.
type Adapter struct {
	Name         string
	HandleName   string
	Owner        *catalog.TypeDescriptor
	Method       *catalog.Method
	Construction *builder.Plan // nil for static targets
}

// Receiver is the expression the forwarding call is made on.
func (a *Adapter) Receiver() string {
	if a.Construction == nil {
		return builder.TypeName(a.Owner.Ref())
	}
	return a.Construction.Result
}

// WorkerFactory is a generated "construct worker T" method.
type WorkerFactory struct {
	Name         string
	Type         *catalog.TypeDescriptor
	Construction *builder.Plan
}

// Options control naming in the generated artifacts.
type Options struct {
	Namespace string // managed namespace of the generated class
	Class     string // managed class name
	Table     string // C identifier of the dispatch table
	Guard     string // include guard of the native header
	TypeMap   *TypeMap
}

const (
	DefaultNamespace = "AotBridge.Generated"
	DefaultClass     = "NativeCallbacks"
	DefaultTable     = "bridge_callbacks"
	DefaultGuard     = "AOTBRIDGE_CALLBACKS_H"
)

func (o Options) withDefaults() Options {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.Class == "" {
		o.Class = DefaultClass
	}
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.Guard == "" {
		o.Guard = DefaultGuard
	}
	if o.TypeMap == nil {
		o.TypeMap = DefaultTypeMap()
	}
	return o
}

// Generator collects adapters and worker factories for one run and renders
// both artifacts from them.
type Generator struct {
	opts     Options
	builder  *builder.InstanceBuilder
	registry *Registry
	members  *names.Scope
	workers  []*WorkerFactory
}

func NewGenerator(b *builder.InstanceBuilder, opts Options) *Generator {
	g := &Generator{
		opts:     opts.withDefaults(),
		builder:  b,
		registry: NewRegistry(),
		members:  names.NewScope(),
	}
	g.members.Reserve(g.opts.Class)
	return g
}

func (g *Generator) Registry() *Registry {
	return g.registry
}

func (g *Generator) Options() Options {
	return g.opts
}

func (g *Generator) Workers() []*WorkerFactory {
	return g.workers
}

// RegisterAdapter creates a new adapter for owner.m and appends it to the
// handle table. Every call yields a new handle, even for a method that is
// already registered.
func (g *Generator) RegisterAdapter(tmpl SignatureTemplate, owner *catalog.TypeDescriptor, m *catalog.Method) (int, error) {
	if _, err := ParseTemplate(string(tmpl)); err != nil {
		return -1, fmt.Errorf("%s.%s: %w", owner.Name, m.Name, err)
	}

	a := &Adapter{Owner: owner, Method: m}
	if !m.Static {
		// Parameters are re-declared verbatim, so locals must avoid them.
		scope := names.NewScope()
		for _, p := range m.Parameters {
			scope.Reserve(p.Name)
		}
		plan, err := g.builder.EmitConstructionIn(owner, scope)
		if err != nil {
			return -1, err
		}
		a.Construction = plan
	}
	a.Name = g.members.Next(owner.SimpleName() + "_" + m.Name)
	a.HandleName = g.members.Next(a.Name + "_Handle")

	return g.registry.Append(tmpl, a), nil
}

// RegisterMethod derives the native signature of owner.m, or takes its
// explicit template, and registers an adapter for it.
func (g *Generator) RegisterMethod(owner *catalog.TypeDescriptor, m *catalog.Method) (int, error) {
	var (
		tmpl SignatureTemplate
		err  error
	)
	if m.CallbackTemplate != "" {
		tmpl, err = ParseTemplate(m.CallbackTemplate)
		if err != nil {
			return -1, fmt.Errorf("%s: %s.%s: %w", m.Pos, owner.Name, m.Name, err)
		}
	} else {
		tmpl, err = g.opts.TypeMap.NativeSignature(owner, m)
		if err != nil {
			return -1, err
		}
	}
	return g.RegisterAdapter(tmpl, owner, m)
}

// EmitWorkerFactory adds a factory method constructing t.
func (g *Generator) EmitWorkerFactory(t *catalog.TypeDescriptor) (*WorkerFactory, error) {
	plan, err := g.builder.EmitConstruction(t)
	if err != nil {
		return nil, err
	}
	w := &WorkerFactory{
		Name:         g.members.Next("Create" + t.SimpleName()),
		Type:         t,
		Construction: plan,
	}
	g.workers = append(g.workers, w)
	return w, nil
}
