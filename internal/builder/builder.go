// Package builder emits construction plans: the statements that build a
// type together with its transitive constructor dependencies.
package builder

import (
	"aotbridge/internal/catalog"
	"aotbridge/internal/diag"
	"aotbridge/internal/names"
	"aotbridge/internal/resolver"
)

type visitState int

const (
	unseen visitState = iota
	inProgress
	finalized
)

// EmissionContext is the state of one construction plan. A type is marked
// in progress before its dependencies are built and finalized once its
// constructor call is emitted.
type EmissionContext struct {
	state    map[*catalog.TypeDescriptor]visitState
	bindings map[*catalog.TypeDescriptor]string
	scope    *names.Scope
	steps    []Step
}

func newEmissionContext(scope *names.Scope) *EmissionContext {
	return &EmissionContext{
		state:    make(map[*catalog.TypeDescriptor]visitState),
		bindings: make(map[*catalog.TypeDescriptor]string),
		scope:    scope,
	}
}

// InstanceBuilder turns resolved constructors into construction plans.
type InstanceBuilder struct {
	resolver *resolver.ConstructorResolver
}

func New(r *resolver.ConstructorResolver) *InstanceBuilder {
	return &InstanceBuilder{resolver: r}
}

// EmitConstruction builds a plan for root in a fresh name scope.
func (b *InstanceBuilder) EmitConstruction(root *catalog.TypeDescriptor) (*Plan, error) {
	return b.EmitConstructionIn(root, names.NewScope())
}

// EmitConstructionIn builds a plan for root, taking local names from scope.
// Each call has its own emission context, so separate calls never share
// instances. On error no plan is returned.
func (b *InstanceBuilder) EmitConstructionIn(root *catalog.TypeDescriptor, scope *names.Scope) (*Plan, error) {
	target, err := b.concrete(root)
	if err != nil {
		return nil, err
	}
	ctx := newEmissionContext(scope)
	result, err := b.build(ctx, target)
	if err != nil {
		return nil, err
	}
	return &Plan{Root: target, Result: result, Steps: ctx.steps}, nil
}

// concrete maps an abstract root to its single implementation.
func (b *InstanceBuilder) concrete(t *catalog.TypeDescriptor) (*catalog.TypeDescriptor, error) {
	if t.IsConcrete() {
		return t, nil
	}
	classes := b.resolver.Interfaces().FindClasses(t.Name)
	switch len(classes) {
	case 1:
		return classes[0], nil
	case 0:
		return nil, diag.Unresolved(t.Pos, t.Name, "")
	default:
		cands := make([]string, 0, len(classes))
		for _, c := range classes {
			cands = append(cands, c.Name)
		}
		return nil, diag.Ambiguous(t.Pos, t.Name, "", cands)
	}
}

func (b *InstanceBuilder) build(ctx *EmissionContext, t *catalog.TypeDescriptor) (string, error) {
	switch ctx.state[t] {
	case finalized:
		return ctx.bindings[t], nil
	case inProgress:
		return "", diag.Cyclic(t.Pos, t.Name)
	}
	ctx.state[t] = inProgress

	_, deps, err := b.resolver.GetConstructorAndParameters(t)
	if err != nil {
		return "", err
	}

	args := make([]Arg, 0, len(deps))
	for _, d := range deps {
		switch d.Kind {
		case resolver.DependencyConfig:
			args = append(args, Arg{Expr: d.ConfigExpr})
		case resolver.DependencyArray:
			elems := make([]string, 0, len(d.Elements))
			for _, e := range d.Elements {
				local, err := b.build(ctx, e)
				if err != nil {
					return "", err
				}
				elems = append(elems, local)
			}
			local := ctx.scope.Next(names.LowerCamel(d.ElementType.SimpleName()) + "Array")
			ctx.steps = append(ctx.steps, Step{
				Kind:        StepArray,
				Local:       local,
				ElementType: d.ElementType,
				Elements:    elems,
			})
			args = append(args, Arg{Local: local})
		default:
			local, err := b.build(ctx, d.Type)
			if err != nil {
				return "", err
			}
			args = append(args, Arg{Local: local})
		}
	}

	local := ctx.scope.Local(t.Name)
	ctx.steps = append(ctx.steps, Step{Kind: StepNew, Local: local, Type: t, Args: args})
	ctx.bindings[t] = local
	ctx.state[t] = finalized
	return local, nil
}
