package builder

import (
	"fmt"
	"strings"

	"aotbridge/internal/catalog"
)

// StepKind is the kind of statement a Step renders to.
type StepKind int

const (
	// StepNew invokes a constructor.
	StepNew StepKind = iota
	// StepArray materializes a fixed-size array of earlier bindings.
	StepArray
)

// Arg is one constructor argument: either a local bound by an earlier step
// or a configuration access expression.
type Arg struct {
	Local string
	Expr  string
}

func (a Arg) String() string {
	if a.Local != "" {
		return a.Local
	}
	return a.Expr
}

// Step binds one local.
type Step struct {
	Kind  StepKind
	Local string

	Type *catalog.TypeDescriptor // StepNew
	Args []Arg                   // StepNew, constructor order

	ElementType catalog.TypeRef // StepArray
	Elements    []string        // StepArray, index order
}

// Statement renders the step as one C# statement.
func (s Step) Statement() string {
	switch s.Kind {
	case StepArray:
		if len(s.Elements) == 0 {
			return fmt.Sprintf("var %s = new %s[0];", s.Local, TypeName(s.ElementType))
		}
		return fmt.Sprintf("var %s = new %s[] { %s };", s.Local, TypeName(s.ElementType), strings.Join(s.Elements, ", "))
	default:
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("var %s = new %s(%s);", s.Local, TypeName(s.Type.Ref()), strings.Join(args, ", "))
	}
}

// Plan is the statement sequence that builds one object graph. Result is
// the local holding the root instance.
type Plan struct {
	Root   *catalog.TypeDescriptor
	Result string
	Steps  []Step
}

// Statements renders every step in order.
func (p *Plan) Statements() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Statement()
	}
	return out
}

// Constructions counts the constructor invocations in the plan.
func (p *Plan) Constructions() int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind == StepNew {
			n++
		}
	}
	return n
}

// TypeName renders a reference as a fully qualified C# type. Qualified
// names get the global:: alias; keywords such as int are left alone.
func TypeName(r catalog.TypeRef) string {
	var sb strings.Builder
	if strings.Contains(r.Name, ".") {
		sb.WriteString("global::")
	}
	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range r.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(TypeName(a))
		}
		sb.WriteByte('>')
	}
	sb.WriteString(strings.Repeat("*", r.Pointer))
	sb.WriteString(r.ArraySuffix())
	return sb.String()
}
