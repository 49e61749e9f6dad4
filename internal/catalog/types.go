package catalog

import "aotbridge/internal/diag"

// Kind distinguishes classes from interfaces.
type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
)

type Parameter struct {
	Name string  `yaml:"name"`
	Type TypeRef `yaml:"type"`
}

type Constructor struct {
	Public     bool          `yaml:"public"`
	Parameters []Parameter   `yaml:"parameters,omitempty"`
	Pos        diag.Position `yaml:"pos,omitempty"`
}

// Method is a declared method. NativeCallback marks it for registration in
// the handle table; CallbackTemplate optionally overrides the derived
// native signature.
type Method struct {
	Name             string        `yaml:"name"`
	Return           TypeRef       `yaml:"return"`
	Parameters       []Parameter   `yaml:"parameters,omitempty"`
	Public           bool          `yaml:"public"`
	Static           bool          `yaml:"static,omitempty"`
	NativeCallback   bool          `yaml:"native_callback,omitempty"`
	CallbackTemplate string        `yaml:"callback_template,omitempty"`
	Pos              diag.Position `yaml:"pos,omitempty"`
}

type Property struct {
	Name string  `yaml:"name"`
	Type TypeRef `yaml:"type"`
}

// Markers are the programming-model attributes recognized on a type.
type Markers struct {
	ReplacesInterface string `yaml:"replaces_interface,omitempty"`
	ConfigurationRoot bool   `yaml:"configuration_root,omitempty"`
	Worker            bool   `yaml:"worker,omitempty"`
}

// TypeDescriptor is the identity of a declared type. It must not be
// mutated once the owning catalog is linked.
type TypeDescriptor struct {
	Name         string        `yaml:"name"` // namespace-qualified
	Namespace    string        `yaml:"namespace,omitempty"`
	Kind         Kind          `yaml:"kind"`
	Abstract     bool          `yaml:"abstract,omitempty"`
	Bases        []string      `yaml:"bases,omitempty"` // as declared
	Usings       []string      `yaml:"usings,omitempty"`
	Properties   []Property    `yaml:"properties,omitempty"`
	Constructors []Constructor `yaml:"constructors,omitempty"`
	Methods      []Method      `yaml:"methods,omitempty"`
	Markers      Markers       `yaml:"markers,omitempty"`
	Pos          diag.Position `yaml:"pos,omitempty"`
	EndLine      int           `yaml:"end_line,omitempty"`

	// Set by Catalog.Link.
	Base       string   `yaml:"-"`
	Interfaces []string `yaml:"-"`
}

// Spans reports whether line falls inside the declaration. A type without
// a known end spans only its first line.
func (t *TypeDescriptor) Spans(line int) bool {
	end := t.EndLine
	if end < t.Pos.Line {
		end = t.Pos.Line
	}
	return line >= t.Pos.Line && line <= end
}

// SimpleName returns the unqualified type name.
func (t *TypeDescriptor) SimpleName() string {
	return SimpleName(t.Name)
}

// IsConcrete reports whether the type can be instantiated directly.
func (t *TypeDescriptor) IsConcrete() bool {
	return t.Kind == KindClass && !t.Abstract
}

// IsInterface reports whether the type is an interface.
func (t *TypeDescriptor) IsInterface() bool {
	return t.Kind == KindInterface
}

// Ref returns a reference to the type itself.
func (t *TypeDescriptor) Ref() TypeRef {
	return TypeRef{Name: t.Name}
}

// Method returns the first declared method with the given name.
func (t *TypeDescriptor) Method(name string) (*Method, bool) {
	for i := range t.Methods {
		if t.Methods[i].Name == name {
			return &t.Methods[i], true
		}
	}
	return nil, false
}

// FindMethod returns the declared method matching name and parameter types.
func (t *TypeDescriptor) FindMethod(name string, params []Parameter) (*Method, bool) {
	for i := range t.Methods {
		m := &t.Methods[i]
		if m.Name != name || len(m.Parameters) != len(params) {
			continue
		}
		match := true
		for j := range params {
			if m.Parameters[j].Type.String() != params[j].Type.String() {
				match = false
				break
			}
		}
		if match {
			return m, true
		}
	}
	return nil, false
}
