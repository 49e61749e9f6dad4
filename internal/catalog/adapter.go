package catalog

import (
	"fmt"
	"strings"

	"aotbridge/internal/diag"
	"aotbridge/internal/extractor"
)

// Attribute names recognized on declarations. The "Attribute" suffix is
// optional in source, as in C#.
const (
	AttrReplacesInterface = "ReplacesInterface"
	AttrConfigurationRoot = "ConfigurationRoot"
	AttrWorker            = "Worker"
	AttrNativeCallback    = "NativeCallback"
)

// FromCodeUnit converts extractor output into a catalog type.
func FromCodeUnit(unit *extractor.CodeUnit) (*TypeDescriptor, error) {
	if unit == nil {
		return nil, fmt.Errorf("nil code unit")
	}
	details, ok := unit.Details.(extractor.CSharpTypeDetails)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported unit details %T", unit.ID, unit.Details)
	}

	name := unit.Name
	if unit.Package != "" {
		name = unit.Package + "." + unit.Name
	}
	pos := diag.Position{File: unit.Filepath, Line: unit.StartLine, Column: unit.StartColumn}

	t := &TypeDescriptor{
		Name:      name,
		Namespace: unit.Package,
		Kind:      Kind(unit.UnitType),
		Abstract:  unit.UnitType == string(KindClass) && extractor.HasModifier(details.Modifiers, "abstract"),
		Bases:     details.Bases,
		Usings:    details.Usings,
		Pos:       pos,
		EndLine:   unit.EndLine,
	}

	for _, a := range details.Attributes {
		switch attributeName(a.Name) {
		case AttrReplacesInterface:
			if len(a.Args) == 0 {
				return nil, fmt.Errorf("%s: [%s] requires a typeof argument", pos, AttrReplacesInterface)
			}
			t.Markers.ReplacesInterface = typeofArgument(a.Args[0])
		case AttrConfigurationRoot:
			t.Markers.ConfigurationRoot = true
		case AttrWorker:
			t.Markers.Worker = true
		}
	}

	for _, p := range details.Properties {
		ref, err := ParseTypeRef(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: property %s: %w", pos, p.Name, err)
		}
		t.Properties = append(t.Properties, Property{Name: p.Name, Type: ref})
	}

	for _, ctor := range details.Constructors {
		params, err := convertParams(ctor.Parameters)
		if err != nil {
			return nil, fmt.Errorf("%s: constructor: %w", pos, err)
		}
		t.Constructors = append(t.Constructors, Constructor{
			Public:     extractor.HasModifier(ctor.Modifiers, "public"),
			Parameters: params,
			Pos:        diag.Position{File: unit.Filepath, Line: ctor.Line, Column: ctor.Column},
		})
	}

	for _, m := range details.Methods {
		params, err := convertParams(m.Parameters)
		if err != nil {
			return nil, fmt.Errorf("%s: method %s: %w", pos, m.Name, err)
		}
		ret, err := ParseTypeRef(m.Returns)
		if err != nil {
			return nil, fmt.Errorf("%s: method %s: %w", pos, m.Name, err)
		}
		method := Method{
			Name:       m.Name,
			Return:     ret,
			Parameters: params,
			Public:     extractor.HasModifier(m.Modifiers, "public"),
			Static:     extractor.HasModifier(m.Modifiers, "static"),
			Pos:        diag.Position{File: unit.Filepath, Line: m.Line, Column: m.Column},
		}
		for _, a := range m.Attributes {
			if attributeName(a.Name) == AttrNativeCallback {
				method.NativeCallback = true
				if len(a.Args) > 0 {
					method.CallbackTemplate = unquote(a.Args[0])
				}
			}
		}
		t.Methods = append(t.Methods, method)
	}

	return t, nil
}

// AddUnit converts and adds an extracted unit.
func (c *Catalog) AddUnit(unit *extractor.CodeUnit) error {
	t, err := FromCodeUnit(unit)
	if err != nil {
		return err
	}
	return c.Add(t)
}

func convertParams(in []extractor.CSharpParam) ([]Parameter, error) {
	out := make([]Parameter, 0, len(in))
	for _, p := range in {
		ref, err := ParseTypeRef(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		out = append(out, Parameter{Name: p.Name, Type: ref})
	}
	return out, nil
}

func attributeName(name string) string {
	name = strings.TrimPrefix(name, "global::")
	name = SimpleName(name)
	return strings.TrimSuffix(name, "Attribute")
}

// typeofArgument turns "typeof(App.IFoo)" into "App.IFoo".
func typeofArgument(arg string) string {
	s := strings.TrimSpace(arg)
	if strings.HasPrefix(s, "typeof(") && strings.HasSuffix(s, ")") {
		s = s[len("typeof(") : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "="); i >= 0 && !strings.HasPrefix(s, "\"") {
		s = strings.TrimSpace(s[i+1:])
	}
	s = strings.TrimPrefix(s, "@")
	return strings.Trim(s, "\"")
}
