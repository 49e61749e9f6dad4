package extractor

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// CSharpExtractor implements LanguageExtractor for C#.
// Only declarations are extracted; member bodies are never inspected.
type CSharpExtractor struct{}

func (x *CSharpExtractor) GetLanguage() *sitter.Language {
	return csharp.GetLanguage()
}

func (x *CSharpExtractor) GetQuery() string {
	return `
		(class_declaration) @class
		(interface_declaration) @interface
	`
}

func (x *CSharpExtractor) ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, file FileContext) *CodeUnit {
	switch captureName {
	case "class", "interface":
		return x.extractTypeUnit(captureName, node, sourceCode, filepath, file)
	}
	return nil
}

// C#-specific Detail Schemas

type CSharpTypeDetails struct {
	Modifiers    []string            `json:"modifiers,omitempty"`
	Attributes   []CSharpAttribute   `json:"attributes,omitempty"`
	Bases        []string            `json:"bases,omitempty"`
	Usings       []string            `json:"usings,omitempty"`
	Constructors []CSharpConstructor `json:"constructors,omitempty"`
	Methods      []CSharpMethod      `json:"methods,omitempty"`
	Properties   []CSharpProperty    `json:"properties,omitempty"`
}

type CSharpAttribute struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

type CSharpParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CSharpConstructor struct {
	Modifiers  []string      `json:"modifiers,omitempty"`
	Parameters []CSharpParam `json:"parameters"`
	Line       int           `json:"line"`
	Column     int           `json:"column"`
}

type CSharpMethod struct {
	Name       string            `json:"name"`
	Returns    string            `json:"returns"`
	Modifiers  []string          `json:"modifiers,omitempty"`
	Attributes []CSharpAttribute `json:"attributes,omitempty"`
	Parameters []CSharpParam     `json:"parameters"`
	Line       int               `json:"line"`
	Column     int               `json:"column"`
}

type CSharpProperty struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// HasModifier reports whether mods contains m.
func HasModifier(mods []string, m string) bool {
	for _, v := range mods {
		if v == m {
			return true
		}
	}
	return false
}

// Extraction Logic

func (x *CSharpExtractor) extractTypeUnit(kind string, node *sitter.Node, sourceCode []byte, filepath string, file FileContext) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)
	if outer := enclosingTypes(node, sourceCode); outer != "" {
		name = outer + "." + name
	}

	namespace := enclosingNamespace(node, sourceCode)
	if namespace == "" {
		namespace = file.Namespace
	} else if file.Namespace != "" {
		namespace = file.Namespace + "." + namespace
	}

	details := CSharpTypeDetails{
		Modifiers:  modifiers(node, sourceCode),
		Attributes: attributes(node, sourceCode),
		Bases:      bases(node, sourceCode),
		Usings:     append([]string(nil), file.Usings...),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		body = firstChildOfType(node, "declaration_list")
	}
	if body != nil {
		x.extractMembers(kind, body, sourceCode, &details)
	}

	id := fmt.Sprintf("%s:%s:%d", filepath, name, node.StartPoint().Row+1)
	return &CodeUnit{
		ID:          id,
		Filepath:    filepath,
		Package:     namespace,
		Language:    "csharp",
		StartLine:   int(node.StartPoint().Row + 1),
		StartColumn: int(node.StartPoint().Column + 1),
		EndLine:     int(node.EndPoint().Row + 1),
		Content:     node.Content(sourceCode),
		UnitType:    kind,
		Name:        name,
		Description: x.extractDocComment(node, sourceCode),
		Details:     details,
	}
}

func (x *CSharpExtractor) extractMembers(kind string, body *sitter.Node, sourceCode []byte, details *CSharpTypeDetails) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "constructor_declaration":
			details.Constructors = append(details.Constructors, CSharpConstructor{
				Modifiers:  modifiers(member, sourceCode),
				Parameters: parameters(member, sourceCode),
				Line:       int(member.StartPoint().Row + 1),
				Column:     int(member.StartPoint().Column + 1),
			})
		case "method_declaration":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			returns := member.ChildByFieldName("returns")
			if returns == nil {
				returns = member.ChildByFieldName("type")
			}
			m := CSharpMethod{
				Name:       nameNode.Content(sourceCode),
				Modifiers:  modifiers(member, sourceCode),
				Attributes: attributes(member, sourceCode),
				Parameters: parameters(member, sourceCode),
				Line:       int(member.StartPoint().Row + 1),
				Column:     int(member.StartPoint().Column + 1),
			}
			if returns != nil {
				m.Returns = returns.Content(sourceCode)
			}
			// Interface members are implicitly public.
			if kind == "interface" && !HasModifier(m.Modifiers, "public") {
				m.Modifiers = append(m.Modifiers, "public")
			}
			details.Methods = append(details.Methods, m)
		case "property_declaration":
			nameNode := member.ChildByFieldName("name")
			typeNode := member.ChildByFieldName("type")
			if nameNode == nil || typeNode == nil {
				continue
			}
			details.Properties = append(details.Properties, CSharpProperty{
				Name:      nameNode.Content(sourceCode),
				Type:      typeNode.Content(sourceCode),
				Modifiers: modifiers(member, sourceCode),
			})
		}
	}
}

func (x *CSharpExtractor) extractDocComment(node *sitter.Node, sourceCode []byte) string {
	var commentLines []string
	currentNode := node
	for {
		prevSibling := currentNode.PrevSibling()
		if prevSibling == nil || (currentNode.StartPoint().Row-prevSibling.EndPoint().Row > 1) {
			break
		}
		if prevSibling.Type() != "comment" {
			break
		}
		commentLines = append([]string{prevSibling.Content(sourceCode)}, commentLines...)
		currentNode = prevSibling
	}
	return cleanDocComment(strings.Join(commentLines, "\n"))
}

func modifiers(node *sitter.Node, sourceCode []byte) []string {
	var mods []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "modifier" {
			mods = append(mods, strings.TrimSpace(child.Content(sourceCode)))
		}
	}
	return mods
}

func attributes(node *sitter.Node, sourceCode []byte) []CSharpAttribute {
	var attrs []CSharpAttribute
	for i := 0; i < int(node.NamedChildCount()); i++ {
		list := node.NamedChild(i)
		if list.Type() != "attribute_list" {
			continue
		}
		for j := 0; j < int(list.NamedChildCount()); j++ {
			attr := list.NamedChild(j)
			if attr.Type() != "attribute" {
				continue
			}
			nameNode := attr.ChildByFieldName("name")
			if nameNode == nil && attr.NamedChildCount() > 0 {
				nameNode = attr.NamedChild(0)
			}
			if nameNode == nil {
				continue
			}
			a := CSharpAttribute{Name: nameNode.Content(sourceCode)}
			if argList := firstChildOfType(attr, "attribute_argument_list"); argList != nil {
				for k := 0; k < int(argList.NamedChildCount()); k++ {
					arg := argList.NamedChild(k)
					if arg.Type() == "attribute_argument" {
						a.Args = append(a.Args, strings.TrimSpace(arg.Content(sourceCode)))
					}
				}
			}
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func bases(node *sitter.Node, sourceCode []byte) []string {
	list := firstChildOfType(node, "base_list")
	if list == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		if child.Type() == "argument_list" || child.Type() == "comment" {
			continue
		}
		out = append(out, strings.TrimSpace(child.Content(sourceCode)))
	}
	return out
}

func parameters(node *sitter.Node, sourceCode []byte) []CSharpParam {
	params := []CSharpParam{}
	list := node.ChildByFieldName("parameters")
	if list == nil {
		list = firstChildOfType(node, "parameter_list")
	}
	if list == nil {
		return params
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		if p.Type() != "parameter" {
			continue
		}
		typeNode := p.ChildByFieldName("type")
		nameNode := p.ChildByFieldName("name")
		if typeNode == nil || nameNode == nil {
			// Fall back to positional children: [..., type, name].
			var parts []*sitter.Node
			for j := 0; j < int(p.NamedChildCount()); j++ {
				c := p.NamedChild(j)
				switch c.Type() {
				case "attribute_list", "parameter_modifier", "modifier", "equals_value_clause":
					continue
				}
				parts = append(parts, c)
			}
			if len(parts) < 2 {
				continue
			}
			typeNode, nameNode = parts[len(parts)-2], parts[len(parts)-1]
		}
		params = append(params, CSharpParam{
			Name: nameNode.Content(sourceCode),
			Type: strings.TrimSpace(typeNode.Content(sourceCode)),
		})
	}
	return params
}

func enclosingNamespace(node *sitter.Node, sourceCode []byte) string {
	var parts []string
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Type() != "namespace_declaration" {
			continue
		}
		if nameNode := p.ChildByFieldName("name"); nameNode != nil {
			parts = append([]string{nameNode.Content(sourceCode)}, parts...)
		}
	}
	return strings.Join(parts, ".")
}

func enclosingTypes(node *sitter.Node, sourceCode []byte) string {
	var parts []string
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_declaration", "interface_declaration", "struct_declaration", "record_declaration":
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				parts = append([]string{nameNode.Content(sourceCode)}, parts...)
			}
		}
	}
	return strings.Join(parts, ".")
}

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == typ {
			return child
		}
	}
	return nil
}

func cleanDocComment(rawComment string) string {
	if rawComment == "" {
		return ""
	}
	lines := strings.Split(rawComment, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "///")
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "<summary>")
		l = strings.TrimSuffix(l, "</summary>")
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		cleaned = append(cleaned, l)
	}
	return strings.Join(cleaned, "\n")
}
