package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "csharp", "cs", "c#":
		langExt = &CSharpExtractor{}
		lang = "csharp"
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// Language returns the canonical language name.
func (e *Extractor) Language() string {
	return e.langName
}

// FileExtensions lists the source file suffixes handled by this extractor.
func (e *Extractor) FileExtensions() []string {
	switch e.langName {
	case "csharp":
		return []string{".cs"}
	}
	return nil
}

// ExtractFromFile parses a single source file and extracts all relevant code units.
func (e *Extractor) ExtractFromFile(filepath string) ([]*CodeUnit, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.ExtractFromSource(context.Background(), filepath, sourceCode)
}

// ExtractFromSource parses in-memory source. filepath is used for IDs and positions only.
func (e *Extractor) ExtractFromSource(ctx context.Context, filepath string, sourceCode []byte) ([]*CodeUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filepath, err)
	}
	defer tree.Close()

	file := e.detectFileContext(tree.RootNode(), sourceCode)

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var codeUnits []*CodeUnit
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			unit := e.langExtractor.ExtractUnit(captureName, c.Node, sourceCode, filepath, file)
			if unit != nil {
				codeUnits = append(codeUnits, unit)
			}
		}
	}

	return codeUnits, nil
}

func (e *Extractor) detectFileContext(root *sitter.Node, sourceCode []byte) FileContext {
	var file FileContext
	if e.langName != "csharp" {
		return file
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "file_scoped_namespace_declaration":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				file.Namespace = nameNode.Content(sourceCode)
			}
		case "using_directive":
			if ns := usingTarget(child.Content(sourceCode)); ns != "" {
				file.Usings = append(file.Usings, ns)
			}
		}
	}

	// Usings nested in block namespaces apply to the whole file as well.
	usingQuery, err := sitter.NewQuery([]byte(`(namespace_declaration (declaration_list (using_directive) @using))`), e.langExtractor.GetLanguage())
	if err != nil {
		return file
	}
	defer usingQuery.Close()
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(usingQuery, root)
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			if ns := usingTarget(c.Node.Content(sourceCode)); ns != "" {
				file.Usings = append(file.Usings, ns)
			}
		}
	}
	return file
}

// usingTarget returns the imported namespace of a using directive, or "" for
// aliases and static imports.
func usingTarget(directive string) string {
	s := strings.TrimSpace(directive)
	s = strings.TrimPrefix(s, "global ")
	s = strings.TrimSpace(strings.TrimPrefix(s, "using"))
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "static ") || strings.Contains(s, "=") {
		return ""
	}
	return s
}
