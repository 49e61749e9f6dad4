package extractor

import sitter "github.com/smacker/go-tree-sitter"

// CodeUnit is the universal container for any extracted type declaration.
type CodeUnit struct {
	ID          string      `json:"id"`
	Filepath    string      `json:"filepath"`
	Package     string      `json:"package"` // enclosing namespace
	Language    string      `json:"language"`
	StartLine   int         `json:"start_line"`
	StartColumn int         `json:"start_column"`
	EndLine     int         `json:"end_line"`
	Content     string      `json:"content"`
	UnitType    string      `json:"unit_type"` // "class" or "interface"
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Details     interface{} `json:"details"` // Language-specific details
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, file FileContext) *CodeUnit
}

// FileContext carries file-level declarations that apply to every unit in a file.
type FileContext struct {
	Namespace string   // file-scoped namespace, if any
	Usings    []string // imported namespaces
}
