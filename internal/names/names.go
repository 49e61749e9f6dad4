// Package names hands out collision-free identifiers for generated C#.
//
// A Scope lives for one generated method (locals) or one generated class
// (members). Nothing here is global; a new run starts from new scopes.
package names

import (
	"strconv"
	"strings"
	"unicode"
)

// keywords are the reserved C# keywords. Contextual keywords are valid
// identifiers and are not listed.
var keywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,
}

// IsKeyword reports whether s is a reserved C# keyword.
func IsKeyword(s string) bool {
	return keywords[s]
}

// Scope tracks the identifiers taken in one generated declaration space.
type Scope struct {
	used map[string]bool
}

// NewScope returns a scope with every C# keyword already taken.
func NewScope() *Scope {
	return &Scope{used: make(map[string]bool)}
}

// Reserve marks name as taken. It reports false if it already was.
func (s *Scope) Reserve(name string) bool {
	if s.Taken(name) {
		return false
	}
	s.used[name] = true
	return true
}

// Taken reports whether name is a keyword or was handed out.
func (s *Scope) Taken(name string) bool {
	return keywords[name] || s.used[name]
}

// Next returns base if it is free, otherwise base followed by the smallest
// positive number that is free, and reserves the result.
func (s *Scope) Next(base string) string {
	base = Identifier(base)
	if s.Reserve(base) {
		return base
	}
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if s.Reserve(name) {
			return name
		}
	}
}

// Local returns a fresh local name for a value of the named type.
func (s *Scope) Local(typeName string) string {
	return s.Next(LowerCamel(simpleName(typeName)))
}

// LowerCamel lowers the first rune of s.
func LowerCamel(s string) string {
	for i, r := range s {
		return string(unicode.ToLower(r)) + s[i+len(string(r)):]
	}
	return s
}

// Identifier replaces every rune that cannot appear in a C# identifier
// with '_' and prefixes a leading digit.
func Identifier(s string) string {
	var sb strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

func simpleName(name string) string {
	if i := strings.IndexAny(name, "<["); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
