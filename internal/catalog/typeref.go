package catalog

import (
	"fmt"
	"strings"
)

// TypeRef is a parsed type reference as written in a signature.
type TypeRef struct {
	Name    string    // possibly qualified; "" never valid
	Args    []TypeRef // generic arguments
	Pointer int       // number of trailing '*'
	Rank    int       // number of array suffixes

	// Dims holds the dimension count of each array suffix, leftmost
	// first. Nil when every suffix is one-dimensional.
	Dims []int
}

// ParseTypeRef parses references such as "int", "App.IFoo", "IList<IFoo>",
// "int*" and "IFoo[]". Nullable markers are dropped.
func ParseTypeRef(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeRef{}, fmt.Errorf("empty type reference")
	}

	var ref TypeRef
	var dims []int
	for {
		switch {
		case strings.HasSuffix(s, "?"):
			s = strings.TrimSpace(strings.TrimSuffix(s, "?"))
			continue
		case strings.HasSuffix(s, "]"):
			open := strings.LastIndex(s, "[")
			if open < 0 || strings.Trim(s[open+1:len(s)-1], ", ") != "" {
				return TypeRef{}, fmt.Errorf("invalid array type %q", s)
			}
			ref.Rank++
			dims = append([]int{strings.Count(s[open:], ",") + 1}, dims...)
			s = strings.TrimSpace(s[:open])
			continue
		case strings.HasSuffix(s, "*"):
			ref.Pointer++
			s = strings.TrimSpace(strings.TrimSuffix(s, "*"))
			continue
		}
		break
	}

	if lt := strings.Index(s, "<"); lt >= 0 {
		if !strings.HasSuffix(s, ">") {
			return TypeRef{}, fmt.Errorf("invalid generic type %q", s)
		}
		parts, err := splitTopLevel(s[lt+1 : len(s)-1])
		if err != nil {
			return TypeRef{}, fmt.Errorf("invalid generic type %q: %w", s, err)
		}
		for _, p := range parts {
			arg, err := ParseTypeRef(p)
			if err != nil {
				return TypeRef{}, err
			}
			ref.Args = append(ref.Args, arg)
		}
		s = strings.TrimSpace(s[:lt])
	}

	s = strings.TrimPrefix(s, "global::")
	if s == "" {
		return TypeRef{}, fmt.Errorf("missing type name")
	}
	ref.Name = s
	ref.Dims = compactDims(dims)
	return ref, nil
}

func compactDims(dims []int) []int {
	for _, d := range dims {
		if d != 1 {
			return dims
		}
	}
	return nil
}

// MustParseTypeRef is ParseTypeRef for literals known to be valid.
func MustParseTypeRef(s string) TypeRef {
	ref, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced '>'")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '<'")
	}
	return append(parts, s[start:]), nil
}

func (r TypeRef) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range r.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	sb.WriteString(strings.Repeat("*", r.Pointer))
	sb.WriteString(r.ArraySuffix())
	return sb.String()
}

// Dimensions returns the dimension count of the outermost array suffix,
// or 0 for a non-array reference.
func (r TypeRef) Dimensions() int {
	switch {
	case r.Rank == 0:
		return 0
	case len(r.Dims) == 0:
		return 1
	}
	return r.Dims[0]
}

// ArraySuffix renders the array suffixes, e.g. "[,][]".
func (r TypeRef) ArraySuffix() string {
	var sb strings.Builder
	for i := 0; i < r.Rank; i++ {
		sb.WriteByte('[')
		if i < len(r.Dims) {
			sb.WriteString(strings.Repeat(",", r.Dims[i]-1))
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// IsArray reports whether r has at least one array suffix.
func (r TypeRef) IsArray() bool {
	return r.Rank > 0
}

// Elem returns the element type of an array reference.
func (r TypeRef) Elem() TypeRef {
	if r.Rank == 0 {
		return r
	}
	e := r
	e.Rank--
	if len(r.Dims) > 0 {
		e.Dims = compactDims(append([]int(nil), r.Dims[1:]...))
	}
	return e
}

// IsVoid reports whether r is the void return type.
func (r TypeRef) IsVoid() bool {
	return r.Name == "void" && r.Pointer == 0 && r.Rank == 0
}

// SimpleName returns the last dotted segment of the name.
func (r TypeRef) SimpleName() string {
	return SimpleName(r.Name)
}

// SimpleName returns the last dotted segment of a qualified name.
func SimpleName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// MarshalYAML renders the reference in source syntax.
func (r TypeRef) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// UnmarshalYAML accepts the source syntax used by MarshalYAML.
func (r *TypeRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseTypeRef(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
