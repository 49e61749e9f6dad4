package bridge

import (
	"fmt"
	"strings"

	"aotbridge/internal/catalog"
	"aotbridge/internal/diag"
)

// NamePlaceholder marks where the function name goes in a signature
// template, e.g. "int32_t {name}(int32_t, double)".
const NamePlaceholder = "{name}"

// SignatureTemplate is a C function declaration with the name left open.
type SignatureTemplate string

// ParseTemplate validates a template written by hand.
func ParseTemplate(s string) (SignatureTemplate, error) {
	s = strings.TrimSpace(s)
	switch strings.Count(s, NamePlaceholder) {
	case 1:
	case 0:
		return "", fmt.Errorf("signature template %q has no %s placeholder", s, NamePlaceholder)
	default:
		return "", fmt.Errorf("signature template %q has more than one %s placeholder", s, NamePlaceholder)
	}
	open := strings.Index(s, NamePlaceholder) + len(NamePlaceholder)
	if !strings.HasPrefix(strings.TrimSpace(s[open:]), "(") || !strings.HasSuffix(s, ")") {
		return "", fmt.Errorf("signature template %q is not a function declaration", s)
	}
	return SignatureTemplate(s), nil
}

// Instantiate substitutes the function name.
func (t SignatureTemplate) Instantiate(name string) string {
	return strings.Replace(string(t), NamePlaceholder, name, 1)
}

// PointerType is the function pointer type of the template. Templates that
// differ only in the name share it, so it doubles as the shape key.
func (t SignatureTemplate) PointerType() string {
	return strings.Join(strings.Fields(t.Instantiate("(*)")), " ")
}

// Member declares a function pointer field named field.
func (t SignatureTemplate) Member(field string) string {
	return strings.Join(strings.Fields(t.Instantiate("(*"+field+")")), " ")
}

// TypeMap maps managed type names to C types. Only blittable types are
// mapped by default; bool and char are not blittable across an unmanaged
// entry point and are left out.
type TypeMap struct {
	types map[string]string
}

var blittable = map[string]string{
	"void":    "void",
	"byte":    "uint8_t",
	"sbyte":   "int8_t",
	"short":   "int16_t",
	"ushort":  "uint16_t",
	"int":     "int32_t",
	"uint":    "uint32_t",
	"long":    "int64_t",
	"ulong":   "uint64_t",
	"float":   "float",
	"double":  "double",
	"nint":    "intptr_t",
	"nuint":   "uintptr_t",
	"IntPtr":  "intptr_t",
	"UIntPtr": "uintptr_t",

	"System.Void":    "void",
	"System.Byte":    "uint8_t",
	"System.SByte":   "int8_t",
	"System.Int16":   "int16_t",
	"System.UInt16":  "uint16_t",
	"System.Int32":   "int32_t",
	"System.UInt32":  "uint32_t",
	"System.Int64":   "int64_t",
	"System.UInt64":  "uint64_t",
	"System.Single":  "float",
	"System.Double":  "double",
	"System.IntPtr":  "intptr_t",
	"System.UIntPtr": "uintptr_t",
}

// DefaultTypeMap returns the built-in blittable mapping.
func DefaultTypeMap() *TypeMap {
	tm := &TypeMap{types: make(map[string]string, len(blittable))}
	for k, v := range blittable {
		tm.types[k] = v
	}
	return tm
}

// Add maps a managed type name (as written, or qualified) to a C type.
func (tm *TypeMap) Add(managed, native string) {
	tm.types[managed] = native
}

// Lookup maps a reference. Pointers map through their pointee; arrays and
// generic instantiations never map.
func (tm *TypeMap) Lookup(ref catalog.TypeRef) (string, bool) {
	if ref.Rank > 0 || len(ref.Args) > 0 {
		return "", false
	}
	c, ok := tm.types[ref.Name]
	if !ok {
		return "", false
	}
	if c == "void" && ref.Pointer == 0 {
		return "void", true
	}
	return c + strings.Repeat("*", ref.Pointer), true
}

// NativeSignature derives the template of a callback from its managed
// signature. An unmapped parameter or return type is fatal.
func (tm *TypeMap) NativeSignature(owner *catalog.TypeDescriptor, m *catalog.Method) (SignatureTemplate, error) {
	where := m.Pos
	if !where.IsValid() {
		where = owner.Pos
	}
	method := owner.Name + "." + m.Name

	ret, ok := tm.Lookup(m.Return)
	if !ok {
		return "", diag.Unrepresentable(where, m.Return.String(), method)
	}
	params := make([]string, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		c, ok := tm.Lookup(p.Type)
		if !ok || c == "void" {
			return "", diag.Unrepresentable(where, p.Type.String(), method)
		}
		params = append(params, c)
	}
	list := strings.Join(params, ", ")
	if list == "" {
		list = "void"
	}
	return SignatureTemplate(fmt.Sprintf("%s %s(%s)", ret, NamePlaceholder, list)), nil
}
