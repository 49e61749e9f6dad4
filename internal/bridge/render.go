package bridge

import (
	"fmt"
	"strings"
	"text/template"

	"aotbridge/internal/builder"
)

// Output holds both generated artifacts. They are produced together or not
// at all.
type Output struct {
	Managed string
	Native  string
}

type managedAdapter struct {
	Name       string
	HandleName string
	Handle     int
	Returns    string
	Params     string
	Body       []string
	Call       string
	Void       bool
}

type managedWorker struct {
	Name    string
	Returns string
	Body    []string
	Result  string
}

type nativeEntry struct {
	Decl   string
	Name   string
	Member string
}

const managedTemplate = `// <auto-generated/>
#nullable disable
using System.Runtime.CompilerServices;
using System.Runtime.InteropServices;

namespace {{.Namespace}}
{
    public static {{if .Unsafe}}unsafe {{end}}class {{.Class}}
    {
{{- range .Adapters}}
        public const int {{.HandleName}} = {{.Handle}};
{{- end}}
{{- range .Adapters}}

        [UnmanagedCallersOnly(CallConvs = new[] { typeof(CallConvCdecl) }, EntryPoint = "{{.Name}}")]
        public static {{.Returns}} {{.Name}}({{.Params}})
        {
{{- range .Body}}
            {{.}}
{{- end}}
            {{if not .Void}}return {{end}}{{.Call}};
        }
{{- end}}
{{- range .Workers}}

        public static {{.Returns}} {{.Name}}()
        {
{{- range .Body}}
            {{.}}
{{- end}}
            return {{.Result}};
        }
{{- end}}
    }
}
`

const nativeTemplate = `/* <auto-generated/> */
#ifndef {{.Guard}}
#define {{.Guard}}

#include <stdint.h>

#define {{.Count}} {{len .Entries}}
{{- if .Entries}}
{{range .Entries}}
{{.Decl}};
{{- end}}

typedef union {{.Union}} {
{{- range .Members}}
    {{.}};
{{- end}}
} {{.Union}};

static const {{.Union}} {{.Table}}[{{.Count}}] = {
{{- range .Entries}}
    { .{{.Member}} = {{.Name}} },
{{- end}}
};
{{- end}}

#endif /* {{.Guard}} */
`

var (
	managedTmpl = template.Must(template.New("managed").Parse(managedTemplate))
	nativeTmpl  = template.Must(template.New("native").Parse(nativeTemplate))
)

// Render produces the managed class and the native header. The Nth
// registration is the Nth handle constant, the Nth forward declaration and
// the Nth table entry.
func (g *Generator) Render() (*Output, error) {
	regs := g.registry.Registrations()

	unsafe := false
	adapters := make([]managedAdapter, 0, len(regs))
	for _, reg := range regs {
		a := reg.Adapter
		m := a.Method
		params := make([]string, len(m.Parameters))
		args := make([]string, len(m.Parameters))
		for i, p := range m.Parameters {
			params[i] = builder.TypeName(p.Type) + " " + p.Name
			args[i] = p.Name
			unsafe = unsafe || p.Type.Pointer > 0
		}
		unsafe = unsafe || m.Return.Pointer > 0
		ma := managedAdapter{
			Name:       a.Name,
			HandleName: a.HandleName,
			Handle:     reg.Handle,
			Returns:    builder.TypeName(m.Return),
			Params:     strings.Join(params, ", "),
			Call:       fmt.Sprintf("%s.%s(%s)", a.Receiver(), m.Name, strings.Join(args, ", ")),
			Void:       m.Return.IsVoid(),
		}
		if a.Construction != nil {
			ma.Body = a.Construction.Statements()
		}
		adapters = append(adapters, ma)
	}

	workers := make([]managedWorker, 0, len(g.workers))
	for _, w := range g.workers {
		workers = append(workers, managedWorker{
			Name:    w.Name,
			Returns: builder.TypeName(w.Type.Ref()),
			Body:    w.Construction.Statements(),
			Result:  w.Construction.Result,
		})
	}

	var managed strings.Builder
	err := managedTmpl.Execute(&managed, struct {
		Namespace string
		Class     string
		Unsafe    bool
		Adapters  []managedAdapter
		Workers   []managedWorker
	}{g.opts.Namespace, g.opts.Class, unsafe, adapters, workers})
	if err != nil {
		return nil, fmt.Errorf("rendering managed adapters: %w", err)
	}

	shapes, index := g.registry.Shapes()
	members := make([]string, len(shapes))
	for i, s := range shapes {
		members[i] = s.Member(shapeField(i))
	}
	entries := make([]nativeEntry, len(regs))
	for i, reg := range regs {
		entries[i] = nativeEntry{
			Decl:   reg.Template.Instantiate(reg.Adapter.Name),
			Name:   reg.Adapter.Name,
			Member: shapeField(index[i]),
		}
	}

	var native strings.Builder
	err = nativeTmpl.Execute(&native, struct {
		Guard   string
		Count   string
		Union   string
		Table   string
		Members []string
		Entries []nativeEntry
	}{
		Guard:   g.opts.Guard,
		Count:   strings.ToUpper(g.opts.Table) + "_COUNT",
		Union:   g.opts.Table + "_entry",
		Table:   g.opts.Table,
		Members: members,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering native glue: %w", err)
	}

	return &Output{Managed: managed.String(), Native: native.String()}, nil
}

func shapeField(i int) string {
	return fmt.Sprintf("s%d", i)
}
