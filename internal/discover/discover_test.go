package discover

import (
	"testing"

	"aotbridge/internal/bridge"
	"aotbridge/internal/builder"
	"aotbridge/internal/catalog"
	"aotbridge/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appManifest = `
types:
  - name: App.Y
    pos: {file: b.cs, line: 3}
    methods:
      - {name: Fire, return: void, public: true, native_callback: true}
  - name: App.X
    pos: {file: a.cs, line: 10}
    methods:
      - {name: Go, return: int, public: true, native_callback: true, parameters: [{name: n, type: int}]}
      - {name: Stay, return: void, public: true}
      - {name: Raw, return: void, public: true, native_callback: true, callback_template: "void {name}(void*)", parameters: [{name: p, type: "void*"}]}
  - name: App.ISink
    kind: interface
    pos: {file: a.cs, line: 1}
    methods:
      - {name: Write, return: void, public: true, parameters: [{name: v, type: int}]}
      - {name: Flush, return: int, public: true}
  - name: App.SinkBase
    pos: {file: c.cs, line: 1}
    abstract: true
    bases: [ISink]
    methods:
      - {name: Flush, return: int, public: true}
  - name: App.FastSink
    pos: {file: c.cs, line: 20}
    bases: [SinkBase]
    markers: {replaces_interface: ISink}
    methods:
      - {name: Write, return: void, public: true, parameters: [{name: v, type: int}]}
  - name: App.Pump
    pos: {file: c.cs, line: 40}
    markers: {worker: true}
`

func load(t *testing.T, src string) *catalog.Catalog {
	t.Helper()
	c, err := catalog.ParseManifest([]byte(src), "app.yaml")
	require.NoError(t, err)
	return c
}

func TestDiscover_Order(t *testing.T) {
	c := load(t, appManifest)
	reqs, err := Discover(c)
	require.NoError(t, err)

	var got []string
	for _, r := range reqs {
		got = append(got, r.String())
	}
	assert.Equal(t, []string{
		"callback App.X.Go",
		"callback App.X.Raw",
		"callback App.Y.Fire",
		"replacement App.FastSink.Write",
		"replacement App.FastSink.Flush",
		"worker App.Pump",
	}, got)

	flush := reqs[4]
	assert.Equal(t, "App.ISink", flush.Interface.Name)
	assert.Equal(t, "Flush", flush.InterfaceMethod.Name)
}

func TestApply(t *testing.T) {
	c := load(t, appManifest)
	reqs, err := Discover(c)
	require.NoError(t, err)

	cr := resolver.NewConstructorResolver(resolver.NewInterfaceResolverForCatalog(c), nil)
	g := bridge.NewGenerator(builder.New(cr), bridge.Options{})
	results, err := Apply(g, reqs)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i := 0; i < 5; i++ {
		assert.Equal(t, i, results[i].Handle)
	}
	assert.Equal(t, -1, results[5].Handle)
	require.NotNil(t, results[5].Factory)
	assert.Equal(t, "CreatePump", results[5].Factory.Name)

	regs := g.Registry().Registrations()
	assert.Equal(t, bridge.SignatureTemplate("void {name}(void*)"), regs[1].Template)
	assert.Equal(t, "FastSink_Flush", regs[4].Adapter.Name)

	out, err := g.Render()
	require.NoError(t, err)
	assert.Contains(t, out.Native, "void X_Raw(void*);")
	assert.Contains(t, out.Managed, "return fastSink.Flush();")
}

func TestDiscover_Errors(t *testing.T) {
	_, err := Discover(load(t, `
types:
  - name: App.Hidden
    methods:
      - {name: Go, return: void, public: false, native_callback: true}
`))
	assert.ErrorContains(t, err, "must be public")

	_, err = Discover(load(t, `
types:
  - name: App.IFoo
    kind: interface
  - name: App.Lost
    markers: {replaces_interface: IFoo}
`))
	assert.ErrorContains(t, err, "does not implement")

	_, err = Discover(load(t, `
types:
  - name: App.IFoo
    kind: interface
    methods: [{name: Run, return: void, public: true}]
  - name: App.Partial
    bases: [IFoo]
    markers: {replaces_interface: IFoo}
`))
	assert.ErrorContains(t, err, "no public implementation of App.IFoo.Run")

	_, err = Discover(load(t, `
types:
  - name: App.Odd
    markers: {replaces_interface: Missing}
`))
	assert.ErrorContains(t, err, "not a known interface")
}
