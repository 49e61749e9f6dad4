package catalog

import (
	"testing"

	"aotbridge/internal/diag"
	"aotbridge/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
types:
  - name: App.IRepo
    kind: interface
    methods:
      - name: Count
        return: int
        public: true
  - name: App.IAudited
    kind: interface
    bases: [IRepo]
  - name: App.RepoBase
    abstract: true
    bases: [IAudited]
  - name: App.Data.SqlRepo
    usings: [App]
    bases: [RepoBase]
    constructors:
      - public: true
        parameters:
          - {name: clock, type: Clock}
    methods:
      - name: Count
        return: int
        public: true
  - name: App.Clock
`

func TestParseManifest_Link(t *testing.T) {
	c, err := ParseManifest([]byte(sampleManifest), "app.yaml")
	require.NoError(t, err)
	require.True(t, c.Linked())
	assert.Equal(t, 5, c.Len())

	repo, ok := c.Lookup("App.Data.SqlRepo")
	require.True(t, ok)
	assert.Equal(t, "App.Data", repo.Namespace)
	assert.Equal(t, "App.RepoBase", repo.Base)
	assert.Empty(t, repo.Interfaces)
	assert.Equal(t, "App.Clock", repo.Constructors[0].Parameters[0].Type.Name)
	assert.Equal(t, "app.yaml", repo.Pos.File)

	audited, _ := c.Lookup("App.IAudited")
	assert.Equal(t, []string{"App.IRepo"}, audited.Interfaces)

	var names []string
	for _, st := range c.Supertypes(repo) {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"App.RepoBase", "App.IAudited", "App.IRepo"}, names)

	var classes []string
	for _, cl := range c.Classes() {
		classes = append(classes, cl.Name)
	}
	assert.Equal(t, []string{"App.Data.SqlRepo", "App.Clock"}, classes)
}

func TestCatalog_ResolveOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(&TypeDescriptor{Name: "A.Thing", Kind: KindClass}))
	require.NoError(t, c.Add(&TypeDescriptor{Name: "B.Thing", Kind: KindClass}))
	require.NoError(t, c.Add(&TypeDescriptor{Name: "A.Inner.User", Kind: KindClass}))
	require.NoError(t, c.Add(&TypeDescriptor{Name: "C.User", Kind: KindClass, Usings: []string{"B"}}))

	inner, _ := c.Lookup("A.Inner.User")
	got, ok := c.Resolve("Thing", inner)
	require.True(t, ok)
	assert.Equal(t, "A.Thing", got.Name, "enclosing namespace wins")

	cu, _ := c.Lookup("C.User")
	got, ok = c.Resolve("Thing", cu)
	require.True(t, ok)
	assert.Equal(t, "B.Thing", got.Name, "using directive")

	_, ok = c.Resolve("Thing", nil)
	assert.False(t, ok, "ambiguous simple name")

	got, ok = c.Resolve("global::B.Thing", nil)
	require.True(t, ok)
	assert.Equal(t, "B.Thing", got.Name)
}

func TestCatalog_AddMergesPartials(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(&TypeDescriptor{Name: "App.Svc", Kind: KindClass, Methods: []Method{{Name: "A"}}}))
	require.NoError(t, c.Add(&TypeDescriptor{Name: "App.Svc", Kind: KindClass, Methods: []Method{{Name: "B"}}, Markers: Markers{Worker: true}}))
	assert.Equal(t, 1, c.Len())
	svc, _ := c.Lookup("App.Svc")
	assert.Len(t, svc.Methods, 2)
	assert.True(t, svc.Markers.Worker)

	err := c.Add(&TypeDescriptor{Name: "App.Svc", Kind: KindInterface})
	assert.Error(t, err)

	c.Link()
	assert.Error(t, c.Add(&TypeDescriptor{Name: "App.Late", Kind: KindClass}))
}

func TestCatalog_Implementation(t *testing.T) {
	c, err := ParseManifest([]byte(sampleManifest), "app.yaml")
	require.NoError(t, err)

	iface, _ := c.Lookup("App.IRepo")
	repo, _ := c.Lookup("App.Data.SqlRepo")
	impl, owner, ok := c.Implementation(repo, &iface.Methods[0])
	require.True(t, ok)
	assert.Equal(t, "Count", impl.Name)
	assert.Same(t, repo, owner)
}

func TestFromCodeUnit(t *testing.T) {
	unit := &extractor.CodeUnit{
		ID:          "Mail.cs:Mailer:3",
		Filepath:    "Mail.cs",
		Package:     "App",
		UnitType:    "class",
		Name:        "Mailer",
		StartLine:   3,
		StartColumn: 5,
		EndLine:     12,
		Details: extractor.CSharpTypeDetails{
			Modifiers: []string{"public"},
			Attributes: []extractor.CSharpAttribute{
				{Name: "ReplacesInterfaceAttribute", Args: []string{"typeof(IMailer)"}},
				{Name: "Worker"},
			},
			Bases: []string{"IMailer"},
			Constructors: []extractor.CSharpConstructor{
				{Modifiers: []string{"public"}, Parameters: []extractor.CSharpParam{{Name: "h", Type: "IHandler[]"}}, Line: 5},
				{Modifiers: []string{"internal"}, Parameters: []extractor.CSharpParam{}, Line: 6},
			},
			Methods: []extractor.CSharpMethod{
				{
					Name:       "Send",
					Returns:    "int",
					Modifiers:  []string{"public"},
					Attributes: []extractor.CSharpAttribute{{Name: "NativeCallback", Args: []string{`"int32_t {name}(int32_t)"`}}},
					Parameters: []extractor.CSharpParam{{Name: "n", Type: "int"}},
					Line:       8,
				},
			},
		},
	}

	td, err := FromCodeUnit(unit)
	require.NoError(t, err)
	assert.Equal(t, "App.Mailer", td.Name)
	assert.Equal(t, KindClass, td.Kind)
	assert.False(t, td.Abstract)
	assert.Equal(t, "IMailer", td.Markers.ReplacesInterface)
	assert.True(t, td.Markers.Worker)
	assert.Equal(t, diag.Position{File: "Mail.cs", Line: 3, Column: 5}, td.Pos)
	assert.Equal(t, 12, td.EndLine)

	require.Len(t, td.Constructors, 2)
	assert.True(t, td.Constructors[0].Public)
	assert.False(t, td.Constructors[1].Public)
	assert.Equal(t, 1, td.Constructors[0].Parameters[0].Type.Rank)

	require.Len(t, td.Methods, 1)
	assert.True(t, td.Methods[0].NativeCallback)
	assert.Equal(t, "int32_t {name}(int32_t)", td.Methods[0].CallbackTemplate)
}

func TestTypeDescriptor_Spans(t *testing.T) {
	td := &TypeDescriptor{Pos: diag.Position{File: "a.cs", Line: 4}, EndLine: 9}
	assert.False(t, td.Spans(3))
	assert.True(t, td.Spans(4))
	assert.True(t, td.Spans(9))
	assert.False(t, td.Spans(10))

	td.EndLine = 0
	assert.True(t, td.Spans(4))
	assert.False(t, td.Spans(5))
}

func TestMarshalManifest_RoundTrip(t *testing.T) {
	c, err := ParseManifest([]byte(sampleManifest), "app.yaml")
	require.NoError(t, err)

	out, err := c.MarshalManifest()
	require.NoError(t, err)

	again, err := ParseManifest(out, "again.yaml")
	require.NoError(t, err)
	assert.Equal(t, c.Len(), again.Len())
	repo, ok := again.Lookup("App.Data.SqlRepo")
	require.True(t, ok)
	assert.Equal(t, "App.RepoBase", repo.Base)
}

func TestParseManifest_SchemaValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "misspelled key", src: "types:\n  - name: App.A\n    constructor:\n      - {public: true}\n", want: "constructor"},
		{name: "unknown kind", src: "types:\n  - {name: App.A, kind: struct}\n", want: "kind"},
		{name: "missing name", src: "types:\n  - {kind: class}\n", want: "name"},
		{name: "parameter without type", src: "types:\n  - name: App.A\n    constructors:\n      - {public: true, parameters: [{name: x}]}\n", want: "type"},
		{name: "unknown top level", src: "kinds: []\n", want: "kinds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.src), "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.yaml")
			assert.Contains(t, err.Error(), "schema validation failed")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateManifest_Accepts(t *testing.T) {
	assert.NoError(t, ValidateManifest([]byte(sampleManifest)))
	assert.NoError(t, ValidateManifest([]byte("")))
	assert.NoError(t, ValidateManifest([]byte("types:\n")))

	c, err := ParseManifest([]byte(sampleManifest), "app.yaml")
	require.NoError(t, err)
	out, err := c.MarshalManifest()
	require.NoError(t, err)
	assert.NoError(t, ValidateManifest(out))
}
