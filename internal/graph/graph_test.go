package graph

import (
	"testing"

	"aotbridge/internal/catalog"
	"aotbridge/internal/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphManifest = `
types:
  - name: App.IRepo
    kind: interface
  - name: App.RepoBase
    abstract: true
    bases: [IRepo]
  - name: App.SqlRepo
    bases: [RepoBase]
    constructors:
      - {public: true, parameters: [{name: clock, type: Clock}]}
  - name: App.MemRepo
    bases: [IRepo]
  - name: App.Clock
  - name: App.Settings
    markers: {configuration_root: true}
  - name: App.IPlugin
    kind: interface
  - name: App.P1
    bases: [IPlugin]
  - name: App.Service
    constructors:
      - public: true
        parameters:
          - {name: repo, type: IRepo}
          - {name: clock, type: Clock}
          - {name: plugins, type: "IPlugin[]"}
          - {name: settings, type: Settings}
          - {name: missing, type: IMissing}
  - name: App.Ping
    constructors:
      - {public: true, parameters: [{name: pong, type: Pong}]}
  - name: App.Pong
    constructors:
      - {public: true, parameters: [{name: ping, type: Ping}]}
  - name: App.Locked
    constructors:
      - {public: false}
`

func build(t *testing.T) *Graph {
	t.Helper()
	c, err := catalog.ParseManifest([]byte(graphManifest), "graph.yaml")
	require.NoError(t, err)
	cfg, err := resolver.NewRootConfigResolver(c, "")
	require.NoError(t, err)
	cr := resolver.NewConstructorResolver(resolver.NewInterfaceResolverForCatalog(c), cfg)
	return Build(c, cr)
}

func hasEdge(g *Graph, from, to string, kind RelationKind) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestBuild_Edges(t *testing.T) {
	g := build(t)

	assert.Len(t, g.Nodes, 12)
	assert.Equal(t, "App.IRepo", g.NodeIDs()[0])

	assert.True(t, hasEdge(g, "App.RepoBase", "App.IRepo", RelationImplements))
	assert.True(t, hasEdge(g, "App.SqlRepo", "App.RepoBase", RelationInherits))
	assert.True(t, hasEdge(g, "App.SqlRepo", "App.Clock", RelationDepends))
	assert.True(t, hasEdge(g, "App.Service", "App.Clock", RelationDepends))
	assert.True(t, hasEdge(g, "App.Service", "App.P1", RelationArray))
	assert.True(t, hasEdge(g, "App.Service", "App.Settings", RelationConfig))
	assert.False(t, hasEdge(g, "App.Service", "App.SqlRepo", RelationDepends), "ambiguous parameter has no edge")

	deps := g.GetDependents("App.Clock")
	require.Len(t, deps, 2)
	assert.Equal(t, "App.SqlRepo", deps[0].ID())
	assert.Equal(t, "App.Service", deps[1].ID())
}

func TestBuild_EdgeKindCounts(t *testing.T) {
	g := build(t)

	assert.Equal(t, map[RelationKind]int{
		RelationImplements: 3,
		RelationInherits:   1,
		RelationDepends:    4,
		RelationArray:      1,
		RelationConfig:     1,
	}, g.EdgeKindCounts())

	var empty *Graph
	assert.Empty(t, empty.EdgeKindCounts())
}

func TestBuild_UnresolvedReasons(t *testing.T) {
	g := build(t)

	counts := g.UnresolvedReasonCounts()
	assert.Equal(t, 1, counts[ReasonAmbiguous])
	assert.Equal(t, 1, counts[ReasonNoCandidate])
	assert.Equal(t, 1, counts[ReasonNoConstructor])
	assert.Equal(t, 1, counts[ReasonCyclic])

	svc := g.UnresolvedFor("App.Service")
	require.Len(t, svc, 2)
	assert.Equal(t, "repo", svc[0].Parameter)
	assert.Contains(t, svc[0].Message, "multiple dependencies found for App.IRepo")
	assert.Equal(t, "missing", svc[1].Parameter)
	assert.Equal(t, "IMissing", svc[1].Target)
	assert.Equal(t, "graph.yaml", svc[1].Pos.File)

	cyc := g.UnresolvedFor("App.Pong")
	require.Len(t, cyc, 1)
	assert.Equal(t, "App.Ping", cyc[0].Target)
	assert.Contains(t, cyc[0].Message, "cyclic dependency detected while constructing App.Ping")
}

func TestSubgraph(t *testing.T) {
	g := build(t)

	sg := g.Subgraph("App.SqlRepo", 1)
	assert.Equal(t, []string{"App.Clock", "App.RepoBase", "App.SqlRepo"}, sg.NodeIDs())
	assert.Len(t, sg.Edges, 2)
	assert.Equal(t, "App.SqlRepo", sg.Edges[0].From)
	assert.Equal(t, "App.Clock", sg.Edges[0].To)

	sg = g.Subgraph("App.SqlRepo", 2)
	assert.Contains(t, sg.NodeIDs(), "App.IRepo")
	assert.Contains(t, sg.NodeIDs(), "App.Service")

	sg = g.Subgraph("App.Service", 0)
	assert.Equal(t, []string{"App.Service"}, sg.NodeIDs())
	assert.Empty(t, sg.Edges)
	assert.Len(t, sg.Unresolved, 2)

	assert.Empty(t, g.Subgraph("App.Nope", 3).Nodes)
}

func TestMermaid(t *testing.T) {
	full := build(t).Mermaid()
	assert.Contains(t, full, "    App_Service --> \"*\" App_P1 : plugins\n")
	assert.Contains(t, full, "    App_Service ..> App_Settings : settings\n")
	assert.Contains(t, full, "        <<configuration>>\n")


	g := build(t).Subgraph("App.SqlRepo", 2)
	out := g.Mermaid()

	assert.Contains(t, out, "```mermaid\nclassDiagram\n")
	assert.Contains(t, out, "    class App_IRepo[\"App.IRepo\"] {\n        <<interface>>\n    }\n")
	assert.Contains(t, out, "        <<abstract>>\n")
	assert.Contains(t, out, "    App_SqlRepo --|> App_RepoBase\n")
	assert.Contains(t, out, "    App_RepoBase ..|> App_IRepo\n")
	assert.Contains(t, out, "    App_SqlRepo --> App_Clock : clock\n")
	assert.NotContains(t, out, "App_P1")
	assert.Contains(t, out, "    %% ambiguous: App.Service App.IRepo\n")
}
