package graph

import (
	"fmt"
	"strings"
)

// Mermaid renders the graph as a fenced Mermaid class diagram.
func (g *Graph) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("classDiagram\n")

	for _, id := range g.order {
		n := g.Nodes[id]
		sb.WriteString(fmt.Sprintf("    class %s[\"%s\"] {\n", mermaidID(id), id))
		switch {
		case n.Type.IsInterface():
			sb.WriteString("        <<interface>>\n")
		case n.Type.Abstract:
			sb.WriteString("        <<abstract>>\n")
		case n.Type.Markers.Worker:
			sb.WriteString("        <<worker>>\n")
		case n.Type.Markers.ConfigurationRoot:
			sb.WriteString("        <<configuration>>\n")
		}
		sb.WriteString("    }\n")
	}

	for _, e := range g.Edges {
		from, to := mermaidID(e.From), mermaidID(e.To)
		switch e.Kind {
		case RelationInherits:
			sb.WriteString(fmt.Sprintf("    %s --|> %s\n", from, to))
		case RelationImplements:
			sb.WriteString(fmt.Sprintf("    %s ..|> %s\n", from, to))
		case RelationArray:
			sb.WriteString(fmt.Sprintf("    %s --> \"*\" %s : %s\n", from, to, e.Parameter))
		case RelationConfig:
			sb.WriteString(fmt.Sprintf("    %s ..> %s : %s\n", from, to, e.Parameter))
		default:
			sb.WriteString(fmt.Sprintf("    %s --> %s : %s\n", from, to, e.Parameter))
		}
	}

	for _, u := range g.Unresolved {
		sb.WriteString(fmt.Sprintf("    %%%% %s: %s\n", u.Reason, strings.TrimSpace(u.From+" "+u.Target)))
	}

	sb.WriteString("```\n")
	return sb.String()
}

func mermaidID(name string) string {
	r := strings.NewReplacer(".", "_", "<", "_", ">", "_", ",", "_", " ", "")
	return r.Replace(name)
}
