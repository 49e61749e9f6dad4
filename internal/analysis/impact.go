package analysis

import (
	"path/filepath"
	"strings"

	"aotbridge/internal/git"
	"aotbridge/internal/graph"
)

// ImpactReport summarizes the types affected by changes.
type ImpactReport struct {
	DirectlyAffected   []*graph.Node
	IndirectlyAffected []*graph.Node
}

// Affected returns the IDs of every affected type, direct ones first.
func (r *ImpactReport) Affected() map[string]bool {
	out := make(map[string]bool, len(r.DirectlyAffected)+len(r.IndirectlyAffected))
	for _, n := range r.DirectlyAffected {
		out[n.ID()] = true
	}
	for _, n := range r.IndirectlyAffected {
		out[n.ID()] = true
	}
	return out
}

// Analyzer performs impact analysis on the dependency graph.
type Analyzer struct {
	g    *graph.Graph
	root string
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// WithRoot makes relative paths, on either side, relative to root.
func (a *Analyzer) WithRoot(root string) *Analyzer {
	a.root = root
	return a
}

func (a *Analyzer) path(p string) string {
	p = filepath.Clean(p)
	if a.root == "" || filepath.IsAbs(p) {
		return p
	}
	root := filepath.Clean(a.root)
	if root != "." && strings.HasPrefix(p, root+string(filepath.Separator)) {
		return p
	}
	return filepath.Join(root, p)
}

// AnalyzeImpact finds the types declared on changed lines, then every type
// that transitively constructs, inherits or implements one of them, since
// their generated construction code may change too.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.Node{},
		IndirectlyAffected: []*graph.Node{},
	}

	seen := make(map[string]bool)

	// 1. Find Direct Impacts
	for _, id := range a.g.NodeIDs() {
		node := a.g.Nodes[id]
		for _, change := range changes {
			if a.path(node.Type.Pos.File) != a.path(change.Path) {
				continue
			}
			if isAffected(node, change.ChangedLines) && !seen[id] {
				report.DirectlyAffected = append(report.DirectlyAffected, node)
				seen[id] = true
			}
		}
	}

	// 2. Find Indirect Impacts (dependents, transitively)
	queue := append([]*graph.Node(nil), report.DirectlyAffected...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range a.g.GetDependents(cur.ID()) {
			if seen[dep.ID()] {
				continue
			}
			seen[dep.ID()] = true
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			queue = append(queue, dep)
		}
	}

	return report
}

func isAffected(node *graph.Node, lines []int) bool {
	if len(lines) == 0 {
		return true
	}
	for _, line := range lines {
		if node.Type.Spans(line) {
			return true
		}
	}
	return false
}
