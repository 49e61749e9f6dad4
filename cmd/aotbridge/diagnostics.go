package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"aotbridge/internal/graph"

	"github.com/mattn/go-isatty"
)

const (
	colorRed   = "\033[31m"
	colorBold  = "\033[1m"
	colorReset = "\033[0m"
)

// useColor reports whether w is a terminal that understands ANSI colours.
func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printDiagnostic prints err in the "file:line:col: error: message" form,
// highlighting the error marker on terminals.
func printDiagnostic(w io.Writer, err error) {
	msg := err.Error()
	if !useColor(w) {
		fmt.Fprintln(w, msg)
		return
	}
	const marker = "error:"
	if i := strings.Index(msg, marker); i >= 0 {
		msg = colorBold + msg[:i] + colorRed + marker + colorReset + colorBold + msg[i+len(marker):] + colorReset
	}
	fmt.Fprintln(w, msg)
}

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// edgeSummary renders edge counts per relation kind, e.g.
// "depends=4, implements=3".
func edgeSummary(g *graph.Graph) string {
	var parts []string
	for kind, n := range g.EdgeKindCounts() {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
	}
	if len(parts) == 0 {
		return "no edges"
	}
	return strings.Join(sortedStrings(parts), ", ")
}
