package graph

import (
	"aotbridge/internal/catalog"
	"aotbridge/internal/diag"
)

type RelationKind string

const (
	RelationInherits   RelationKind = "inherits"
	RelationImplements RelationKind = "implements"
	RelationDepends    RelationKind = "depends"
	RelationArray      RelationKind = "array"
	RelationConfig     RelationKind = "config"
)

// constructs reports whether the relation makes From build To.
func (k RelationKind) constructs() bool {
	return k == RelationDepends || k == RelationArray
}

type UnresolvedReason string

const (
	ReasonNoCandidate   UnresolvedReason = "no_candidate"
	ReasonAmbiguous     UnresolvedReason = "ambiguous"
	ReasonCyclic        UnresolvedReason = "cyclic"
	ReasonNoConstructor UnresolvedReason = "no_constructor"
)

// Node is a catalog type in the graph. Its ID is the qualified type name.
type Node struct {
	Type *catalog.TypeDescriptor
}

func (n *Node) ID() string {
	return n.Type.Name
}

// Edge is a directed relation between two catalog types.
type Edge struct {
	From      string
	To        string
	Kind      RelationKind
	Parameter string // constructor parameter, for construction edges
}

// Unresolved is a construction problem recorded instead of aborting.
type Unresolved struct {
	From      string
	Target    string
	Parameter string
	Reason    UnresolvedReason
	Message   string
	Pos       diag.Position
}
