package graph

func (g *Graph) UnresolvedReasonCounts() map[UnresolvedReason]int {
	counts := make(map[UnresolvedReason]int)
	if g == nil {
		return counts
	}
	for _, u := range g.Unresolved {
		reason := u.Reason
		if reason == "" {
			reason = ReasonNoCandidate
		}
		counts[reason]++
	}
	return counts
}

// EdgeKindCounts counts edges per relation kind.
func (g *Graph) EdgeKindCounts() map[RelationKind]int {
	counts := make(map[RelationKind]int)
	if g == nil {
		return counts
	}
	for _, e := range g.Edges {
		counts[e.Kind]++
	}
	return counts
}
