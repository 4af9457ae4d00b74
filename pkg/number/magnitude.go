package number

// Magnitude returns 3*magnitude(first) + 2*magnitude(second), with a regular
// value being its own magnitude. A consumed number has magnitude 0.
func (n *Number) Magnitude() int {
	if n.consumed {
		return 0
	}
	return n.MagnitudeOf(n.root)
}

// MagnitudeOf returns the magnitude of the subtree rooted at h.
func (n *Number) MagnitudeOf(h Handle) int {
	if n.consumed {
		return 0
	}
	nd := n.nodes[h]
	if nd.kind == KindLeaf {
		return nd.value
	}
	return 3*n.MagnitudeOf(nd.first) + 2*n.MagnitudeOf(nd.second)
}
