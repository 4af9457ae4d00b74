package number

import (
	"strconv"
	"strings"
)

// String renders n in the bracketed literal form accepted by Parse.
func (n *Number) String() string {
	return n.Render(n.root)
}

// Render renders the subtree rooted at h. A consumed number renders as
// "<consumed>".
func (n *Number) Render(h Handle) string {
	if n.consumed {
		return "<consumed>"
	}
	var b strings.Builder
	n.write(&b, h)
	return b.String()
}

func (n *Number) write(b *strings.Builder, h Handle) {
	nd := &n.nodes[h]
	if nd.kind == KindLeaf {
		b.WriteString(strconv.Itoa(nd.value))
		return
	}
	b.WriteByte('[')
	n.write(b, nd.first)
	b.WriteByte(',')
	n.write(b, nd.second)
	b.WriteByte(']')
}
