// Package number implements snailfish numbers: binary trees of pairs and
// regular values that are added, reduced and folded into a magnitude.
package number

import (
	"github.com/pkg/errors"
)

var (
	// ErrMalformed is wrapped by every error returned for text that is not a snailfish number.
	ErrMalformed = errors.New("malformed snailfish number")

	// ErrInvariant is wrapped by errors (and panics) that indicate the rewrite rules broke the tree.
	ErrInvariant = errors.New("snailfish number invariant violated")

	// ErrConsumed is returned when a number that was given to Add is used again.
	ErrConsumed = errors.New("snailfish number already consumed by an addition")

	// ErrEmpty is returned when there is nothing to add.
	ErrEmpty = errors.New("no snailfish numbers")
)

// Kind is the variant of a node: a regular value (leaf) or a pair.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindPair
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindPair:
		return "pair"
	default:
		return "unknown"
	}
}

// Handle is the index of a node inside the arena of the Number that owns it.
//
// Handles are only meaningful for the Number they were obtained from, and only
// until the next mutation of that Number.
type Handle int32

// NoHandle is the parent of the root, and the children of a leaf.
const NoHandle Handle = -1

type node struct {
	kind   Kind
	value  int
	parent Handle
	first  Handle
	second Handle

	// free is set while the slot sits on the free list.
	free bool
}

// Number is a snailfish number stored as an arena of nodes.
//
// Children and parents are handles into the arena rather than pointers, so
// moving a subtree under a new owner is a matter of re-pointing indices.
type Number struct {
	nodes    []node
	freeList []Handle
	root     Handle

	// consumed is set once the number has been handed to Add.
	consumed bool
}

func (n *Number) alloc(nd node) Handle {
	if k := len(n.freeList); k > 0 {
		h := n.freeList[k-1]
		n.freeList = n.freeList[:k-1]
		n.nodes[h] = nd
		return h
	}
	n.nodes = append(n.nodes, nd)
	return Handle(len(n.nodes) - 1)
}

func (n *Number) release(h Handle) {
	n.nodes[h] = node{parent: NoHandle, first: NoHandle, second: NoHandle, free: true}
	n.freeList = append(n.freeList, h)
}

// newLeaf allocates a detached leaf.
func (n *Number) newLeaf(value int) Handle {
	return n.alloc(node{kind: KindLeaf, value: value, parent: NoHandle, first: NoHandle, second: NoHandle})
}

// newPair allocates a detached pair. The children's parent handles are left
// to the caller.
func (n *Number) newPair(first, second Handle) Handle {
	return n.alloc(node{kind: KindPair, parent: NoHandle, first: first, second: second})
}

// link sets the parent of h and, recursively, of everything below it.
func (n *Number) link(h, parent Handle) {
	n.nodes[h].parent = parent
	if n.nodes[h].kind == KindPair {
		n.link(n.nodes[h].first, h)
		n.link(n.nodes[h].second, h)
	}
}

func (n *Number) consume() {
	n.nodes = nil
	n.freeList = nil
	n.root = NoHandle
	n.consumed = true
}

// Consumed reports whether the number was handed to Add and may no longer be used.
func (n *Number) Consumed() bool {
	return n.consumed
}

// Root returns the handle of the root node.
func (n *Number) Root() Handle {
	return n.root
}

// Kind returns the variant of node h.
func (n *Number) Kind(h Handle) Kind {
	return n.nodes[h].kind
}

// Value returns the regular value of leaf h. It is zero for pairs.
func (n *Number) Value(h Handle) int {
	return n.nodes[h].value
}

// Parent returns the pair owning h, or NoHandle for the root.
func (n *Number) Parent(h Handle) Handle {
	return n.nodes[h].parent
}

// First returns the left child of pair h, or NoHandle for a leaf.
func (n *Number) First(h Handle) Handle {
	return n.nodes[h].first
}

// Second returns the right child of pair h, or NoHandle for a leaf.
func (n *Number) Second(h Handle) Handle {
	return n.nodes[h].second
}

// Depth returns the number of pairs above h. The root has depth 0.
func (n *Number) Depth(h Handle) int {
	depth := 0
	for p := n.nodes[h].parent; p != NoHandle; p = n.nodes[p].parent {
		depth++
	}
	return depth
}

// Len returns the number of live nodes.
func (n *Number) Len() int {
	return len(n.nodes) - len(n.freeList)
}

// Leaves returns the leaf handles in left-to-right order.
func (n *Number) Leaves() []Handle {
	if n.consumed {
		return nil
	}
	var leaves []Handle
	var walk func(h Handle)
	walk = func(h Handle) {
		if n.nodes[h].kind == KindLeaf {
			leaves = append(leaves, h)
			return
		}
		walk(n.nodes[h].first)
		walk(n.nodes[h].second)
	}
	walk(n.root)
	return leaves
}

// Clone returns an independent deep copy of n.
//
// Add consumes its operands, so a number that must survive an addition has to
// be cloned first.
func (n *Number) Clone() *Number {
	c := &Number{
		nodes:    make([]node, len(n.nodes)),
		root:     n.root,
		consumed: n.consumed,
	}
	copy(c.nodes, n.nodes)
	if len(n.freeList) > 0 {
		c.freeList = make([]Handle, len(n.freeList))
		copy(c.freeList, n.freeList)
	}
	return c
}

// Equal reports whether n and other have the same shape and values.
// Arena layout is irrelevant.
func (n *Number) Equal(other *Number) bool {
	if n.consumed || other.consumed {
		return n.consumed == other.consumed
	}
	var eq func(a, b Handle) bool
	eq = func(a, b Handle) bool {
		na, nb := n.nodes[a], other.nodes[b]
		if na.kind != nb.kind {
			return false
		}
		if na.kind == KindLeaf {
			return na.value == nb.value
		}
		return eq(na.first, nb.first) && eq(na.second, nb.second)
	}
	return eq(n.root, other.root)
}

// Validate checks the structural invariants of the tree: every pair has two
// children, every child points back at its owner, no node has two owners, and
// every slot of the arena is either reachable or on the free list.
func (n *Number) Validate() error {
	if n.consumed {
		return ErrConsumed
	}
	if n.root < 0 || int(n.root) >= len(n.nodes) {
		return errors.Wrapf(ErrInvariant, "root handle %d out of range", n.root)
	}

	seen := make([]bool, len(n.nodes))
	var walk func(h, parent Handle) error
	walk = func(h, parent Handle) error {
		if h < 0 || int(h) >= len(n.nodes) {
			return errors.Wrapf(ErrInvariant, "handle %d out of range", h)
		}
		if seen[h] {
			return errors.Wrapf(ErrInvariant, "node %d has more than one owner", h)
		}
		seen[h] = true

		nd := n.nodes[h]
		if nd.free {
			return errors.Wrapf(ErrInvariant, "node %d is reachable but on the free list", h)
		}
		if nd.parent != parent {
			return errors.Wrapf(ErrInvariant, "node %d has parent %d, want %d", h, nd.parent, parent)
		}
		switch nd.kind {
		case KindLeaf:
			if nd.value < 0 {
				return errors.Wrapf(ErrInvariant, "leaf %d has negative value %d", h, nd.value)
			}
			if nd.first != NoHandle || nd.second != NoHandle {
				return errors.Wrapf(ErrInvariant, "leaf %d has children", h)
			}
			return nil
		case KindPair:
			if err := walk(nd.first, h); err != nil {
				return err
			}
			return walk(nd.second, h)
		default:
			return errors.Wrapf(ErrInvariant, "node %d has unknown kind %d", h, nd.kind)
		}
	}
	if err := walk(n.root, NoHandle); err != nil {
		return err
	}

	free := 0
	for h, nd := range n.nodes {
		if nd.free {
			free++
			continue
		}
		if !seen[h] {
			return errors.Wrapf(ErrInvariant, "node %d is neither reachable nor free", h)
		}
	}
	if free != len(n.freeList) {
		return errors.Wrapf(ErrInvariant, "free list has %d entries, arena has %d free slots", len(n.freeList), free)
	}
	return nil
}
