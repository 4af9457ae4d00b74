package number

import (
	"github.com/pkg/errors"
)

const (
	// explodeDepth is the depth at which a pair of two regular values explodes.
	explodeDepth = 4

	// splitThreshold is the smallest regular value that splits.
	splitThreshold = 10

	// DefaultMaxSteps bounds the rewrites a single reduction may perform.
	DefaultMaxSteps = 1 << 20
)

// Action is the rewrite rule applied by one reduction step.
type Action uint8

const (
	ActionNone Action = iota
	ActionExplode
	ActionSplit
)

func (a Action) String() string {
	switch a {
	case ActionExplode:
		return "explode"
	case ActionSplit:
		return "split"
	default:
		return "none"
	}
}

// Step describes one rewrite performed during a reduction.
type Step struct {
	// Index counts the steps of this reduction, starting at 1.
	Index  int
	Action Action
	// Target is the rewritten subtree as it was before the step.
	Target string
	// Result is the whole number after the step.
	Result string
}

// Stats counts the rewrites performed by one or more reductions.
type Stats struct {
	Explodes int
	Splits   int
}

// Steps returns the total number of rewrites.
func (s Stats) Steps() int {
	return s.Explodes + s.Splits
}

// Add returns the sum of both counts.
func (s Stats) Add(other Stats) Stats {
	return Stats{
		Explodes: s.Explodes + other.Explodes,
		Splits:   s.Splits + other.Splits,
	}
}

type reduceConfig struct {
	maxSteps int
	trace    func(Step)
	stats    *Stats
}

// ReduceOption configures Reduce, Add and Sum.
type ReduceOption func(*reduceConfig)

// WithMaxSteps overrides DefaultMaxSteps. Values below 1 are ignored.
func WithMaxSteps(n int) ReduceOption {
	return func(c *reduceConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithTrace calls f after every rewrite. Rendering the steps is not free, so
// only pass it when the output is wanted.
func WithTrace(f func(Step)) ReduceOption {
	return func(c *reduceConfig) {
		c.trace = f
	}
}

// WithStats accumulates the rewrite counts of every reduction into s.
func WithStats(s *Stats) ReduceOption {
	return func(c *reduceConfig) {
		c.stats = s
	}
}

func newReduceConfig(opts []ReduceOption) reduceConfig {
	c := reduceConfig{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Reduce applies explode and split until neither applies.
//
// Explode always wins over split, and each rule picks the leftmost candidate
// in depth-first order, so the sequence of rewrites is deterministic. A
// reduction that is still rewriting after the step limit returns an error
// wrapping ErrInvariant.
func (n *Number) Reduce(opts ...ReduceOption) (Stats, error) {
	if n.consumed {
		return Stats{}, ErrConsumed
	}
	cfg := newReduceConfig(opts)

	var stats Stats
	defer func() {
		if cfg.stats != nil {
			*cfg.stats = cfg.stats.Add(stats)
		}
	}()

	for {
		action, target := n.nextRewrite()
		if action == ActionNone {
			return stats, nil
		}
		if stats.Steps() >= cfg.maxSteps {
			return stats, errors.Wrapf(ErrInvariant, "reduction of %s still rewriting after %d steps", n, cfg.maxSteps)
		}

		var before string
		if cfg.trace != nil {
			before = n.Render(target)
		}

		switch action {
		case ActionExplode:
			n.explode(target)
			stats.Explodes++
		case ActionSplit:
			n.split(target)
			stats.Splits++
		}

		if cfg.trace != nil {
			cfg.trace(Step{
				Index:  stats.Steps(),
				Action: action,
				Target: before,
				Result: n.String(),
			})
		}
	}
}

// Reduced reports whether no rewrite applies to n.
func (n *Number) Reduced() bool {
	action, _ := n.nextRewrite()
	return action == ActionNone
}

// Explode performs a single explode on the leftmost eligible pair and reports
// whether one was found.
func (n *Number) Explode() bool {
	if n.consumed {
		return false
	}
	target := n.explodeTarget(n.root, 0)
	if target == NoHandle {
		return false
	}
	n.explode(target)
	return true
}

// Split performs a single split on the leftmost eligible value and reports
// whether one was found.
func (n *Number) Split() bool {
	if n.consumed {
		return false
	}
	target := n.splitTarget(n.root)
	if target == NoHandle {
		return false
	}
	n.split(target)
	return true
}

func (n *Number) nextRewrite() (Action, Handle) {
	if n.consumed {
		return ActionNone, NoHandle
	}
	if h := n.explodeTarget(n.root, 0); h != NoHandle {
		return ActionExplode, h
	}
	if h := n.splitTarget(n.root); h != NoHandle {
		return ActionSplit, h
	}
	return ActionNone, NoHandle
}

// explodeTarget returns the leftmost pair of two leaves nested at least
// explodeDepth pairs deep below h, which itself sits at depth.
func (n *Number) explodeTarget(h Handle, depth int) Handle {
	nd := n.nodes[h]
	if nd.kind == KindLeaf {
		return NoHandle
	}
	if depth >= explodeDepth && n.nodes[nd.first].kind == KindLeaf && n.nodes[nd.second].kind == KindLeaf {
		return h
	}
	if t := n.explodeTarget(nd.first, depth+1); t != NoHandle {
		return t
	}
	return n.explodeTarget(nd.second, depth+1)
}

func (n *Number) splitTarget(h Handle) Handle {
	nd := n.nodes[h]
	if nd.kind == KindLeaf {
		if nd.value >= splitThreshold {
			return h
		}
		return NoHandle
	}
	if t := n.splitTarget(nd.first); t != NoHandle {
		return t
	}
	return n.splitTarget(nd.second)
}

// explode adds the values of pair p to the nearest leaves on either side and
// turns p into the leaf 0. p keeps its handle, so its parent needs no update.
func (n *Number) explode(p Handle) {
	n.mustBeChild(p)
	pn := n.nodes[p]
	if pn.kind != KindPair || n.nodes[pn.first].kind != KindLeaf || n.nodes[pn.second].kind != KindLeaf {
		panic(errors.Wrapf(ErrInvariant, "explode target %d is not a pair of two leaves", p))
	}

	if h := n.leftNeighbor(p); h != NoHandle {
		n.nodes[h].value += n.nodes[pn.first].value
	}
	if h := n.rightNeighbor(p); h != NoHandle {
		n.nodes[h].value += n.nodes[pn.second].value
	}

	n.release(pn.first)
	n.release(pn.second)
	n.nodes[p] = node{kind: KindLeaf, value: 0, parent: pn.parent, first: NoHandle, second: NoHandle}
}

// split turns leaf h into a pair of its value halved, rounding down on the
// left and up on the right.
func (n *Number) split(h Handle) {
	n.mustBeChild(h)
	if n.nodes[h].kind != KindLeaf {
		panic(errors.Wrapf(ErrInvariant, "split target %d is not a leaf", h))
	}

	v := n.nodes[h].value
	first := n.newLeaf(v / 2)
	second := n.newLeaf(v - v/2)
	n.nodes[h] = node{kind: KindPair, parent: n.nodes[h].parent, first: first, second: second}
	n.nodes[first].parent = h
	n.nodes[second].parent = h
}

// leftNeighbor returns the rightmost leaf preceding the subtree h in
// left-to-right order, or NoHandle if h is leftmost.
func (n *Number) leftNeighbor(h Handle) Handle {
	for {
		parent := n.nodes[h].parent
		if parent == NoHandle {
			return NoHandle
		}
		pn := n.nodes[parent]
		if pn.second == h {
			h = pn.first
			for n.nodes[h].kind == KindPair {
				h = n.nodes[h].second
			}
			return h
		}
		h = parent
	}
}

// rightNeighbor mirrors leftNeighbor.
func (n *Number) rightNeighbor(h Handle) Handle {
	for {
		parent := n.nodes[h].parent
		if parent == NoHandle {
			return NoHandle
		}
		pn := n.nodes[parent]
		if pn.first == h {
			h = pn.second
			for n.nodes[h].kind == KindPair {
				h = n.nodes[h].first
			}
			return h
		}
		h = parent
	}
}

// mustBeChild panics unless every link on the path from h up to the root
// points both ways.
func (n *Number) mustBeChild(h Handle) {
	for {
		parent := n.nodes[h].parent
		if parent == NoHandle {
			if h != n.root {
				panic(errors.Wrapf(ErrInvariant, "node %d has no parent but is not the root", h))
			}
			return
		}
		if pn := n.nodes[parent]; pn.first != h && pn.second != h {
			panic(errors.Wrapf(ErrInvariant, "node %d is not a child of its parent %d", h, parent))
		}
		h = parent
	}
}
