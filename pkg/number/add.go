package number

import (
	"github.com/pkg/errors"
)

// Add returns the reduced sum [a,b].
//
// Both operands are consumed: their nodes move into the sum. Afterwards Add,
// Sum, Reduce and Validate reject a and b with ErrConsumed, Magnitude is 0,
// String renders "<consumed>" and handles taken from them are invalid.
// Clone an operand first to keep it.
func Add(a, b *Number, opts ...ReduceOption) (*Number, error) {
	if a.consumed || b.consumed {
		return nil, ErrConsumed
	}
	if a == b {
		return nil, errors.Wrap(ErrConsumed, "cannot add a number to itself, clone one side")
	}

	// The sum takes over a's arena; b's nodes are appended after it with
	// every handle shifted by the size of a's arena.
	sum := &Number{
		nodes:    a.nodes,
		freeList: a.freeList,
		root:     NoHandle,
	}
	first := a.root
	offset := Handle(len(sum.nodes))
	shift := func(h Handle) Handle {
		if h == NoHandle {
			return NoHandle
		}
		return h + offset
	}
	for _, nd := range b.nodes {
		nd.parent = shift(nd.parent)
		nd.first = shift(nd.first)
		nd.second = shift(nd.second)
		sum.nodes = append(sum.nodes, nd)
	}
	for _, h := range b.freeList {
		sum.freeList = append(sum.freeList, h+offset)
	}
	second := b.root + offset

	a.consume()
	b.consume()

	root := sum.newPair(first, second)
	sum.nodes[first].parent = root
	sum.nodes[second].parent = root
	sum.root = root

	if _, err := sum.Reduce(opts...); err != nil {
		return nil, err
	}
	return sum, nil
}

// Sum adds numbers from left to right: ((n0 + n1) + n2) + ...
//
// Every element of numbers is consumed. A single number is returned as is.
func Sum(numbers []*Number, opts ...ReduceOption) (*Number, error) {
	if len(numbers) == 0 {
		return nil, ErrEmpty
	}
	acc := numbers[0]
	if acc.consumed {
		return nil, ErrConsumed
	}
	for i, next := range numbers[1:] {
		var err error
		if acc, err = Add(acc, next, opts...); err != nil {
			return nil, errors.Wrapf(err, "adding number %d", i+1)
		}
	}
	return acc, nil
}
