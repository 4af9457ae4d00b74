package snailfish

import (
	"context"
	"io"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"crosswarped.com/snailfish/internal"
	"crosswarped.com/snailfish/pkg/number"
)

// LineError reports the input line a parse failure came from.
type LineError = internal.LineError

// Homework is an ordered list of snailfish numbers, one per input line.
//
// The numbers held by a Homework are never consumed: every operation works on
// clones, so the same Homework can be summed and searched repeatedly.
type Homework struct {
	lines   []internal.Line
	numbers []*number.Number
}

// ParseHomework parses one snailfish number per non-blank string.
func ParseHomework(texts []string) (*Homework, error) {
	return fromLines(internal.FromStrings(texts))
}

// ReadHomework reads one snailfish number per non-blank line of r.
func ReadHomework(ctx context.Context, r io.Reader) (*Homework, error) {
	lines, err := internal.ReadLines(ctx, r)
	if err != nil {
		return nil, errors.Wrap(err, "reading homework")
	}
	return fromLines(lines)
}

func fromLines(lines []internal.Line) (*Homework, error) {
	numbers, err := internal.ParseLines(lines)
	if err != nil {
		return nil, err
	}
	return &Homework{lines: lines, numbers: numbers}, nil
}

// Len returns the number of snailfish numbers.
func (h *Homework) Len() int {
	return len(h.numbers)
}

// Numbers returns fresh copies of the numbers, safe to hand to number.Add.
func (h *Homework) Numbers() []*number.Number {
	out := make([]*number.Number, len(h.numbers))
	for i, n := range h.numbers {
		out[i] = n.Clone()
	}
	return out
}

// Sum adds every number in order and returns the reduced result.
func (h *Homework) Sum(opts ...number.ReduceOption) (*number.Number, error) {
	sum, err := number.Sum(h.Numbers(), opts...)
	if err != nil {
		return nil, h.annotate(err)
	}
	return sum, nil
}

// SumMagnitude returns the magnitude of Sum.
func (h *Homework) SumMagnitude(opts ...number.ReduceOption) (int, error) {
	sum, err := h.Sum(opts...)
	if err != nil {
		return 0, err
	}
	return sum.Magnitude(), nil
}

func (h *Homework) annotate(err error) error {
	if errors.Is(err, number.ErrEmpty) {
		return errors.Wrap(err, "homework has no numbers")
	}
	return err
}

// LargestParams configures LargestMagnitude.
type LargestParams struct {
	// Workers is the number of goroutines searching pairs. Zero means GOMAXPROCS.
	Workers int
	// MaxSteps bounds each reduction; zero means number.DefaultMaxSteps.
	MaxSteps int
}

// LargestResult is the best ordered pair found by LargestMagnitude.
type LargestResult struct {
	Magnitude int
	// First and Second are 0-based indices into the homework.
	First  int
	Second int
	// Sum is the reduced sum of the two numbers.
	Sum string
	// Stats totals the rewrites of every addition tried.
	Stats number.Stats
}

// LargestMagnitude adds every ordered pair of two different numbers and
// returns the pair whose sum has the largest magnitude. Ties go to the pair
// with the smallest First, then the smallest Second.
//
// Each worker owns a private copy of the homework, so no tree is ever
// touched by two goroutines.
func (h *Homework) LargestMagnitude(ctx context.Context, params LargestParams) (LargestResult, error) {
	if len(h.numbers) < 2 {
		return LargestResult{}, errors.Wrapf(number.ErrEmpty, "need at least two numbers, have %d", len(h.numbers))
	}

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(h.numbers))

	// best[i] is the best pair with First == i.
	best := make([]LargestResult, len(h.numbers))
	stats := make([]number.Stats, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		own := h.Numbers()
		g.Go(func() error {
			opts := []number.ReduceOption{
				number.WithMaxSteps(params.MaxSteps),
				number.WithStats(&stats[w]),
			}
			for i := w; i < len(own); i += workers {
				res, err := largestFrom(ctx, own, i, opts)
				if err != nil {
					return err
				}
				best[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LargestResult{}, err
	}

	res := best[0]
	for _, r := range best[1:] {
		if r.Magnitude > res.Magnitude {
			res = r
		}
	}
	for _, s := range stats {
		res.Stats = res.Stats.Add(s)
	}
	return res, nil
}

// largestFrom tries every pair (i, j) with j != i.
func largestFrom(ctx context.Context, numbers []*number.Number, i int, opts []number.ReduceOption) (LargestResult, error) {
	res := LargestResult{Magnitude: -1}
	for j := range numbers {
		if j == i {
			continue
		}
		if err := ctx.Err(); err != nil {
			return LargestResult{}, err
		}
		sum, err := number.Add(numbers[i].Clone(), numbers[j].Clone(), opts...)
		if err != nil {
			return LargestResult{}, errors.Wrapf(err, "adding numbers %d and %d", i, j)
		}
		if m := sum.Magnitude(); m > res.Magnitude {
			res = LargestResult{Magnitude: m, First: i, Second: j, Sum: sum.String()}
		}
	}
	return res, nil
}
