package number

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const largerExample = `[[[0,[4,5]],[0,0]],[[[4,5],[2,6]],[9,5]]]
[7,[[[3,7],[4,3]],[[6,3],[8,8]]]]
[[2,[[0,8],[3,4]]],[[[6,7],1],[7,[1,6]]]]
[[[[2,4],7],[6,[0,5]]],[[[6,8],[2,8]],[[2,1],[4,5]]]]
[7,[5,[[3,8],[1,4]]]]
[[2,[2,2]],[8,[8,1]]]
[2,9]
[1,[[[9,3],9],[[9,0],[0,7]]]]
[[[5,[7,4]],7],1]
[[[[4,2],2],6],[8,7]]`

func parseAll(t *testing.T, text string) []*Number {
	t.Helper()
	var numbers []*Number
	for _, line := range strings.Split(text, "\n") {
		n, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", line, err)
		}
		numbers = append(numbers, n)
	}
	return numbers
}

func TestAdd(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"[1,2]", "[[3,4],5]", "[[1,2],[[3,4],5]]"},
		{"[[[[4,3],4],4],[7,[[8,4],9]]]", "[1,1]", "[[[[0,7],4],[[7,8],[6,0]]],[8,1]]"},
		{
			"[[[0,[4,5]],[0,0]],[[[4,5],[2,6]],[9,5]]]",
			"[7,[[[3,7],[4,3]],[[6,3],[8,8]]]]",
			"[[[[4,0],[5,4]],[[7,7],[6,0]]],[[8,[7,7]],[[7,9],[5,0]]]]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.a+"+"+tt.b, func(t *testing.T) {
			sum, err := Add(MustParse(tt.a), MustParse(tt.b))
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, sum.String()); diff != "" {
				t.Errorf("Add() mismatch (-want +got):\n%s", diff)
			}
			assertReduced(t, sum)
		})
	}
}

func TestAdd_ConsumesOperands(t *testing.T) {
	a := MustParse("[1,2]")
	b := MustParse("[[3,4],5]")

	sum, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !a.Consumed() || !b.Consumed() {
		t.Errorf("Consumed() = %v, %v after Add, want true, true", a.Consumed(), b.Consumed())
	}
	if _, err := Add(a, MustParse("[1,1]")); !errors.Is(err, ErrConsumed) {
		t.Errorf("Add(consumed, x) error = %v, want ErrConsumed", err)
	}
	if _, err := b.Reduce(); !errors.Is(err, ErrConsumed) {
		t.Errorf("Reduce() on consumed error = %v, want ErrConsumed", err)
	}
	if err := a.Validate(); !errors.Is(err, ErrConsumed) {
		t.Errorf("Validate() on consumed = %v, want ErrConsumed", err)
	}
	if got := a.String(); got != "<consumed>" {
		t.Errorf("String() on consumed = %q", got)
	}
	if got := b.Render(b.Root()); got != "<consumed>" {
		t.Errorf("Render() on consumed = %q", got)
	}
	if got := a.Magnitude(); got != 0 {
		t.Errorf("Magnitude() on consumed = %d, want 0", got)
	}
	if got := b.MagnitudeOf(0); got != 0 {
		t.Errorf("MagnitudeOf() on consumed = %d, want 0", got)
	}
	if a.Explode() || a.Split() || !a.Reduced() {
		t.Errorf("consumed number still offers rewrites")
	}
	if got := a.Leaves(); got != nil {
		t.Errorf("Leaves() on consumed = %v, want nil", got)
	}
	if got := sum.String(); got != "[[1,2],[[3,4],5]]" {
		t.Errorf("sum = %s", got)
	}
}

func TestAdd_Self(t *testing.T) {
	a := MustParse("[1,2]")
	if _, err := Add(a, a); !errors.Is(err, ErrConsumed) {
		t.Fatalf("Add(a, a) error = %v, want ErrConsumed", err)
	}
	if a.Consumed() {
		t.Errorf("a was consumed by a rejected addition")
	}

	sum, err := Add(a.Clone(), a)
	if err != nil {
		t.Fatalf("Add(clone, a) error = %v", err)
	}
	if got := sum.String(); got != "[[1,2],[1,2]]" {
		t.Errorf("Add(clone, a) = %s", got)
	}
}

func TestAdd_OrderSensitive(t *testing.T) {
	ab, err := Add(MustParse("[1,2]"), MustParse("[3,4]"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	ba, err := Add(MustParse("[3,4]"), MustParse("[1,2]"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if ab.Equal(ba) {
		t.Errorf("Add(a, b) = Add(b, a) = %v", ab)
	}
	if ab.Magnitude() != 55 || ba.Magnitude() != 65 {
		t.Errorf("magnitudes = %d, %d, want 55, 65", ab.Magnitude(), ba.Magnitude())
	}
}

func TestAdd_StepLimit(t *testing.T) {
	_, err := Add(MustParse("[[[[4,3],4],4],[7,[[8,4],9]]]"), MustParse("[1,1]"), WithMaxSteps(4))
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("Add() error = %v, want ErrInvariant", err)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name  string
		lines string
		want  string
	}{
		{"single", "[9,1]", "[9,1]"},
		{"four", "[1,1]\n[2,2]\n[3,3]\n[4,4]", "[[[[1,1],[2,2]],[3,3]],[4,4]]"},
		{"five", "[1,1]\n[2,2]\n[3,3]\n[4,4]\n[5,5]", "[[[[3,0],[5,3]],[4,4]],[5,5]]"},
		{"six", "[1,1]\n[2,2]\n[3,3]\n[4,4]\n[5,5]\n[6,6]", "[[[[5,0],[7,4]],[5,5]],[6,6]]"},
		{"larger", largerExample, "[[[[8,7],[7,7]],[[8,6],[7,7]]],[[[0,7],[6,6]],[8,7]]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := Sum(parseAll(t, tt.lines))
			if err != nil {
				t.Fatalf("Sum() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, sum.String()); diff != "" {
				t.Errorf("Sum() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSum_Trace(t *testing.T) {
	// Every intermediate tree must round-trip through the parser.
	var steps int
	sum, err := Sum(parseAll(t, largerExample), WithTrace(func(s Step) {
		steps++
		again, err := Parse(s.Result)
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", s.Result, err)
		}
		if again.String() != s.Result {
			t.Errorf("round trip = %s, want %s", again, s.Result)
		}
	}))
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if steps == 0 {
		t.Error("trace saw no steps")
	}
	if got := sum.Magnitude(); got != 3488 {
		t.Errorf("Magnitude() = %d, want 3488", got)
	}
	assertReduced(t, sum)
}

func TestSum_Errors(t *testing.T) {
	if _, err := Sum(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Sum(nil) error = %v, want ErrEmpty", err)
	}

	numbers := parseAll(t, "[1,1]\n[2,2]")
	if _, err := Sum(numbers); err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if _, err := Sum(numbers); !errors.Is(err, ErrConsumed) {
		t.Errorf("second Sum() error = %v, want ErrConsumed", err)
	}
}
