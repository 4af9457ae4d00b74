package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"crosswarped.com/snailfish/pkg/number"
)

// maxLineLength bounds a single input line; snailfish literals are short.
const maxLineLength = 1 << 20

// Line is one non-blank input line together with its 1-based line number.
type Line struct {
	No   int
	Text string
}

// LineError reports a line that is not a snailfish number literal.
type LineError struct {
	Line Line
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line.No, e.Line.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ReadLines returns the non-blank lines of r, trimmed of surrounding whitespace.
func ReadLines(ctx context.Context, r io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	no := 0
	for scanner.Scan() {
		no++
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		lines = append(lines, Line{No: no, Text: text})
	}
	return lines, scanner.Err()
}

// FromStrings numbers already-split lines, skipping blank ones.
func FromStrings(texts []string) []Line {
	lines := make([]Line, 0, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		lines = append(lines, Line{No: i + 1, Text: text})
	}
	return lines
}

// ParseLines parses every line, failing on the first malformed one.
func ParseLines(lines []Line) ([]*number.Number, error) {
	numbers := make([]*number.Number, 0, len(lines))
	for _, line := range lines {
		n, err := number.Parse(line.Text)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}
