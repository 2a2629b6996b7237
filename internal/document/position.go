package document

import "fmt"

// Position is a zero-based (line, character) location. Character is a byte
// offset into the line; conversion to and from LSP code units happens at the
// server boundary.
type Position struct {
	Line      int
	Character int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Compare orders positions by line, then character.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Character < o.Character:
		return -1
	case p.Character > o.Character:
		return 1
	}
	return 0
}

func (p Position) Before(o Position) bool { return p.Compare(o) < 0 }

// Shift moves the position delta characters along its line. The result never
// goes below column zero.
func (p Position) Shift(delta int) Position {
	c := p.Character + delta
	if c < 0 {
		c = 0
	}
	return Position{Line: p.Line, Character: c}
}

// Range is a half-open span [Start, End) which may cross lines.
type Range struct {
	Start Position
	End   Position
}

// NewRange builds a range from two positions in any order.
func NewRange(a, b Position) Range {
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// Contains reports whether p lies in [Start, End).
func (r Range) Contains(p Position) bool {
	return r.Start.Compare(p) <= 0 && p.Before(r.End)
}

func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}
