package delimiter

import "umath/internal/document"

// Lines is the read access the walker needs.
type Lines interface {
	LineCount() int
	LineText(line int) string
}

// Boundary is the outcome of a walk. Match is nil when the document was
// exhausted; Insert then holds a recovery default and must not be used as a
// delimiter position.
type Boundary struct {
	Insert document.Position
	Match  *Match
}

func (b Boundary) Found() bool { return b.Match != nil }

// Token is the matched delimiter, or "" when nothing was found.
func (b Boundary) Token() string {
	if b.Match == nil {
		return ""
	}
	return b.Match.Token
}

// WalkToClosing scans forward from pos for the nearest closing delimiter.
// Insert is the position just past the delimiter; if none is found it stays
// at pos.
func WalkToClosing(lines Lines, pos document.Position, candidates []string) Boundary {
	text := lines.LineText(pos.Line)
	from := clampColumn(pos.Character, text)

	if m, ok := Find(candidates, text[from:], false); ok {
		return Boundary{
			Insert: document.Position{Line: pos.Line, Character: from + m.Index + len(m.Token)},
			Match:  &m,
		}
	}
	for line := pos.Line + 1; line < lines.LineCount(); line++ {
		if m, ok := Find(candidates, lines.LineText(line), false); ok {
			return Boundary{
				Insert: document.Position{Line: line, Character: m.Index + len(m.Token)},
				Match:  &m,
			}
		}
	}
	return Boundary{Insert: pos}
}

// WalkToOpening scans backward from pos for the nearest opening delimiter.
// Insert is the position of the delimiter's first character; if none is
// found it is the start of the document.
func WalkToOpening(lines Lines, pos document.Position, candidates []string) Boundary {
	text := lines.LineText(pos.Line)
	to := clampColumn(pos.Character, text)

	if m, ok := Find(candidates, text[:to], true); ok {
		return Boundary{
			Insert: document.Position{Line: pos.Line, Character: m.Index},
			Match:  &m,
		}
	}
	for line := pos.Line - 1; line >= 0; line-- {
		if m, ok := Find(candidates, lines.LineText(line), true); ok {
			return Boundary{
				Insert: document.Position{Line: line, Character: m.Index},
				Match:  &m,
			}
		}
	}
	return Boundary{}
}

func clampColumn(c int, text string) int {
	if c < 0 {
		return 0
	}
	if c > len(text) {
		return len(text)
	}
	return c
}
