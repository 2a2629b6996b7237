// Package extract cuts the TeX source of the math expression around a
// cursor out of a document.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"umath/internal/delimiter"
	"umath/internal/document"
	"umath/internal/scope"
)

var (
	// consumedDelimiter is the part of an opening token that is not TeX.
	// Environment openers other than math and displaymath stay in the
	// expression so the renderer sees the environment.
	consumedDelimiter = regexp.MustCompile(`\$\$|\$|\\\[|\\\(|\\begin\{math\}|\\begin\{displaymath\}`)
	// quoteMarkers is matched at the start of every line but the first,
	// which directly follows the opening delimiter.
	quoteMarkers      = regexp.MustCompile(`^(?:[ \t]*>)+[ \t]?`)
)

// Options control how the expression is turned into renderer input.
type Options struct {
	// CursorGlyph is spliced into the TeX at the cursor. Empty disables it.
	CursorGlyph string
	// Macros is prepended to the TeX.
	Macros string
}

// Span is an extracted expression.
type Span struct {
	// Text is the expression without delimiters or quote markers.
	Text string
	// TeX is the renderer input: macros, then Text with the cursor glyph.
	TeX     string
	Display bool
	Begin   delimiter.Boundary
	End     delimiter.Boundary
	// Range is the part of the document Text was read from.
	Range document.Range
}

// Extract returns the expression that encloses pos. ms must be the
// classification of pos.
func Extract(doc *document.Document, ms *scope.MathScope, pos document.Position, opts Options) (*Span, error) {
	if ms == nil {
		return nil, ErrNotMath
	}
	begin, end := Boundaries(doc, ms, pos)
	if !begin.Found() || !end.Found() {
		return nil, fmt.Errorf("%w around %v", ErrBoundaryNotFound, pos)
	}

	r := CutRange(begin, end)
	raw := doc.TextIn(r)
	if isBlank(raw) {
		return nil, ErrBlankExpression
	}

	quoted := ms.Display && ms.InQuote()
	text := raw
	var removed []int
	if quoted {
		text, removed = stripQuotes(raw)
	}
	tex := text
	if opts.CursorGlyph != "" && !pos.Before(r.Start) && !r.End.Before(pos) {
		tex = insertAt(text, r, pos, opts.CursorGlyph, removed)
	}
	if quoted {
		text, tex = strings.Trim(text, "\r\n"), strings.Trim(tex, "\r\n")
		if isBlank(text) {
			return nil, ErrBlankExpression
		}
	}
	if opts.Macros != "" {
		tex = opts.Macros + "\n" + tex
	}

	return &Span{
		Text:    text,
		TeX:     tex,
		Display: ms.Display,
		Begin:   begin,
		End:     end,
		Range:   r,
	}, nil
}

// Boundaries walks to the delimiters enclosing pos.
func Boundaries(doc *document.Document, ms *scope.MathScope, pos document.Position) (begin, end delimiter.Boundary) {
	env := ms.Environment()
	begin = delimiter.WalkToOpening(doc, pos, delimiter.Opening(ms.Display, env))
	end = delimiter.WalkToClosing(doc, pos, delimiter.Closing(ms.Display, env))
	return begin, end
}

// CutRange is the range between the delimiters. The closing cut is derived
// from the opening one: openers of three or more characters are two longer
// than their closers (\begin{math} and \end{math}).
func CutRange(begin, end delimiter.Boundary) document.Range {
	cutBegin := len(consumedDelimiter.FindString(begin.Token()))
	cutEnd := 0
	if end.Found() {
		cutEnd = cutBegin
		if cutBegin > 2 {
			cutEnd = cutBegin - 2
		}
	}
	return document.Range{
		Start: begin.Insert.Shift(cutBegin),
		End:   end.Insert.Shift(-cutEnd),
	}
}

// JumpTarget is where the cursor lands when leaving the math at pos, and the
// text to type there: a line break after display math, a space after inline
// math.
func JumpTarget(doc *document.Document, ms *scope.MathScope, pos document.Position) (document.Position, string, bool) {
	if ms == nil {
		return pos, "", false
	}
	end := delimiter.WalkToClosing(doc, pos, delimiter.Closing(ms.Display, ms.Environment()))
	if !end.Found() {
		return pos, "", false
	}
	if ms.Display {
		return end.Insert, "\n", true
	}
	return end.Insert, " ", true
}

// insertAt splices glyph into text, which was read from r, at the document
// position pos. Columns are relative to r only on its first line. removed
// holds the bytes stripped from the start of each line, if any.
func insertAt(text string, r document.Range, pos document.Position, glyph string, removed []int) string {
	lines := strings.Split(text, "\n")
	rel := pos.Line - r.Start.Line
	if rel < 0 || rel >= len(lines) {
		return text
	}
	col := pos.Character
	if rel == 0 {
		col -= r.Start.Character
	}
	if rel < len(removed) {
		col -= removed[rel]
	}
	line := lines[rel]
	col = max(0, min(col, len(line)))
	lines[rel] = line[:col] + glyph + line[col:]
	return strings.Join(lines, "\n")
}

// stripQuotes drops the block quote markers that follow line breaks in s and
// reports how many bytes were removed from each line.
func stripQuotes(s string) (string, []int) {
	lines := strings.Split(s, "\n")
	removed := make([]int, len(lines))
	for i := 1; i < len(lines); i++ {
		n := len(quoteMarkers.FindString(lines[i]))
		lines[i] = lines[i][n:]
		removed[i] = n
	}
	return strings.Join(lines, "\n"), removed
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
