package extract_test

import (
	"errors"
	"testing"

	"umath/internal/document"
	"umath/internal/extract"
	"umath/internal/markdown"
	"umath/internal/scope"
)

func at(line, char int) document.Position {
	return document.Position{Line: line, Character: char}
}

func classify(t *testing.T, doc *document.Document, blocks markdown.Blocks, pos document.Position) *scope.MathScope {
	t.Helper()
	g := scope.NewGrammar(func(string) (markdown.Blocks, bool) { return blocks, true })
	ms := scope.NewClassifier(g).Classify(doc, pos)
	if !ms.Valid() {
		t.Fatalf("position %v is not valid math: %+v", pos, ms)
	}
	return ms
}

func TestExtract(t *testing.T) {
	quoted := markdown.Blocks{Quotes: []markdown.LineSpan{{First: 0, Last: 3}}}

	tests := []struct {
		name        string
		doc         *document.Document
		blocks      markdown.Blocks
		pos         document.Position
		opts        extract.Options
		wantText    string
		wantTeX     string
		wantDisplay bool
		wantRange   document.Range
	}{
		{
			name:      "inline dollars",
			doc:       document.New("file:///a.md", "markdown", 1, "$a+b$"),
			pos:       at(0, 2),
			wantText:  "a+b",
			wantTeX:   "a+b",
			wantRange: document.Range{Start: at(0, 1), End: at(0, 4)},
		},
		{
			name:      "inline in a sentence",
			doc:       document.New("file:///a.md", "markdown", 1, "Inline $x^2$ end."),
			pos:       at(0, 9),
			wantText:  "x^2",
			wantTeX:   "x^2",
			wantRange: document.Range{Start: at(0, 8), End: at(0, 11)},
		},
		{
			name:        "display across lines",
			doc:         document.New("file:///a.md", "markdown", 1, "$$\nx=1\n$$"),
			pos:         at(1, 1),
			wantText:    "\nx=1\n",
			wantTeX:     "\nx=1\n",
			wantDisplay: true,
			wantRange:   document.Range{Start: at(0, 2), End: at(2, 0)},
		},
		{
			name:        "block quote markers are removed",
			doc:         document.New("file:///a.md", "markdown", 1, "> $$\n> x=1\n> y=2\n> $$"),
			blocks:      quoted,
			pos:         at(1, 3),
			wantText:    "x=1\ny=2",
			wantTeX:     "x=1\ny=2",
			wantDisplay: true,
			wantRange:   document.Range{Start: at(0, 4), End: at(3, 2)},
		},
		{
			name:        "cursor glyph at the start of a quoted line",
			doc:         document.New("file:///a.md", "markdown", 1, "> $$\n> x=1\n> y=2\n> $$"),
			blocks:      quoted,
			pos:         at(2, 0),
			opts:        extract.Options{CursorGlyph: `{\blacktriangleright}`},
			wantText:    "x=1\ny=2",
			wantTeX:     "x=1\n{\\blacktriangleright}y=2",
			wantDisplay: true,
			wantRange:   document.Range{Start: at(0, 4), End: at(3, 2)},
		},
		{
			name:        "cursor glyph after a quote marker",
			doc:         document.New("file:///a.md", "markdown", 1, "> $$\n> x=1\n> y=2\n> $$"),
			blocks:      quoted,
			pos:         at(2, 3),
			opts:        extract.Options{CursorGlyph: "|"},
			wantText:    "x=1\ny=2",
			wantTeX:     "x=1\ny|=2",
			wantDisplay: true,
			wantRange:   document.Range{Start: at(0, 4), End: at(3, 2)},
		},
		{
			name:        "marker-like text after the opening delimiter is kept",
			doc:         document.New("file:///a.md", "markdown", 1, "> $$>0\n> x\n> $$"),
			blocks:      markdown.Blocks{Quotes: []markdown.LineSpan{{First: 0, Last: 2}}},
			pos:         at(1, 2),
			wantText:    ">0\nx",
			wantTeX:     ">0\nx",
			wantDisplay: true,
			wantRange:   document.Range{Start: at(0, 4), End: at(2, 2)},
		},
		{
			name:        "brackets",
			doc:         document.New("file:///a.md", "markdown", 1, `\[ a \]`),
			pos:         at(0, 3),
			wantText:    " a ",
			wantTeX:     " a ",
			wantDisplay: true,
			wantRange:   document.Range{Start: at(0, 2), End: at(0, 5)},
		},
		{
			name:        "equation environment is kept whole",
			doc:         document.New("file:///a.tex", "latex", 1, "\\begin{equation}\nE=mc^2\n\\end{equation}"),
			pos:         at(1, 2),
			wantText:    "\\begin{equation}\nE=mc^2\n\\end{equation}",
			wantTeX:     "\\begin{equation}\nE=mc^2\n\\end{equation}",
			wantDisplay: true,
			wantRange:   document.Range{Start: at(0, 0), End: at(2, 14)},
		},
		{
			name:      "math environment is stripped",
			doc:       document.New("file:///a.tex", "latex", 1, `\begin{math}a+b\end{math}`),
			pos:       at(0, 13),
			wantText:  "a+b",
			wantTeX:   "a+b",
			wantRange: document.Range{Start: at(0, 12), End: at(0, 15)},
		},
		{
			name:      "cursor glyph and macros",
			doc:       document.New("file:///a.md", "markdown", 1, "$ab$"),
			pos:       at(0, 2),
			opts:      extract.Options{CursorGlyph: "|", Macros: `\newcommand{\R}{\mathbb{R}}`},
			wantText:  "ab",
			wantTeX:   "\\newcommand{\\R}{\\mathbb{R}}\na|b",
			wantRange: document.Range{Start: at(0, 1), End: at(0, 3)},
		},
		{
			name:        "cursor glyph on a later line",
			doc:         document.New("file:///a.md", "markdown", 1, "$$\nab\ncd\n$$"),
			pos:         at(2, 1),
			opts:        extract.Options{CursorGlyph: "|"},
			wantText:    "\nab\ncd\n",
			wantTeX:     "\nab\nc|d\n",
			wantDisplay: true,
			wantRange:   document.Range{Start: at(0, 2), End: at(3, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := classify(t, tt.doc, tt.blocks, tt.pos)
			span, err := extract.Extract(tt.doc, ms, tt.pos, tt.opts)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if span.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", span.Text, tt.wantText)
			}
			if span.TeX != tt.wantTeX {
				t.Errorf("TeX = %q, want %q", span.TeX, tt.wantTeX)
			}
			if span.Display != tt.wantDisplay {
				t.Errorf("Display = %v, want %v", span.Display, tt.wantDisplay)
			}
			if span.Range != tt.wantRange {
				t.Errorf("Range = %v, want %v", span.Range, tt.wantRange)
			}
		})
	}
}

func TestExtractBoundaries(t *testing.T) {
	doc := document.New("file:///a.md", "markdown", 1, "$a+b$")
	ms := classify(t, doc, markdown.Blocks{}, at(0, 2))

	span, err := extract.Extract(doc, ms, at(0, 2), extract.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if span.Begin.Insert != at(0, 0) || span.Begin.Token() != "$" {
		t.Errorf("Begin = %+v", span.Begin)
	}
	if span.End.Insert != at(0, 5) || span.End.Token() != "$" {
		t.Errorf("End = %+v", span.End)
	}
}

func TestExtractFailures(t *testing.T) {
	inline := &scope.MathScope{Label: "text.html.markdown markup.math.inline.markdown"}

	tests := []struct {
		name    string
		text    string
		ms      *scope.MathScope
		pos     document.Position
		wantErr error
	}{
		{"not math", "$a$", nil, at(0, 1), extract.ErrNotMath},
		{"unterminated", "$abc", inline, at(0, 2), extract.ErrBoundaryNotFound},
		{"no opening", "abc$", inline, at(0, 1), extract.ErrBoundaryNotFound},
		{"blank", "$  $", inline, at(0, 2), extract.ErrBlankExpression},
		{"empty", "$$", inline, at(0, 1), extract.ErrBlankExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New("file:///a.md", "markdown", 1, tt.text)
			span, err := extract.Extract(doc, tt.ms, tt.pos, extract.Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
			}
			if span != nil {
				t.Errorf("Extract() span = %+v, want nil", span)
			}
		})
	}
}

func TestJumpTarget(t *testing.T) {
	tests := []struct {
		name       string
		doc        *document.Document
		pos        document.Position
		wantPos    document.Position
		wantInsert string
	}{
		{"inline", document.New("file:///a.md", "markdown", 1, "Inline $x^2$ end."), at(0, 9), at(0, 12), " "},
		{"display", document.New("file:///a.md", "markdown", 1, "$$\nx\n$$"), at(1, 0), at(2, 2), "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := classify(t, tt.doc, markdown.Blocks{}, tt.pos)
			pos, insert, ok := extract.JumpTarget(tt.doc, ms, tt.pos)
			if !ok {
				t.Fatal("JumpTarget() found no target")
			}
			if pos != tt.wantPos || insert != tt.wantInsert {
				t.Errorf("JumpTarget() = %v %q, want %v %q", pos, insert, tt.wantPos, tt.wantInsert)
			}
		})
	}

	if _, _, ok := extract.JumpTarget(nil, nil, at(0, 0)); ok {
		t.Error("JumpTarget() outside math must fail")
	}
}
