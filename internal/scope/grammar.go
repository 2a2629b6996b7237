package scope

import (
	"strings"
	"sync"

	"umath/internal/document"
	"umath/internal/markdown"
)

// BlockSource reports the Markdown block structure of a document, or false
// when none is known.
type BlockSource func(uri string) (markdown.Blocks, bool)

// Grammar is a Provider that tokenizes Markdown and LaTeX documents. The
// tokens of the last document seen are kept until a different snapshot is
// asked for.
type Grammar struct {
	blocks BlockSource

	mu    sync.Mutex
	doc   *document.Document
	lines [][]Scope
}

func NewGrammar(blocks BlockSource) *Grammar {
	return &Grammar{blocks: blocks}
}

// ScopeAt returns the token under pos. A position at the end of a line
// reports the last token of that line; an empty line has a single empty
// token carrying the label of the construct it sits in.
func (g *Grammar) ScopeAt(doc *document.Document, pos document.Position) (Scope, bool) {
	if doc == nil {
		return Scope{}, false
	}
	lines := g.tokens(doc)
	if pos.Line < 0 || pos.Line >= len(lines) {
		return Scope{}, false
	}
	toks := lines[pos.Line]
	for _, t := range toks {
		if pos.Character >= t.Range.Start.Character && pos.Character < t.Range.End.Character {
			return t, true
		}
	}
	if n := len(toks); n > 0 && pos.Character >= toks[n-1].Range.End.Character {
		return toks[n-1], true
	}
	return Scope{}, false
}

// Tokens returns the tokens of one line.
func (g *Grammar) Tokens(doc *document.Document, line int) []Scope {
	lines := g.tokens(doc)
	if line < 0 || line >= len(lines) {
		return nil
	}
	return lines[line]
}

func (g *Grammar) tokens(doc *document.Document) [][]Scope {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.doc == doc {
		return g.lines
	}

	var f flavor
	switch doc.LanguageID() {
	case LanguageMarkdown:
		f = flavorMarkdown
	case LanguageLaTeX:
		f = flavorLaTeX
	default:
		g.doc, g.lines = doc, nil
		return nil
	}

	var blocks markdown.Blocks
	if f == flavorMarkdown && g.blocks != nil {
		blocks, _ = g.blocks(doc.URI())
	}
	lx := &lexer{src: doc.Text(), flavor: f, blocks: blocks}
	g.doc, g.lines = doc, splitLines(doc, f, lx.run(), blocks)
	return g.lines
}

// splitLines cuts segments at line boundaries and labels the pieces.
func splitLines(doc *document.Document, f flavor, segs []segment, blocks markdown.Blocks) [][]Scope {
	lines := make([][]Scope, doc.LineCount())
	si := 0
	for line := range lines {
		start := doc.Offset(document.Position{Line: line})
		end := start + len(doc.LineText(line))
		quote := f == flavorMarkdown && blocks.InQuote(line)

		for si < len(segs) && segs[si].end <= start {
			si++
		}
		if start == end {
			s := segment{role: roleText}
			if si < len(segs) {
				s = segs[si]
			}
			p := document.Position{Line: line}
			lines[line] = []Scope{{Label: labelFor(f, s, quote), Range: document.Range{Start: p, End: p}}}
			continue
		}
		for k := si; k < len(segs) && segs[k].start < end; k++ {
			a, b := max(segs[k].start, start), min(segs[k].end, end)
			if a >= b {
				continue
			}
			lines[line] = append(lines[line], Scope{
				Label: labelFor(f, segs[k], quote),
				Range: document.Range{
					Start: document.Position{Line: line, Character: a - start},
					End:   document.Position{Line: line, Character: b - start},
				},
			})
		}
	}
	return lines
}

func labelFor(f flavor, s segment, quote bool) string {
	var b strings.Builder
	if f == flavorLaTeX {
		b.WriteString("text.tex.latex")
	} else {
		b.WriteString("text.html.markdown")
		if quote {
			b.WriteString(" markup.quote.markdown")
		}
	}

	switch s.role {
	case roleText:
		return b.String()
	case roleCode:
		b.WriteString(" markup.raw.markdown")
		return b.String()
	case roleComment:
		b.WriteString(" comment.line.percentage.tex")
		return b.String()
	}

	b.WriteByte(' ')
	b.WriteString(mathLabel(f, s.kind))
	switch {
	case s.role == roleOpen && f == flavorLaTeX:
		b.WriteString(" punctuation.definition.string.begin.latex")
	case s.role == roleClose && f == flavorLaTeX:
		b.WriteString(" punctuation.definition.string.end.latex")
	case s.role == roleOpen:
		b.WriteString(" punctuation.definition.math.begin.markdown")
	case s.role == roleClose:
		b.WriteString(" punctuation.definition.math.end.markdown")
	}
	return b.String()
}

func mathLabel(f flavor, kind mathKind) string {
	if f == flavorMarkdown {
		if kind == kindDisplay {
			return "markup.math.block.markdown"
		}
		return "markup.math.inline.markdown"
	}
	switch kind {
	case kindDisplay, kindDisplayEnv:
		return "meta.math.block.latex support.class.math.block.environment.latex"
	case kindInlineEnv:
		return "meta.math.block.latex support.class.math.inline.latex"
	default:
		return "support.class.math.inline.latex"
	}
}
