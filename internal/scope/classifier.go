package scope

import (
	"strings"
	"sync"

	"umath/internal/document"
)

// MathScope classifies a position inside math. A nil *MathScope means the
// position is not in math.
type MathScope struct {
	Label     string
	Display   bool
	AtOpening bool
	AtClosing bool
}

// Valid reports whether a preview should be attempted: the position is in
// math and not on one of its delimiters.
func (m *MathScope) Valid() bool {
	return m != nil && !m.AtOpening && !m.AtClosing
}

// Environment reports whether LaTeX environment delimiters apply.
func (m *MathScope) Environment() bool {
	return m != nil && strings.Contains(m.Label, "meta.math.block")
}

// InQuote reports whether the math sits in a block quote.
func (m *MathScope) InQuote() bool {
	return m != nil && strings.Contains(m.Label, "quote")
}

type cacheKey struct {
	uri     string
	version int32
	pos     document.Position
}

// Classifier turns lexical scopes into MathScopes. The most recent result is
// cached per document version and position.
type Classifier struct {
	provider Provider

	mu     sync.Mutex
	key    cacheKey
	cached *MathScope
	valid  bool
}

func NewClassifier(p Provider) *Classifier {
	return &Classifier{provider: p}
}

// Classify returns the math classification of pos, or nil when pos is not in
// math or the document language is unsupported.
func (c *Classifier) Classify(doc *document.Document, pos document.Position) *MathScope {
	if doc == nil {
		return nil
	}
	key := cacheKey{uri: doc.URI(), version: doc.Version(), pos: pos}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid || c.key != key {
		c.key, c.cached, c.valid = key, c.classify(doc, pos), true
	}
	if c.cached == nil {
		return nil
	}
	out := *c.cached
	return &out
}

// Invalidate drops the cached result.
func (c *Classifier) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached, c.valid = nil, false
}

func (c *Classifier) classify(doc *document.Document, pos document.Position) *MathScope {
	if !Supported(doc.LanguageID()) {
		return nil
	}
	sc, ok := c.provider.ScopeAt(doc, pos)
	if !ok || !strings.Contains(sc.Label, "math") {
		return nil
	}
	label := sc.Label
	ms := &MathScope{Label: label}
	atStart := pos == sc.Range.Start

	switch doc.LanguageID() {
	case LanguageLaTeX:
		ms.Display = strings.Contains(label, "math.block.environment")
		switch {
		case strings.Contains(label, "definition.string.begin"):
			ms.AtOpening = true
		case strings.Contains(label, "definition.string.end"):
			// Typing in front of a closing delimiter still previews.
			ms.AtClosing = !atStart
		}

	case LanguageMarkdown:
		ms.Display = strings.Contains(label, "math.block") || strings.Contains(label, "math.display")
		if !strings.Contains(label, "definition.math") {
			break
		}
		isEnd := strings.Contains(label, "definition.math.end")
		switch {
		case !atStart && isEnd:
			ms.AtClosing = true
		case !atStart:
			ms.AtOpening = true
		case pos == (document.Position{}):
			ms.AtOpening = true
		default:
			// The first character of a delimiter token is ambiguous: it opens a
			// run unless the text before it is math of the same run.
			prev := c.previousLabel(doc, pos)
			prevMath := strings.Contains(prev, "math")
			prevEnd := strings.Contains(prev, "definition.math.end")
			ms.AtOpening = !(prevMath || isEnd) || prevEnd
		}
	}
	return ms
}

func (c *Classifier) previousLabel(doc *document.Document, pos document.Position) string {
	prev := document.Position{Line: pos.Line, Character: pos.Character - 1}
	if pos.Character == 0 {
		prev = doc.EndOfLine(pos.Line - 1)
	}
	sc, ok := c.provider.ScopeAt(doc, prev)
	if !ok {
		return ""
	}
	return sc.Label
}
