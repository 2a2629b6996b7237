// Package scope assigns lexical scope labels to document positions and
// classifies positions inside math.
//
// Labels follow the TextMate convention of a space separated scope stack,
// outermost first, e.g.
//
//	text.html.markdown markup.quote.markdown markup.math.block.markdown
//
// Consumers only ever test labels for substrings.
package scope

import "umath/internal/document"

// Language ids with math support.
const (
	LanguageMarkdown = "markdown"
	LanguageLaTeX    = "latex"
)

// Scope is the deepest classification covering a position and the range
// over which it holds. Ranges never span lines.
type Scope struct {
	Label string
	Range document.Range
}

// Provider looks up the scope at a position.
type Provider interface {
	ScopeAt(doc *document.Document, pos document.Position) (Scope, bool)
}

// Supported reports whether languageID gets math scopes.
func Supported(languageID string) bool {
	return languageID == LanguageMarkdown || languageID == LanguageLaTeX
}
