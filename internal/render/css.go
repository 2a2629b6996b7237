package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"umath/internal/placement"
)

const (
	// DefaultMaxHeight caps previews unless the user overrides it.
	DefaultMaxHeight = "max-height: 45em;"
	// BoxCSS lays the preview out as a floating box.
	BoxCSS = "position: absolute; padding: 0.5em; display: inline-block; z-index: 1; " +
		"pointer-events: auto; background-color: var(--vscode-editor-background); " +
		"border: 0.5px solid var(--vscode-editorWidget-border);"
)

// DefaultFontSize is the editor font size, in px, assumed when the editor
// reports none.
const DefaultFontSize = 14

// unknownUnitHeight is used when max-height is set in a unit other than em
// or px.
const unknownUnitHeight = 30

var (
	maxHeightDecl = regexp.MustCompile(`(?i)^max-height\s*:\s*`)
	important     = regexp.MustCompile(`(?i)\s*!important\s*$`)
	lengthValue   = regexp.MustCompile(`(?i)^([+-]?(?:\d*\.)?\d+)(rem|em|px|%|vw|vh)$`)
)

// Decoration builds the CSS of a preview. Previews anchored at the top grow
// upwards from the anchor line, bottom ones downwards.
func Decoration(svg string, anchor placement.Anchor, userCSS string) string {
	edge := "top"
	if anchor == placement.AnchorTop {
		edge = "bottom"
	}
	return fmt.Sprintf("content: url('data:image/svg+xml;utf8,%s'); %s: 1.15em;", svg, edge) +
		DefaultMaxHeight + BoxCSS + userCSS
}

// MaxHeight is an effective max-height declaration.
type MaxHeight struct {
	Value float64
	Unit  string
}

// ParseMaxHeight finds the effective max-height of css: the last
// !important declaration, else the last declaration.
func ParseMaxHeight(css string) (MaxHeight, bool) {
	var value string
	var found, foundImportant bool
	for _, decl := range splitDeclarations(css) {
		decl = strings.TrimSpace(decl)
		loc := maxHeightDecl.FindStringIndex(decl)
		if loc == nil {
			continue
		}
		v := decl[loc[1]:]
		isImportant := important.MatchString(v)
		if foundImportant && !isImportant {
			continue
		}
		value = strings.TrimSpace(important.ReplaceAllString(v, ""))
		found = true
		foundImportant = foundImportant || isImportant
	}
	if !found {
		return MaxHeight{}, false
	}

	m := lengthValue.FindStringSubmatch(value)
	if m == nil {
		return MaxHeight{}, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return MaxHeight{}, false
	}
	return MaxHeight{Value: v, Unit: strings.ToLower(m[2])}, true
}

// CapHeight limits a preview height in em by the max-height in effect for
// userCSS. fontSize converts px; zero means DefaultFontSize.
func CapHeight(heightEm float64, userCSS string, fontSize float64) float64 {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	mh, ok := ParseMaxHeight(DefaultMaxHeight + BoxCSS + userCSS)
	if !ok {
		return unknownUnitHeight
	}
	switch mh.Unit {
	case "em":
		return min(mh.Value, heightEm)
	case "px":
		return min(mh.Value/fontSize, heightEm)
	default:
		return unknownUnitHeight
	}
}

// splitDeclarations splits css at semicolons outside parentheses, so data
// URIs and var() stay whole.
func splitDeclarations(css string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(css); i++ {
		switch css[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				out = append(out, css[start:i])
				start = i + 1
			}
		}
	}
	return append(out, css[start:])
}
