package render

import (
	"encoding/base64"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultHeightEx is assumed when an SVG declares no height.
const DefaultHeightEx = 24

// Theme picks the foreground colour injected into previews.
type Theme int

const (
	ThemeDark Theme = iota
	ThemeLight
)

// ParseTheme maps the theme setting to a Theme. Anything other than "light"
// is dark.
func ParseTheme(s string) Theme {
	if strings.EqualFold(s, "light") {
		return ThemeLight
	}
	return ThemeDark
}

func (t Theme) Color() string {
	if t == ThemeLight {
		return "#111"
	}
	return "#fff"
}

var (
	heightAttr   = regexp.MustCompile(`(?i)height\s*=\s*["']([^%]+?)["']`)
	leadingFloat = regexp.MustCompile(`^\s*[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	styleAttr    = regexp.MustCompile(`style\s*=\s*"`)
	containerTag = regexp.MustCompile(`<mjx-container[^<]*><svg`)
)

// HeightEx is the height attribute of svg, in ex.
func HeightEx(svg string) float64 {
	m := heightAttr.FindStringSubmatch(svg)
	if m == nil {
		return DefaultHeightEx
	}
	num := leadingFloat.FindString(m[1])
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return DefaultHeightEx
	}
	return v
}

// HeightEm converts the SVG height to whole em, taking one em as two ex.
func HeightEm(svg string) float64 {
	return math.Ceil(HeightEx(svg) / 2)
}

// Stylize prepares svg for embedding in a data URI: it sets the foreground
// colour, escapes '#', and unwraps MathJax's container element.
func Stylize(svg string, theme Theme) string {
	return strings.ReplaceAll(unwrapContainer(colorize(svg, theme)), "#", "%23")
}

// DataURI encodes svg as a base64 image URI for Markdown hovers.
func DataURI(svg string, theme Theme) string {
	svg = unwrapContainer(colorize(svg, theme))
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

func colorize(svg string, theme Theme) string {
	loc := styleAttr.FindStringIndex(svg)
	if loc == nil {
		return svg
	}
	return svg[:loc[1]] + "color:" + theme.Color() + ";" + svg[loc[1]:]
}

func unwrapContainer(svg string) string {
	if loc := containerTag.FindStringIndex(svg); loc != nil {
		svg = svg[:loc[0]] + "<svg" + svg[loc[1]:]
	}
	return strings.Replace(svg, "</mjx-container>", "", 1)
}
