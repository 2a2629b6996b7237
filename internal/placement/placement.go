// Package placement decides where a rendered preview is anchored.
package placement

import (
	"math"

	"umath/internal/delimiter"
	"umath/internal/document"
)

// DefaultLineHeight is the editor line height, in em, assumed when the
// editor reports none.
const DefaultLineHeight = 1.2

// Anchor selects the delimiter line a preview hangs from.
type Anchor int

const (
	AnchorTop Anchor = iota
	AnchorBottom
)

// ParseAnchor maps the position setting to an Anchor. Anything other than
// "bottom" is top.
func ParseAnchor(s string) Anchor {
	if s == "bottom" {
		return AnchorBottom
	}
	return AnchorTop
}

func (a Anchor) String() string {
	if a == AnchorBottom {
		return "bottom"
	}
	return "top"
}

// Request is everything needed to place one preview.
type Request struct {
	// LineHeight is the editor line height in em. Zero means DefaultLineHeight.
	LineHeight float64
	// HeightEm is the rendered height of the preview.
	HeightEm float64
	Visible  document.Range
	Anchor   Anchor
	Begin    delimiter.Boundary
	End      delimiter.Boundary
}

// HeightInLines converts a preview height to whole editor lines.
func HeightInLines(heightEm, lineHeight float64) int {
	if lineHeight <= 0 {
		lineHeight = DefaultLineHeight
	}
	return int(math.Floor(heightEm / lineHeight))
}

// Line picks the anchor line: the closing delimiter's line for bottom
// anchoring, the opening one's for top, clamped so that the preview starts
// below the first visible line and its full height fits above the last.
func Line(req Request) int {
	h := HeightInLines(req.HeightEm, req.LineHeight)
	candidate := req.Begin.Insert.Line
	if req.Anchor == AnchorBottom {
		candidate = req.End.Insert.Line
	}
	lo := req.Visible.Start.Line + 1
	hi := req.Visible.End.Line - h
	if hi < lo {
		hi = lo
	}
	return min(max(candidate, lo), hi)
}

// Column puts the preview right before the closing delimiter.
func Column(end delimiter.Boundary) int {
	return max(0, end.Insert.Character-len(end.Token()))
}

// Plan returns the anchor position of a preview.
func Plan(req Request) document.Position {
	return document.Position{Line: Line(req), Character: Column(req.End)}
}
