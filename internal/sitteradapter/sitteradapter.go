package sitteradapter

import (
	"strings"
	"unicode/utf8"

	"umath/internal/document"

	sitter "github.com/smacker/go-tree-sitter"
	lsp "github.com/tliron/glsp/protocol_3_16"
)

// ToPosition converts an LSP Position (UTF-16 code units) into a document
// position measured in bytes. Lines and columns are clamped to the document.
func ToPosition(doc *document.Document, pos lsp.Position) document.Position {
	line := int(pos.Line)
	if line >= doc.LineCount() {
		return doc.EndOfLine(doc.LineCount() - 1)
	}
	text := doc.LineText(line)

	// Traverse runes in target line to match UTF-16 character count
	var charCount, byteCount int
	for _, r := range text {
		unitCount := 1
		if r > 0xFFFF {
			unitCount = 2
		}
		if uint32(charCount+unitCount) > pos.Character {
			break
		}
		charCount += unitCount
		byteCount += utf8.RuneLen(r)
	}
	return document.Position{Line: line, Character: byteCount}
}

// FromPosition converts a byte-based document position back to an LSP Position.
func FromPosition(doc *document.Document, p document.Position) lsp.Position {
	p = doc.Clamp(p)
	prefix := doc.LineText(p.Line)[:p.Character]

	// Count UTF-16 code units in prefix
	var charCount uint32
	for _, r := range prefix {
		if r > 0xFFFF {
			charCount += 2
		} else {
			charCount += 1
		}
	}
	return lsp.Position{Line: uint32(p.Line), Character: charCount}
}

// ToRange converts an LSP range into a byte-based document range.
func ToRange(doc *document.Document, r lsp.Range) document.Range {
	return document.NewRange(ToPosition(doc, r.Start), ToPosition(doc, r.End))
}

// FromRange converts a byte-based document range into an LSP range.
func FromRange(doc *document.Document, r document.Range) lsp.Range {
	return lsp.Range{Start: FromPosition(doc, r.Start), End: FromPosition(doc, r.End)}
}

// CreateTSEditAdapter builds the tree-sitter edit for replacing r in doc with
// newText. doc is the snapshot before the edit.
func CreateTSEditAdapter(
	doc *document.Document,
	r document.Range,
	newText string,
) sitter.EditInput {
	startByte := doc.Offset(r.Start)
	oldEndByte := doc.Offset(r.End)
	start := doc.Clamp(r.Start)
	oldEnd := doc.Clamp(r.End)

	startPoint := sitter.Point{Row: uint32(start.Line), Column: uint32(start.Character)}
	return sitter.EditInput{
		StartIndex:  uint32(startByte),
		OldEndIndex: uint32(oldEndByte),
		NewEndIndex: uint32(startByte + len(newText)),
		StartPoint:  startPoint,
		OldEndPoint: sitter.Point{Row: uint32(oldEnd.Line), Column: uint32(oldEnd.Character)},
		NewEndPoint: computeNewEndPoint(startPoint, newText),
	}
}

// computeNewEndPoint computes the tree-sitter Point after inserting newText at startPoint.
func computeNewEndPoint(startPoint sitter.Point, newText string) sitter.Point {
	lines := strings.Split(newText, "\n")
	last := lines[len(lines)-1]
	if len(lines) == 1 {
		return sitter.Point{Row: startPoint.Row, Column: startPoint.Column + uint32(len(last))}
	}
	return sitter.Point{Row: startPoint.Row + uint32(len(lines)-1), Column: uint32(len(last))}
}
