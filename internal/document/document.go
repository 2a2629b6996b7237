package document

import (
	"strings"
)

// Document is an immutable snapshot of an open text document. Edits produce
// a new snapshot with a new version, so a snapshot can be read from any
// goroutine without locking.
type Document struct {
	uri        string
	languageID string
	version    int32
	text       string
	starts     []int // byte offset of each line start
}

func New(uri, languageID string, version int32, text string) *Document {
	d := &Document{
		uri:        uri,
		languageID: languageID,
		version:    version,
		text:       text,
		starts:     []int{0},
	}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			d.starts = append(d.starts, i+1)
		}
	}
	return d
}

func (d *Document) URI() string        { return d.uri }
func (d *Document) LanguageID() string { return d.languageID }
func (d *Document) Version() int32     { return d.version }
func (d *Document) Text() string       { return d.text }

func (d *Document) LineCount() int {
	return len(d.starts)
}

// LineText returns the text of line without its terminator. Lines outside the
// document are empty.
func (d *Document) LineText(line int) string {
	if line < 0 || line >= len(d.starts) {
		return ""
	}
	start := d.starts[line]
	end := len(d.text)
	if line+1 < len(d.starts) {
		end = d.starts[line+1] - 1
	}
	return strings.TrimSuffix(d.text[start:end], "\r")
}

// EndOfLine is the position just past the last character of line.
func (d *Document) EndOfLine(line int) Position {
	line = d.clampLine(line)
	return Position{Line: line, Character: len(d.LineText(line))}
}

// Clamp pulls p inside the document.
func (d *Document) Clamp(p Position) Position {
	if p.Line < 0 {
		return Position{}
	}
	if p.Line >= len(d.starts) {
		return d.EndOfLine(len(d.starts) - 1)
	}
	if p.Character < 0 {
		p.Character = 0
	}
	if n := len(d.LineText(p.Line)); p.Character > n {
		p.Character = n
	}
	return p
}

// Offset converts p to a byte offset into Text.
func (d *Document) Offset(p Position) int {
	p = d.Clamp(p)
	return d.starts[p.Line] + p.Character
}

// PositionAt converts a byte offset into a position.
func (d *Document) PositionAt(offset int) Position {
	if offset <= 0 {
		return Position{}
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := len(d.starts) - 1
	for line > 0 && d.starts[line] > offset {
		line--
	}
	return d.Clamp(Position{Line: line, Character: offset - d.starts[line]})
}

// TextIn returns the text covered by r, clamped to the document.
func (d *Document) TextIn(r Range) string {
	start := d.Offset(r.Start)
	end := d.Offset(r.End)
	if end < start {
		return ""
	}
	return d.text[start:end]
}

// Replace returns a new snapshot with r replaced by text.
func (d *Document) Replace(r Range, text string, version int32) *Document {
	start := d.Offset(r.Start)
	end := d.Offset(r.End)
	if end < start {
		start, end = end, start
	}
	return New(d.uri, d.languageID, version, d.text[:start]+text+d.text[end:])
}

// WithText returns a new snapshot holding text.
func (d *Document) WithText(text string, version int32) *Document {
	return New(d.uri, d.languageID, version, text)
}

func (d *Document) clampLine(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(d.starts) {
		return len(d.starts) - 1
	}
	return line
}
