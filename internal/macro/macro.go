// Package macro collects TeX macro definitions from documents.
package macro

import (
	"regexp"
	"strings"
)

// definition matches \newcommand, \renewcommand and \providecommand. The
// body is either one control sequence or a brace group; a brace group is
// matched greedily and trimmed to its balanced prefix afterwards.
var definition = regexp.MustCompile(
	`(?P<init>\\(?:new|renew|provide)command\**\s*(?:\\\w+|\{[\\\w]+\})(?:\s*\[\d+\]\s*){0,2})(\\\S+|\{(?P<carry>.*)\})`,
)

var (
	initIndex  = definition.SubexpIndex("init")
	carryIndex = definition.SubexpIndex("carry")
)

// Lines is the read access Scan needs.
type Lines interface {
	LineCount() int
	LineText(line int) string
}

// Result lists the definitions found, in document order, followed by the
// configured extras.
type Result struct {
	Macros []string
	// Lines holds the zero-based lines that contain definitions.
	Lines []int
}

// String joins the macros into the prefix handed to renderers.
func (r Result) String() string {
	return strings.Join(r.Macros, "\n")
}

// Scan finds the macro definitions of doc. A line may hold several.
func Scan(doc Lines, extra []string) Result {
	var r Result
	if doc != nil {
		for line := 0; line < doc.LineCount(); line++ {
			found := scanLine(doc.LineText(line))
			if len(found) > 0 {
				r.Macros = append(r.Macros, found...)
				r.Lines = append(r.Lines, line)
			}
		}
	}
	r.Macros = append(r.Macros, extra...)
	return r
}

func scanLine(text string) []string {
	var out []string
	for text != "" {
		m := definition.FindStringSubmatchIndex(text)
		if m == nil {
			break
		}
		def := text[m[0]:m[1]]
		if m[2*carryIndex] >= 0 {
			init := text[m[2*initIndex]:m[2*initIndex+1]]
			carry := text[m[2*carryIndex]:m[2*carryIndex+1]]
			if body, ok := balanced(carry); ok {
				def = init + "{" + body + "}"
			}
		}
		out = append(out, def)
		// Resume after the definition so the rest of a greedy match is
		// scanned again.
		end := m[0] + len(def)
		if end <= m[0] {
			break
		}
		text = text[end:]
	}
	return out
}

// balanced returns the prefix of carry, the text after an opening brace,
// that closes that brace.
func balanced(carry string) (string, bool) {
	depth := 1
	for i := 0; i < len(carry); i++ {
		switch carry[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth == 0 {
			return carry[:i], true
		}
	}
	return "", false
}
