package scope

import (
	"strings"

	"umath/internal/markdown"
)

type flavor int

const (
	flavorMarkdown flavor = iota
	flavorLaTeX
)

type role int

const (
	roleText role = iota
	roleCode
	roleComment
	roleOpen
	roleContent
	roleClose
)

type mathKind int

const (
	kindNone mathKind = iota
	kindInline
	kindDisplay
	kindInlineEnv
	kindDisplayEnv
)

var displayEnvs = map[string]bool{
	"equation":    true,
	"equation*":   true,
	"align":       true,
	"align*":      true,
	"gather":      true,
	"gather*":     true,
	"displaymath": true,
}

// segment is a byte range of the source with one classification. Segments
// produced by a lexer are contiguous and cover the whole source.
type segment struct {
	start, end int
	role       role
	kind       mathKind
}

type lexer struct {
	src    string
	flavor flavor
	blocks markdown.Blocks
	pos    int
	line   int
	segs   []segment
}

func (l *lexer) run() []segment {
	for l.pos < len(l.src) {
		if l.flavor == flavorMarkdown && l.atLineStart() && l.blocks.InCode(l.line) {
			l.emit(l.lineEnd(l.pos), roleCode, kindNone)
			continue
		}
		switch c := l.src[l.pos]; {
		case c == '\\':
			l.lexBackslash()
		case c == '$':
			if strings.HasPrefix(l.src[l.pos:], "$$") {
				l.lexMath("$$", "$$", kindDisplay, false)
			} else {
				l.lexMath("$", "$", kindInline, true)
			}
		case c == '`' && l.flavor == flavorMarkdown:
			l.lexCodeSpan()
		case c == '%' && l.flavor == flavorLaTeX:
			l.emit(l.lineEnd(l.pos), roleComment, kindNone)
		default:
			l.emit(l.pos+1, roleText, kindNone)
		}
	}
	return l.segs
}

func (l *lexer) lexBackslash() {
	rest := l.src[l.pos:]
	switch {
	case strings.HasPrefix(rest, `\[`):
		l.lexMath(`\[`, `\]`, kindDisplay, false)
	case strings.HasPrefix(rest, `\(`):
		l.lexMath(`\(`, `\)`, kindInline, true)
	case l.flavor == flavorLaTeX && strings.HasPrefix(rest, `\begin{`):
		name, ok := envName(rest)
		switch {
		case ok && displayEnvs[name]:
			l.lexMath(`\begin{`+name+`}`, `\end{`+name+`}`, kindDisplayEnv, false)
		case ok && name == "math":
			l.lexMath(`\begin{math}`, `\end{math}`, kindInlineEnv, false)
		default:
			l.emit(l.pos+len(`\begin{`), roleText, kindNone)
		}
	default:
		// Escapes such as \$ and \\ are literal text.
		l.emit(min(l.pos+2, len(l.src)), roleText, kindNone)
	}
}

// lexMath consumes one math run starting at the opening delimiter. Inline
// runs without a closing delimiter before the next blank line are literal
// text; other runs extend to the end of the source.
func (l *lexer) lexMath(open, close string, kind mathKind, untilBlank bool) {
	body := l.pos + len(open)
	end := l.findClose(body, close, untilBlank)
	if end < 0 {
		if untilBlank {
			l.emit(body, roleText, kindNone)
			return
		}
		l.emit(body, roleOpen, kind)
		l.emit(len(l.src), roleContent, kind)
		return
	}
	l.emit(body, roleOpen, kind)
	l.emit(end, roleContent, kind)
	l.emit(end+len(close), roleClose, kind)
}

func (l *lexer) findClose(from int, token string, untilBlank bool) int {
	for k := from; k < len(l.src); {
		if strings.HasPrefix(l.src[k:], token) {
			return k
		}
		switch l.src[k] {
		case '\\':
			k += 2
			continue
		case '\n':
			if untilBlank && blankLineAt(l.src, k+1) {
				return -1
			}
		}
		k++
	}
	return -1
}

func (l *lexer) lexCodeSpan() {
	run := ticks(l.src, l.pos)
	for k := l.pos + run; k < len(l.src); {
		switch l.src[k] {
		case '`':
			n := ticks(l.src, k)
			if n == run {
				l.emit(k+n, roleCode, kindNone)
				return
			}
			k += n
			continue
		case '\n':
			if blankLineAt(l.src, k+1) {
				k = len(l.src)
				continue
			}
		}
		k++
	}
	l.emit(l.pos+run, roleText, kindNone)
}

// emit classifies src[pos:end] and advances. Adjacent plain segments merge.
func (l *lexer) emit(end int, r role, kind mathKind) {
	if end <= l.pos {
		return
	}
	l.line += strings.Count(l.src[l.pos:end], "\n")
	if n := len(l.segs); n > 0 && r != roleOpen && r != roleClose {
		last := &l.segs[n-1]
		if last.role == r && last.kind == kind && last.end == l.pos {
			last.end = end
			l.pos = end
			return
		}
	}
	l.segs = append(l.segs, segment{start: l.pos, end: end, role: r, kind: kind})
	l.pos = end
}

func (l *lexer) atLineStart() bool {
	return l.pos == 0 || l.src[l.pos-1] == '\n'
}

// lineEnd is the offset just past the line terminator of the line holding i.
func (l *lexer) lineEnd(i int) int {
	if j := strings.IndexByte(l.src[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(l.src)
}

func envName(s string) (string, bool) {
	rest := s[len(`\begin{`):]
	j := strings.IndexByte(rest, '}')
	if j <= 0 {
		return "", false
	}
	return rest[:j], true
}

func ticks(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}

func blankLineAt(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r':
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}
