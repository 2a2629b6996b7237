package markdown

// LineSpan is an inclusive range of lines.
type LineSpan struct {
	First int
	Last  int
}

func (s LineSpan) Contains(line int) bool {
	return line >= s.First && line <= s.Last
}

// Blocks lists the block quotes and code blocks of a Markdown document.
type Blocks struct {
	Quotes []LineSpan
	Code   []LineSpan
}

func (b Blocks) InQuote(line int) bool {
	return anyContains(b.Quotes, line)
}

func (b Blocks) InCode(line int) bool {
	return anyContains(b.Code, line)
}

func anyContains(spans []LineSpan, line int) bool {
	for _, s := range spans {
		if s.Contains(line) {
			return true
		}
	}
	return false
}
