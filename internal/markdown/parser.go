package markdown

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	tsmarkdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
)

var lang = tsmarkdown.GetLanguage()

// blockQuery captures the containers that change how math is scanned.
var blockQuery = []byte(`
(block_quote) @quote
(fenced_code_block) @code
(indented_code_block) @code
`)

// Parser wraps a tree-sitter Markdown block parser along with the syntax tree
// of the last parse, so that edits can be parsed incrementally.
type Parser struct {
	parser *sitter.Parser
	tree   *sitter.Tree
	mu     sync.Mutex
}

func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &Parser{parser: p}
}

// Parse parses source, reusing the previous tree when one exists.
func (p *Parser) Parse(ctx context.Context, source []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parser == nil {
		return fmt.Errorf("parser is closed")
	}
	tree, err := p.parser.ParseCtx(ctx, p.tree, source)
	if err != nil {
		return fmt.Errorf("failed to parse markdown: %w", err)
	}
	if p.tree != nil {
		p.tree.Close()
	}
	p.tree = tree
	return nil
}

// Edit records an edit on the current tree ahead of the next Parse.
func (p *Parser) Edit(edit sitter.EditInput) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tree != nil {
		p.tree.Edit(edit)
	}
}

// Blocks runs the block query against the last parsed tree.
func (p *Parser) Blocks(source []byte) (Blocks, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tree == nil {
		return Blocks{}, fmt.Errorf("no parsed tree available; first parse a document")
	}

	q, err := sitter.NewQuery(blockQuery, lang)
	if err != nil {
		return Blocks{}, err
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, p.tree.RootNode())

	var blocks Blocks
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)
		for _, c := range m.Captures {
			span := nodeSpan(c.Node)
			switch q.CaptureNameForId(c.Index) {
			case "quote":
				blocks.Quotes = append(blocks.Quotes, span)
			case "code":
				blocks.Code = append(blocks.Code, span)
			}
		}
	}
	return blocks, nil
}

// Close frees any resources held by the Parser.
func (p *Parser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tree != nil {
		p.tree.Close()
		p.tree = nil
	}
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
	return nil
}

// nodeSpan converts a node to the lines it covers. Block nodes usually end at
// column zero of the following line, which does not belong to the block.
func nodeSpan(n *sitter.Node) LineSpan {
	start := n.StartPoint()
	end := n.EndPoint()
	last := int(end.Row)
	if end.Column == 0 && end.Row > start.Row {
		last--
	}
	return LineSpan{First: int(start.Row), Last: last}
}
