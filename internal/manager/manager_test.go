package manager_test

import (
	"errors"
	"testing"

	"umath/internal/document"
	"umath/internal/manager"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const uri = "file:///note.md"

func change(startLine, startChar, endLine, endChar uint32, text string) protocol.TextDocumentContentChangeEvent {
	return protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: startLine, Character: startChar},
			End:   protocol.Position{Line: endLine, Character: endChar},
		},
		Text: text,
	}
}

func TestOpenAndEdit(t *testing.T) {
	dm := manager.NewDocumentManager()
	defer dm.CloseAll()

	if _, err := dm.Open(uri, manager.LanguageMarkdown, 1, "text\n\n$$\nx\n$$\n"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if blocks, ok := dm.Blocks(uri); !ok || blocks.InQuote(2) {
		t.Fatalf("Blocks() = %+v, %v", blocks, ok)
	}

	// Quote the display math.
	err := dm.ApplyChanges(uri, 2, []any{
		change(2, 0, 2, 0, "> "),
		change(3, 0, 3, 0, "> "),
		change(4, 0, 4, 0, "> "),
	})
	if err != nil {
		t.Fatalf("ApplyChanges() error = %v", err)
	}

	doc, ok := dm.Document(uri)
	if !ok {
		t.Fatal("Document() not found after edit")
	}
	if doc.Version() != 2 || doc.Text() != "text\n\n> $$\n> x\n> $$\n" {
		t.Errorf("Document() = v%d %q", doc.Version(), doc.Text())
	}
	blocks, _ := dm.Blocks(uri)
	for _, line := range []int{2, 3, 4} {
		if !blocks.InQuote(line) {
			t.Errorf("line %d not in a quote after edit", line)
		}
	}
	if blocks.InQuote(0) {
		t.Error("line 0 in a quote")
	}
}

func TestFullTextChange(t *testing.T) {
	dm := manager.NewDocumentManager()
	defer dm.CloseAll()

	dm.Open(uri, manager.LanguageMarkdown, 1, "> a")
	err := dm.ApplyChanges(uri, 2, []any{protocol.TextDocumentContentChangeEventWhole{Text: "```\n$a$\n```"}})
	if err != nil {
		t.Fatalf("ApplyChanges() error = %v", err)
	}
	blocks, _ := dm.Blocks(uri)
	if blocks.InQuote(0) || !blocks.InCode(1) {
		t.Errorf("Blocks() = %+v", blocks)
	}
}

func TestNonMarkdownHasNoBlocks(t *testing.T) {
	dm := manager.NewDocumentManager()
	defer dm.CloseAll()

	if _, err := dm.Open("file:///paper.tex", "latex", 1, `\begin{equation}x\end{equation}`); err != nil {
		t.Fatal(err)
	}
	if _, ok := dm.Blocks("file:///paper.tex"); ok {
		t.Error("Blocks() reported a block tree for LaTeX")
	}
	if _, ok := dm.Document("file:///paper.tex"); !ok {
		t.Error("Document() missing")
	}
}

func TestUnknownDocument(t *testing.T) {
	dm := manager.NewDocumentManager()

	err := dm.ApplyChanges(uri, 2, []any{change(0, 0, 0, 0, "x")})
	if !errors.Is(err, document.ErrNotOpen) {
		t.Errorf("ApplyChanges() error = %v, want ErrNotOpen", err)
	}

	dm.Open(uri, manager.LanguageMarkdown, 1, "x")
	dm.Release(uri)
	if _, ok := dm.Document(uri); ok {
		t.Error("Document() found a released document")
	}
}
