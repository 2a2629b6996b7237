package manager

import (
	"context"
	"fmt"
	"log"
	"sync"

	"umath/internal/document"
	"umath/internal/markdown"
	"umath/internal/sitteradapter"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LanguageMarkdown is the LSP language id of documents that get a Markdown
// block tree.
const LanguageMarkdown = "markdown"

type entry struct {
	doc    *document.Document
	parser *markdown.Parser
	blocks markdown.Blocks
}

// DocumentManager encapsulates snapshot and parser state for each open URI.
type DocumentManager struct {
	mu   sync.Mutex
	docs map[string]*entry
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs: make(map[string]*entry),
	}
}

// Open registers a document. Opening a URI twice replaces the old state.
func (dm *DocumentManager) Open(
	uri string,
	languageID string,
	version int32,
	text string,
) (*document.Document, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if old, ok := dm.docs[uri]; ok {
		log.Printf("Reopening %s", uri)
		old.close()
	}

	e := &entry{doc: document.New(uri, languageID, version, text)}
	if languageID == LanguageMarkdown {
		e.parser = markdown.NewParser()
	}
	if err := e.reparse(); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}
	dm.docs[uri] = e
	return e.doc, nil
}

// ApplyChanges applies the content changes of one didChange notification in
// order and reparses once at the end.
func (dm *DocumentManager) ApplyChanges(uri string, version int32, changes []any) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	e, ok := dm.docs[uri]
	if !ok {
		return fmt.Errorf("%w: %s", document.ErrNotOpen, uri)
	}

	for _, raw := range changes {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				e.doc = e.doc.WithText(change.Text, version)
				e.resetTree()
				continue
			}
			r := sitteradapter.ToRange(e.doc, *change.Range)
			if e.parser != nil {
				e.parser.Edit(sitteradapter.CreateTSEditAdapter(e.doc, r, change.Text))
			}
			e.doc = e.doc.Replace(r, change.Text, version)
		case protocol.TextDocumentContentChangeEventWhole:
			e.doc = e.doc.WithText(change.Text, version)
			e.resetTree()
		default:
			return fmt.Errorf("unexpected change event type %T", raw)
		}
	}

	return e.reparse()
}

// Document returns the current snapshot for a URI.
func (dm *DocumentManager) Document(uri string) (*document.Document, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	e, ok := dm.docs[uri]
	if !ok {
		return nil, false
	}
	return e.doc, true
}

// Blocks returns the Markdown block structure of a URI. Documents that are
// not Markdown report false.
func (dm *DocumentManager) Blocks(uri string) (markdown.Blocks, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	e, ok := dm.docs[uri]
	if !ok || e.parser == nil {
		return markdown.Blocks{}, false
	}
	return e.blocks, true
}

// Release frees parser and document for a URI.
func (dm *DocumentManager) Release(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if e, ok := dm.docs[uri]; ok {
		e.close()
		delete(dm.docs, uri)
	}
}

// CloseAll cleans up all parsers.
func (dm *DocumentManager) CloseAll() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	for uri, e := range dm.docs {
		if err := e.close(); err != nil {
			return fmt.Errorf("error closing parser for %s: %w", uri, err)
		}
	}
	dm.docs = make(map[string]*entry)
	return nil
}

func (e *entry) reparse() error {
	if e.parser == nil {
		return nil
	}
	source := []byte(e.doc.Text())
	if err := e.parser.Parse(context.Background(), source); err != nil {
		return err
	}
	blocks, err := e.parser.Blocks(source)
	if err != nil {
		return err
	}
	e.blocks = blocks
	return nil
}

// resetTree drops the incremental tree after a full-text replacement.
func (e *entry) resetTree() {
	if e.parser == nil {
		return
	}
	e.parser.Close()
	e.parser = markdown.NewParser()
}

func (e *entry) close() error {
	if e.parser == nil {
		return nil
	}
	return e.parser.Close()
}
