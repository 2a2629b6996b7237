package server

import (
	"encoding/json"

	"umath/internal/document"
	"umath/internal/preview"
	"umath/internal/sitteradapter"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Client to server notifications.
const (
	MethodCursorChanged       = "umath/cursorChanged"
	MethodVisibleRangeChanged = "umath/visibleRangeChanged"
	MethodActiveEditorChanged = "umath/activeEditorChanged"
)

// Server to client notifications.
const (
	MethodShowPreview  = "umath/showPreview"
	MethodClearPreview = "umath/clearPreview"
)

// EditorMetrics are the editor settings placement depends on.
type EditorMetrics struct {
	VisibleRange protocol.Range `json:"visibleRange"`
	// LineHeight in em; 0 means the editor default.
	LineHeight float64 `json:"lineHeight"`
	// FontSize in px; 0 means the editor default.
	FontSize float64 `json:"fontSize"`
}

type CursorChangedParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Position     protocol.Position               `json:"position"`
	EditorMetrics
}

type VisibleRangeChangedParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	EditorMetrics
}

type ActiveEditorChangedParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
}

type ShowPreviewParams struct {
	URI      protocol.DocumentUri `json:"uri"`
	Position protocol.Position    `json:"position"`
	CSS      string               `json:"css"`
	Display  bool                 `json:"display"`
}

type ClearPreviewParams struct {
	URI protocol.DocumentUri `json:"uri"`
}

func (s *Server) handleCustom(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	switch context.Method {
	case MethodCursorChanged:
		var params CursorChangedParams
		if err := json.Unmarshal(context.Params, &params); err != nil {
			return nil, true, false, err
		}
		s.cursorChanged(&params)

	case MethodVisibleRangeChanged:
		var params VisibleRangeChangedParams
		if err := json.Unmarshal(context.Params, &params); err != nil {
			return nil, true, false, err
		}
		s.visibleRangeChanged(&params)

	case MethodActiveEditorChanged:
		var params ActiveEditorChangedParams
		if err := json.Unmarshal(context.Params, &params); err != nil {
			return nil, true, false, err
		}
		s.activeEditorChanged(&params)
	}
	return nil, true, true, nil
}

func (s *Server) cursorChanged(params *CursorChangedParams) {
	uri := params.TextDocument.URI
	doc, ok := s.manager.Document(uri)
	if !ok {
		return
	}
	ev := event(uri, params.EditorMetrics)
	ev.Position = sitteradapter.ToPosition(doc, params.Position)
	s.session.CursorChanged(ev)
}

func (s *Server) visibleRangeChanged(params *VisibleRangeChangedParams) {
	s.session.ViewportChanged(event(params.TextDocument.URI, params.EditorMetrics))
}

func (s *Server) activeEditorChanged(params *ActiveEditorChangedParams) {
	uri := params.TextDocument.URI
	s.mu.Lock()
	changed := s.active != uri
	s.active = uri
	s.mu.Unlock()
	if changed {
		s.session.ActiveEditorChanged(uri)
	}
}

// event converts editor metrics. Only lines of the visible range matter.
func event(uri string, m EditorMetrics) preview.Event {
	return preview.Event{
		URI: uri,
		Visible: document.NewRange(
			document.Position{Line: int(m.VisibleRange.Start.Line)},
			document.Position{Line: int(m.VisibleRange.End.Line)},
		),
		LineHeight: m.LineHeight,
		FontSize:   m.FontSize,
	}
}

// ShowPreview sends a preview to the client, converting the anchor column
// to UTF-16.
func (s *Server) ShowPreview(p preview.Preview) {
	doc, ok := s.manager.Document(p.URI)
	if !ok {
		return
	}
	col := sitteradapter.FromPosition(doc, document.Position{Line: p.ColumnLine, Character: p.Position.Character})
	s.notifyClient(MethodShowPreview, ShowPreviewParams{
		URI: p.URI,
		Position: protocol.Position{
			Line:      protocol.UInteger(p.Position.Line),
			Character: col.Character,
		},
		CSS:     p.CSS,
		Display: p.Display,
	})
}

func (s *Server) ClearPreview(uri string) {
	s.notifyClient(MethodClearPreview, ClearPreviewParams{URI: uri})
}
