package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"umath/internal/sitteradapter"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const hoverTimeout = 5 * time.Second

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	doc := params.TextDocument
	if _, err := s.manager.Open(doc.URI, doc.LanguageID, int32(doc.Version), doc.Text); err != nil {
		return err
	}
	s.classifier.Invalidate()
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	if err := s.manager.ApplyChanges(uri, int32(params.TextDocument.Version), params.ContentChanges); err != nil {
		return fmt.Errorf("unexpected error during edit: %w", err)
	}
	s.classifier.Invalidate()
	return nil
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	s.manager.Release(params.TextDocument.URI)
	s.classifier.Invalidate()
	return nil
}

func (s *Server) textDocumentHover(
	glspContext *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	doc, ok := s.manager.Document(uri)
	if !ok {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), hoverTimeout)
	defer cancel()

	h, err := s.session.Hover(ctx, uri, sitteradapter.ToPosition(doc, params.Position))
	if err != nil {
		log.Printf("Hover failed: %v", err)
		return nil, nil
	}
	if h == nil {
		return nil, nil
	}

	r := sitteradapter.FromRange(doc, h.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: h.Markdown,
		},
		Range: &r,
	}, nil
}
