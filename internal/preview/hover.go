package preview

import (
	"context"
	"fmt"

	"umath/internal/document"
	"umath/internal/extract"
	"umath/internal/render"
)

// Hover is a rendered expression for textDocument/hover.
type Hover struct {
	// Markdown is an image of the expression.
	Markdown string
	Range    document.Range
}

type hoverResult struct {
	hover *Hover
	err   error
}

// Hover renders the math at pos as a Markdown image. It runs on the
// scheduler and waits for the result or ctx. The client backend is never
// used here since the client is busy waiting for this very answer. While the
// worker waits on a client render there is no hover: the reply to that
// render is read by the same loop that is serving this hover.
func (s *Session) Hover(ctx context.Context, uri string, pos document.Position) (*Hover, error) {
	cfg := s.Config()
	if !cfg.Hover {
		return nil, nil
	}
	if s.clientRenders.Load() > 0 {
		log.Debugf("client render in flight, no hover at %s:%v", uri, pos)
		return nil, nil
	}

	done := make(chan hoverResult, 1)
	s.schedule("hover", func() error {
		h, err := s.hover(ctx, uri, pos)
		done <- hoverResult{hover: h, err: err}
		return nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.hover, r.err
	}
}

func (s *Session) hover(ctx context.Context, uri string, pos document.Position) (*Hover, error) {
	doc, ok := s.docs.Document(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", document.ErrNotOpen, uri)
	}
	if uri != s.macroURI {
		s.rescanMacros(uri)
	}

	pos = doc.Clamp(pos)
	ms := s.classifier.Classify(doc, pos)
	if !ms.Valid() {
		return nil, nil
	}
	span, err := extract.Extract(doc, ms, pos, extract.Options{Macros: s.macros})
	if err != nil {
		log.Debugf("no expression to hover at %s:%v: %v", uri, pos, err)
		return nil, nil
	}

	cfg := s.Config()
	backend := cfg.Renderer
	if backend == render.ClientBackend {
		backend = render.DefaultBackend
	}
	svg, err := s.render(ctx, backend, span.TeX, span.Display)
	if err != nil {
		log.Warningf("hover: %v", err)
		return nil, nil
	}

	return &Hover{
		Markdown: fmt.Sprintf("![math](%s)", render.DataURI(svg, render.ParseTheme(cfg.Theme))),
		Range:    span.Range,
	}, nil
}
