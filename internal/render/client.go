package render

import (
	"context"
	"fmt"

	"github.com/tliron/glsp"
)

// MethodRender is the server to client request used by Client.
const MethodRender = "umath/render"

type RenderParams struct {
	TeX     string `json:"tex"`
	Display bool   `json:"display"`
}

type RenderResult struct {
	SVG   string `json:"svg"`
	Error string `json:"error,omitempty"`
}

// Client delegates rendering to the editor, which usually bundles MathJax or
// KaTeX already.
type Client struct {
	call glsp.CallFunc
}

func NewClient(call glsp.CallFunc) *Client {
	return &Client{call: call}
}

// Render blocks until the editor answers or ctx is done. It must not be
// called from a handler of the connection it calls through.
func (c *Client) Render(ctx context.Context, tex string, display bool) (string, error) {
	if c.call == nil {
		return "", fmt.Errorf("%w: no client connection", ErrRender)
	}

	done := make(chan RenderResult, 1)
	go func() {
		var result RenderResult
		c.call(MethodRender, RenderParams{TeX: tex, Display: display}, &result)
		done <- result
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrRender, ctx.Err())
	case result := <-done:
		if result.Error != "" {
			return "", fmt.Errorf("%w: client: %s", ErrRender, result.Error)
		}
		return result.SVG, nil
	}
}
