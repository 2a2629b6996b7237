// Package render turns TeX into SVG and SVG into decoration styles.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var ErrRender = errors.New("render failed")

// Backend names with built-in meaning.
const (
	DefaultBackend = "mathjax"
	ClientBackend  = "client"
)

var log = commonlog.GetLogger("umath.render")

// Renderer converts TeX to SVG markup. Implementations may return markup
// containing an error marker instead of an error; see Failed.
type Renderer interface {
	Render(ctx context.Context, tex string, display bool) (string, error)
}

// Failed reports whether svg carries an embedded error marker.
func Failed(svg string) bool {
	return strings.Contains(svg, "error")
}

// Check folds embedded error markers and empty output into ErrRender.
func Check(svg string, err error) (string, error) {
	if err != nil {
		if errors.Is(err, ErrRender) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	if strings.TrimSpace(svg) == "" {
		return "", fmt.Errorf("%w: empty output", ErrRender)
	}
	if Failed(svg) {
		return "", fmt.Errorf("%w: renderer reported an error", ErrRender)
	}
	return svg, nil
}

// Registry maps backend names to renderers.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	fallback  string
}

// NewRegistry creates a registry whose unknown names resolve to fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
		fallback:  fallback,
	}
}

func (r *Registry) Register(name string, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[name] = renderer
}

// Get returns the renderer registered under name, or the fallback, along
// with the name actually resolved.
func (r *Registry) Get(name string) (Renderer, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rd, ok := r.renderers[name]; ok {
		return rd, name, true
	}
	if rd, ok := r.renderers[r.fallback]; ok {
		log.Debugf("unknown renderer %q, using %q", name, r.fallback)
		return rd, r.fallback, true
	}
	return nil, "", false
}

// Names lists the registered backends.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	return names
}
