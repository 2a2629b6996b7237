package render

import (
	"context"
	"errors"

	"umath/internal/store"
)

// Cached serves renders from a store and records the ones Check accepts.
type Cached struct {
	name  string
	next  Renderer
	store *store.Store
}

// NewCached wraps next. name is part of the cache key, so backends never
// share entries.
func NewCached(name string, next Renderer, st *store.Store) *Cached {
	return &Cached{name: name, next: next, store: st}
}

func (c *Cached) Render(ctx context.Context, tex string, display bool) (string, error) {
	key := store.Key(c.name, display, tex)

	e, err := c.store.Get(key)
	if err == nil {
		return e.SVG, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Warningf("render cache lookup failed: %v", err)
	}

	svg, err := c.next.Render(ctx, tex, display)
	if _, checkErr := Check(svg, err); checkErr != nil {
		// Only output Check accepts is stored.
		return svg, err
	}

	if err := c.store.Put(store.Entry{
		Key:      key,
		Renderer: c.name,
		Display:  display,
		SVG:      svg,
	}); err != nil {
		log.Warningf("render cache write failed: %v", err)
	}
	return svg, nil
}
