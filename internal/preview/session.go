// Package preview drives math previews for one editor connection: it
// reacts to cursor and viewport events, renders the expression under the
// cursor and tells the host where to draw it.
package preview

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"umath/internal/config"
	"umath/internal/delimiter"
	"umath/internal/document"
	"umath/internal/extract"
	"umath/internal/macro"
	"umath/internal/placement"
	"umath/internal/render"
	"umath/internal/scheduler"
	"umath/internal/scope"

	"github.com/sanity-io/litter"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("umath.preview")

// Debounce keys.
const (
	KeyPreview  = "preview"
	KeyRelocate = "relocate"
)

// Preview is a decoration the host should draw.
type Preview struct {
	URI string
	// Position is the anchor. Its Character counts bytes of line ColumnLine,
	// which differs from Position.Line when the anchor was clamped into view.
	Position   document.Position
	ColumnLine int
	CSS        string
	Display    bool
}

// Host draws and removes decorations.
type Host interface {
	ShowPreview(p Preview)
	ClearPreview(uri string)
}

// Documents gives access to open document snapshots.
type Documents interface {
	Document(uri string) (*document.Document, bool)
}

// Event is a cursor or viewport update of the active editor.
type Event struct {
	URI        string
	Position   document.Position
	Visible    document.Range
	LineHeight float64
	FontSize   float64
}

// shown is the last preview that rendered, kept for relocation.
type shown struct {
	uri      string
	svg      string
	heightEm float64
	display  bool
	begin    delimiter.Boundary
	end      delimiter.Boundary
}

// Session owns the preview state of one connection. Evaluation, relocation
// and commands run as tasks on the scheduler, so everything below the
// config mutex is only touched by the scheduler's worker.
type Session struct {
	docs       Documents
	host       Host
	classifier *scope.Classifier
	renderers  *render.Registry
	sched      *scheduler.Scheduler

	mu  sync.RWMutex
	cfg config.Config

	// clientRenders counts umath/render requests in flight.
	clientRenders atomic.Int32

	macros    string
	macroURI  string
	state     State
	inMath    bool
	last      *shown
	lastEvent *Event
	displayed map[string]struct{}
}

func NewSession(
	docs Documents,
	host Host,
	classifier *scope.Classifier,
	renderers *render.Registry,
	sched *scheduler.Scheduler,
	cfg config.Config,
) *Session {
	return &Session{
		docs:       docs,
		host:       host,
		classifier: classifier,
		renderers:  renderers,
		sched:      sched,
		cfg:        cfg,
		displayed:  make(map[string]struct{}),
	}
}

// Config returns the current configuration snapshot.
func (s *Session) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Configure replaces the configuration. Disabling previews clears them;
// macros are rescanned since the configured extras may have changed.
func (s *Session) Configure(cfg config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.schedule("configure", func() error {
		if !cfg.EnableMathPreview {
			s.clearAll()
			return nil
		}
		s.rescanMacros(s.macroURI)
		return nil
	})
}

func (s *Session) setEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.EnableMathPreview = enabled
}

func (s *Session) schedule(name string, fn func() error) {
	s.sched.ScheduleHighPriorityTask(scheduler.Task{Name: name, Execute: fn})
}

// CursorChanged schedules a debounced evaluation of ev.
func (s *Session) CursorChanged(ev Event) {
	cfg := s.Config()
	if !cfg.EnableMathPreview {
		return
	}
	s.sched.Debounce(KeyPreview, cfg.DebounceInterval(), scheduler.Task{
		Name: KeyPreview,
		Execute: func() error {
			return s.Evaluate(context.Background(), ev)
		},
	})
}

// ViewportChanged schedules a debounced relocation of the current preview.
func (s *Session) ViewportChanged(ev Event) {
	cfg := s.Config()
	if !cfg.EnableMathPreview || !cfg.AutoAdjustPreviewPosition {
		return
	}
	s.sched.Debounce(KeyRelocate, cfg.DebounceInterval(), scheduler.Task{
		Name: KeyRelocate,
		Execute: func() error {
			s.Relocate(ev)
			return nil
		},
	})
}

// ActiveEditorChanged rescans the macros of the newly active document.
func (s *Session) ActiveEditorChanged(uri string) {
	s.schedule("activeEditor", func() error {
		if s.Config().EnableMathPreview {
			s.rescanMacros(uri)
		}
		return nil
	})
}

// CloseAll removes every preview.
func (s *Session) CloseAll() {
	s.schedule("closeAllPreview", func() error {
		s.clearAll()
		return nil
	})
}

// ReloadMacros rescans the active document's macros and re-evaluates.
func (s *Session) ReloadMacros() {
	s.schedule("reloadMacros", func() error {
		if !s.Config().EnableMathPreview {
			return nil
		}
		s.rescanMacros(s.macroURI)
		return s.reevaluate()
	})
}

// Reload re-evaluates the last cursor event.
func (s *Session) Reload() {
	s.schedule("reloadPreview", s.reevaluate)
}

// Toggle flips the enable setting. Turning previews on rescans macros and
// re-evaluates; the new state is passed to done when the toggle has run.
func (s *Session) Toggle(done func(enabled bool)) {
	s.schedule("toggleMathPreview", func() error {
		enabled := !s.Config().EnableMathPreview
		s.setEnabled(enabled)
		s.clearAll()
		if done != nil {
			done(enabled)
		}
		if !enabled {
			return nil
		}
		s.rescanMacros(s.macroURI)
		return s.reevaluate()
	})
}

func (s *Session) reevaluate() error {
	if s.lastEvent == nil {
		return nil
	}
	return s.Evaluate(context.Background(), *s.lastEvent)
}

// Evaluate clears the current preview and shows one for the math under the
// cursor of ev, if any. It must run on the scheduler's worker.
func (s *Session) Evaluate(ctx context.Context, ev Event) error {
	return s.evaluate(ctx, ev, false)
}

func (s *Session) evaluate(ctx context.Context, ev Event, retry bool) error {
	s.clearAll()
	s.last = nil
	cfg := s.Config()
	if !cfg.EnableMathPreview {
		s.state = StateIdle
		return nil
	}
	e := ev
	s.lastEvent = &e

	doc, ok := s.docs.Document(ev.URI)
	if !ok {
		log.Debugf("no document for %s", ev.URI)
		s.state = StateIdle
		return nil
	}
	if ev.URI != s.macroURI {
		s.rescanMacros(ev.URI)
	}

	pos := doc.Clamp(ev.Position)
	ms := s.classifier.Classify(doc, pos)
	s.inMath = ms.Valid()
	if !s.inMath {
		s.state = StateIdle
		return nil
	}

	span, err := extract.Extract(doc, ms, pos, extract.Options{
		CursorGlyph: cfg.CursorGlyph(),
		Macros:      s.macros,
	})
	if err != nil {
		log.Debugf("no expression at %s:%v: %v", ev.URI, pos, err)
		s.state = StateIdle
		return nil
	}

	if retry {
		s.state = StateRetrying
	} else {
		s.state = StateRendering
	}
	svg, err := s.render(ctx, cfg.Renderer, span.TeX, span.Display)
	if err != nil {
		s.renderFailed(ev, err)
		return nil
	}
	s.state = StateIdle

	s.last = &shown{
		uri:      ev.URI,
		svg:      render.Stylize(svg, render.ParseTheme(cfg.Theme)),
		heightEm: render.CapHeight(render.HeightEm(svg), cfg.CSS(), ev.FontSize),
		display:  span.Display,
		begin:    span.Begin,
		end:      span.End,
	}
	s.show(cfg, ev)
	return nil
}

func (s *Session) render(ctx context.Context, backend, tex string, display bool) (string, error) {
	rd, name, ok := s.renderers.Get(backend)
	if !ok {
		return "", fmt.Errorf("%w: no renderer %q", render.ErrRender, backend)
	}
	ctx, cancel := context.WithTimeout(ctx, render.DefaultTimeout)
	defer cancel()

	if name == render.ClientBackend {
		s.clientRenders.Add(1)
		defer s.clientRenders.Add(-1)
	}
	log.Debugf("rendering with %s (display=%t)", name, display)
	return render.Check(rd.Render(ctx, tex, display))
}

// renderFailed advances the retry state machine: the first failure queues
// one more evaluation of the same event, a failed retry gives up until the
// next event.
func (s *Session) renderFailed(ev Event, err error) {
	log.Warningf("%v", err)
	if s.state == StateRetrying {
		log.Noticef("render failed again, giving up until the next event")
		s.state = StateIdle
		return
	}

	log.Infof("retrying render")
	s.state = StateRetryPending
	s.sched.Debounce(KeyPreview, 0, scheduler.Task{
		Name: "retry",
		Execute: func() error {
			return s.evaluate(context.Background(), ev, true)
		},
	})
}

// Relocate re-anchors the last preview for the viewport of ev without
// rendering again.
func (s *Session) Relocate(ev Event) {
	s.clearAll()
	cfg := s.Config()
	if !cfg.EnableMathPreview || s.last == nil || !s.inMath || s.state != StateIdle {
		return
	}
	if s.last.uri != ev.URI {
		return
	}
	s.show(cfg, ev)
}

func (s *Session) show(cfg config.Config, ev Event) {
	last := s.last
	anchor := placement.ParseAnchor(cfg.Position)
	req := placement.Request{
		LineHeight: ev.LineHeight,
		HeightEm:   last.heightEm,
		Visible:    ev.Visible,
		Anchor:     anchor,
		Begin:      last.begin,
		End:        last.end,
	}
	if log.AllowLevel(commonlog.Debug) {
		log.Debugf("planning %s", litter.Sdump(req))
	}
	pos := placement.Plan(req)

	s.host.ShowPreview(Preview{
		URI:        last.uri,
		Position:   pos,
		ColumnLine: last.end.Insert.Line,
		CSS:        render.Decoration(last.svg, anchor, cfg.CSS()),
		Display:    last.display,
	})
	s.displayed[last.uri] = struct{}{}
}

func (s *Session) clearAll() {
	for uri := range s.displayed {
		s.host.ClearPreview(uri)
		delete(s.displayed, uri)
	}
}

func (s *Session) rescanMacros(uri string) {
	s.macroURI = uri
	extra := s.Config().Macros
	doc, ok := s.docs.Document(uri)
	if !ok {
		s.macros = macro.Scan(nil, extra).String()
		return
	}
	s.macros = macro.Scan(doc, extra).String()
}

// State reports the retry state. Read it only from the worker or after the
// worker has gone idle.
func (s *Session) State() State {
	return s.state
}
