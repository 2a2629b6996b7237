package server

import (
	"fmt"
	"log"
	"time"

	"umath/internal/config"
	"umath/internal/render"
	"umath/internal/scheduler"
	"umath/internal/store"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const pruneInterval = 10 * time.Minute

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	s.bindClient(context)

	// Config
	cfg, err := config.Load(params.InitializationOptions)
	if err != nil {
		log.Printf("Config error, using defaults: %v", err)
		cfg = config.Default()
	}
	log.Printf("Config: %+v", cfg)

	// Render cache
	path, err := cachePath(cfg.Cache)
	if err != nil {
		log.Printf("No render cache: %v", err)
	} else if st, err := store.Open(path); err != nil {
		log.Printf("No render cache: %v", err)
	} else {
		s.store = st
		log.Printf("Render cache at %s", path)
	}

	s.registerRenderers(cfg)
	s.session.Configure(cfg)
	s.sched.RunScheduler()
	if s.store != nil {
		s.sched.SchedulePeriodicTask(pruneInterval, scheduler.Task{
			Name:    "prune",
			Execute: s.pruneCache,
		})
	}

	syncKind := protocol.TextDocumentSyncKindIncremental

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: Commands,
	}

	version := Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    "umath",
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Println("Client initialized.")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	s.sched.StopScheduler()
	protocol.SetTraceValue(protocol.TraceValueOff)

	var errs []error
	if err := s.manager.CloseAll(); err != nil {
		errs = append(errs, err)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %v", errs)
	}
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	cfg, err := config.Merge(s.session.Config(), params.Settings)
	if err != nil {
		log.Printf("Ignoring configuration change: %v", err)
		return nil
	}
	s.registerRenderers(cfg)
	s.session.Configure(cfg)
	return nil
}

// registerRenderers installs the built-in backends and the configured
// command backends, all behind the render cache when there is one.
func (s *Server) registerRenderers(cfg config.Config) {
	s.mu.Lock()
	call := s.call
	s.mu.Unlock()

	backends := map[string]render.Renderer{
		render.DefaultBackend: render.MathJax(),
		render.ClientBackend:  render.NewClient(call),
	}
	for name, r := range cfg.Renderers {
		if r.Command == "" {
			log.Printf("Renderer %s has no command, skipping", name)
			continue
		}
		backends[name] = &render.Command{
			Name:        name,
			Path:        r.Command,
			Args:        r.Args,
			InlineArgs:  r.InlineArgs,
			WrapDisplay: r.WrapDisplay,
			Timeout:     r.TimeoutDuration(),
		}
	}

	for name, backend := range backends {
		if s.store != nil {
			backend = render.NewCached(name, backend, s.store)
		}
		s.renderers.Register(name, backend)
	}
}

func (s *Server) pruneCache() error {
	n, err := s.store.Prune(s.session.Config().CacheLimit)
	if err != nil {
		return fmt.Errorf("failed to prune render cache: %w", err)
	}
	if n > 0 {
		log.Printf("Pruned %d cached renders", n)
	}
	return nil
}
