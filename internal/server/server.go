package server

import (
	"sync"

	"umath/internal/config"
	"umath/internal/manager"
	"umath/internal/preview"
	"umath/internal/render"
	"umath/internal/scheduler"
	"umath/internal/scope"
	"umath/internal/store"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const queueSize = 64

// Version is reported to the client in serverInfo.
var Version = "(dev) v0.0.0"

type Server struct {
	handler    *protocol.Handler
	manager    *manager.DocumentManager
	classifier *scope.Classifier
	renderers  *render.Registry
	sched      *scheduler.Scheduler
	session    *preview.Session
	store      *store.Store

	mu     sync.Mutex
	notify glsp.NotifyFunc
	call   glsp.CallFunc
	active string
}

// New builds a server with the default configuration. The configuration
// sent with initialize replaces it.
func New() *Server {
	s := &Server{
		manager:   manager.NewDocumentManager(),
		renderers: render.NewRegistry(render.DefaultBackend),
		sched:     scheduler.NewScheduler(queueSize),
	}
	s.classifier = scope.NewClassifier(scope.NewGrammar(s.manager.Blocks))
	s.session = preview.NewSession(s.manager, s, s.classifier, s.renderers, s.sched, config.Default())
	s.handler = &protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.textDocumentDidOpen,
		TextDocumentDidChange:           s.textDocumentDidChange,
		TextDocumentDidClose:            s.textDocumentDidClose,
		TextDocumentHover:               s.textDocumentHover,
		WorkspaceExecuteCommand:         s.workspaceExecuteCommand,
		WorkspaceDidChangeConfiguration: s.workspaceDidChangeConfiguration,
	}
	return s
}

// NewServer creates the stdio language server.
func NewServer() (*server.Server, error) {
	return server.NewServer(New(), "umath", false), nil
}

// Handle dispatches the umath/* notifications and hands everything else to
// the LSP handler.
func (s *Server) Handle(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	switch context.Method {
	case MethodCursorChanged, MethodVisibleRangeChanged, MethodActiveEditorChanged:
		if !s.handler.IsInitialized() {
			return s.handler.Handle(context)
		}
		return s.handleCustom(context)
	}
	return s.handler.Handle(context)
}

func (s *Server) notifyClient(method string, params any) {
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()
	if notify != nil {
		notify(method, params)
	}
}

func (s *Server) bindClient(context *glsp.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = context.Notify
	s.call = context.Call
}
