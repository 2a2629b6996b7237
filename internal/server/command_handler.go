package server

import (
	"encoding/json"
	"fmt"
	"log"

	"umath/internal/sitteradapter"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const (
	CommandCloseAllPreview   = "umath.preview.closeAllPreview"
	CommandReloadMacros      = "umath.preview.reloadMacros"
	CommandToggleMathPreview = "umath.preview.toggleMathPreview"
	CommandReloadPreview     = "umath.preview.reloadPreview"
	CommandJumpOutOfMath     = "umath.jumpOutOfMath"
)

// Commands are advertised in the executeCommand capability.
var Commands = []string{
	CommandCloseAllPreview,
	CommandReloadMacros,
	CommandToggleMathPreview,
	CommandReloadPreview,
	CommandJumpOutOfMath,
}

// JumpResult answers umath.jumpOutOfMath.
type JumpResult struct {
	Position protocol.Position `json:"position"`
	Insert   string            `json:"insert"`
}

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	log.Printf("called %q", params.Command)
	switch params.Command {
	case CommandCloseAllPreview:
		s.session.CloseAll()
	case CommandReloadMacros:
		s.session.ReloadMacros()
	case CommandToggleMathPreview:
		s.session.Toggle(func(enabled bool) {
			log.Printf("Math preview enabled: %t", enabled)
		})
	case CommandReloadPreview:
		s.session.Reload()
	case CommandJumpOutOfMath:
		return s.jumpOutOfMath(params.Arguments)
	default:
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
	return nil, nil
}

// jumpOutOfMath takes one TextDocumentPositionParams argument and returns a
// JumpResult, or nil outside math.
func (s *Server) jumpOutOfMath(arguments []any) (any, error) {
	if len(arguments) != 1 {
		return nil, fmt.Errorf("%s takes one argument, got %d", CommandJumpOutOfMath, len(arguments))
	}
	data, err := json.Marshal(arguments[0])
	if err != nil {
		return nil, err
	}
	var params protocol.TextDocumentPositionParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("invalid %s argument: %w", CommandJumpOutOfMath, err)
	}

	uri := params.TextDocument.URI
	doc, ok := s.manager.Document(uri)
	if !ok {
		return nil, nil
	}
	jump, ok := s.session.JumpOut(uri, sitteradapter.ToPosition(doc, params.Position))
	if !ok {
		return nil, nil
	}
	return JumpResult{
		Position: sitteradapter.FromPosition(doc, jump.Position),
		Insert:   jump.Insert,
	}, nil
}
