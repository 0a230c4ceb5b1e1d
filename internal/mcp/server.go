// Package mcp exposes the calculator as Model Context Protocol tools:
//
//   - calc_evaluate: evaluate one expression statelessly
//   - calc_press: apply keypad keys to a session (creating it when needed)
//   - calc_history: list a session's history
//   - calc_select_history: restore a history item onto the display
//   - calc_clear_history: clear a session's history
//   - calc_explain: explain the session's most recent calculation
package mcp

import (
	"scicalc/internal/session"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server wraps the MCP server with calculator sessions.
type Server struct {
	mcpServer *server.MCPServer
	sessions  *session.Manager
	logger    *zap.Logger
}

func NewServer(sessions *session.Manager, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		"scicalc",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcpServer: mcpServer,
		sessions:  sessions,
		logger:    logger,
	}
	s.registerTools()

	return s
}

// ServeStdio starts the server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPServer returns the underlying server, for alternative transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}
