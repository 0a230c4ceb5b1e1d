package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("calc_evaluate",
		mcp.WithDescription("Evaluate a calculator expression. Supports + - * / ^ !, parentheses, sin cos tan (radians), ln, log10, sqrt, and the constants PI and E. Returns the formatted result, or \"Error\" when the expression cannot be evaluated."),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description("Expression to evaluate, e.g. '2+3*4' or 'sqrt(16)*5!'"),
		),
	), s.handleEvaluate)

	s.mcpServer.AddTool(mcp.NewTool("calc_press",
		mcp.WithDescription("Press keypad keys on a calculator session and return its display. Omit sessionId to start a new session; reuse the returned id afterwards."),
		mcp.WithString("keys",
			mcp.Required(),
			mcp.Description("Space-separated keys in order, e.g. '7 * 8 ='. Keys: digits . + - * / ^ ( ) ! sin( cos( tan( log( log10( sqrt( PI E AC DEL ='"),
		),
		mcp.WithString("sessionId",
			mcp.Description("Session id returned by an earlier call"),
		),
	), s.handlePress)

	s.mcpServer.AddTool(mcp.NewTool("calc_history",
		mcp.WithDescription("List a session's calculation history, newest first."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session id"),
		),
	), s.handleHistory)

	s.mcpServer.AddTool(mcp.NewTool("calc_select_history",
		mcp.WithDescription("Put a past calculation back on the session display."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session id"),
		),
		mcp.WithString("itemId",
			mcp.Required(),
			mcp.Description("History item id from calc_history"),
		),
	), s.handleSelectHistory)

	s.mcpServer.AddTool(mcp.NewTool("calc_clear_history",
		mcp.WithDescription("Delete a session's calculation history."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session id"),
		),
	), s.handleClearHistory)

	s.mcpServer.AddTool(mcp.NewTool("calc_explain",
		mcp.WithDescription("Explain the session's most recent calculation step by step."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("Session id"),
		),
	), s.handleExplain)
}
