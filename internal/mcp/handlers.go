package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"scicalc/internal/expression"
	"scicalc/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := expression.Compute(expr)
	if err != nil {
		kind, _ := expression.KindOf(err)
		s.logger.Info("mcp evaluation failed",
			zap.String("expression", expr),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return jsonResult(map[string]interface{}{
			"expression": expr,
			"result":     expression.DisplayError,
			"error":      true,
		})
	}

	return jsonResult(map[string]interface{}{
		"expression": expr,
		"normalized": res.Expanded,
		"result":     res.Formatted,
		"error":      false,
	})
}

func (s *Server) handlePress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys, err := request.RequireString("keys")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields := strings.Fields(keys)
	if len(fields) == 0 {
		return mcp.NewToolResultError("keys must contain at least one key"), nil
	}

	var sess *session.Session
	if id := request.GetString("sessionId", ""); id != "" {
		sess, err = s.sessions.Open(ctx, id)
	} else {
		sess, err = s.sessions.Create(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sess.PressAll(ctx, fields); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sess.Snapshot())
}

// session returns the live session, or reopens it with its persisted history.
func (s *Server) session(ctx context.Context, request mcp.CallToolRequest) (*session.Session, error) {
	id, err := request.RequireString("sessionId")
	if err != nil {
		return nil, err
	}
	return s.sessions.Open(ctx, id)
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]interface{}{
		"sessionId": sess.ID(),
		"items":     sess.History(),
	})
}

func (s *Server) handleSelectHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemID, err := request.RequireString("itemId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sess.SelectHistory(itemID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sess.Snapshot())
}

func (s *Server) handleClearHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sess.ClearHistory(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]interface{}{
		"sessionId": sess.ID(),
		"cleared":   true,
	})
}

func (s *Server) handleExplain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	item, res, err := sess.Explain(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]interface{}{
		"expression":  item.Expression,
		"result":      item.Result,
		"explanation": res.Explanation,
		"steps":       res.Steps,
		"context":     res.Context,
	})
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
