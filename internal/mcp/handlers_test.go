package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"scicalc/internal/explain"
	"scicalc/internal/history"
	"scicalc/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
)

type echoExplainer struct{}

func (echoExplainer) Explain(_ context.Context, expr, result string) explain.Result {
	return explain.Result{Explanation: expr + " gives " + result, Steps: []string{}, Context: "test"}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := session.NewManager(session.ManagerConfig{Explainer: echoExplainer{}})
	t.Cleanup(m.Close)
	return NewServer(m, "test", nil)
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func decode(t *testing.T, res *mcp.CallToolResult, dst any) {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	if err := json.Unmarshal([]byte(text.Text), dst); err != nil {
		t.Fatalf("decoding tool result: %v", err)
	}
}

func TestEvaluateTool(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		expr    string
		want    string
		wantErr bool
	}{
		{"2+3*4", "14", false},
		{"5!", "120", false},
		{"sqrt(-1)", "Error", true},
		{"alert(1)", "Error", true},
	}

	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			res, err := s.handleEvaluate(context.Background(), call(map[string]any{"expression": tc.expr}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var body struct {
				Result string `json:"result"`
				Error  bool   `json:"error"`
			}
			decode(t, res, &body)
			if body.Result != tc.want || body.Error != tc.wantErr {
				t.Fatalf("expected %q (error=%t), got %q (error=%t)", tc.want, tc.wantErr, body.Result, body.Error)
			}
		})
	}
}

func TestEvaluateToolRequiresExpression(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleEvaluate(context.Background(), call(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for missing expression")
	}
}

func TestSessionTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, _ := s.handlePress(ctx, call(map[string]any{"keys": "7 * 8 ="}))
	var snap session.Snapshot
	decode(t, res, &snap)
	if snap.Display != "56" || snap.SubDisplay != "7*8 =" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	id := snap.ID

	res, _ = s.handlePress(ctx, call(map[string]any{"keys": "AC 1 + 1 =", "sessionId": id}))
	decode(t, res, &snap)
	if snap.Display != "2" || len(snap.History) != 2 {
		t.Fatalf("expected second calculation in same session, got %+v", snap)
	}

	res, _ = s.handleHistory(ctx, call(map[string]any{"sessionId": id}))
	var hist struct {
		Items []struct {
			ID         string `json:"id"`
			Expression string `json:"expression"`
		} `json:"items"`
	}
	decode(t, res, &hist)
	if len(hist.Items) != 2 || hist.Items[0].Expression != "1+1" {
		t.Fatalf("unexpected history %+v", hist.Items)
	}

	res, _ = s.handleSelectHistory(ctx, call(map[string]any{"sessionId": id, "itemId": hist.Items[1].ID}))
	decode(t, res, &snap)
	if snap.Display != "7*8" || snap.SubDisplay != "7*8 = 56" {
		t.Fatalf("unexpected snapshot after select %+v", snap)
	}

	res, _ = s.handleExplain(ctx, call(map[string]any{"sessionId": id}))
	var ex struct {
		Expression  string `json:"expression"`
		Explanation string `json:"explanation"`
	}
	decode(t, res, &ex)
	if ex.Expression != "1+1" || ex.Explanation != "1+1 gives 2" {
		t.Fatalf("unexpected explanation %+v", ex)
	}

	res, _ = s.handleClearHistory(ctx, call(map[string]any{"sessionId": id}))
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}

	res, _ = s.handleExplain(ctx, call(map[string]any{"sessionId": id}))
	if !res.IsError {
		t.Fatal("expected tool error when explaining empty history")
	}
}

func TestPressToolRejectsUnknownKeys(t *testing.T) {
	s := newTestServer(t)

	res, _ := s.handlePress(context.Background(), call(map[string]any{"keys": "1 + import"}))
	if !res.IsError {
		t.Fatal("expected tool error for unknown key")
	}

	res, _ = s.handlePress(context.Background(), call(map[string]any{"keys": "   "}))
	if !res.IsError {
		t.Fatal("expected tool error for empty keys")
	}
}

func TestHistoryToolRejectsInvalidSessionID(t *testing.T) {
	s := newTestServer(t)

	res, _ := s.handleHistory(context.Background(), call(map[string]any{"sessionId": "../etc"}))
	if !res.IsError {
		t.Fatal("expected tool error for invalid session id")
	}
}

func TestSessionToolsReopenPersistedSession(t *testing.T) {
	ctx := context.Background()
	backend := history.NewMemoryBackend()

	first := session.NewManager(session.ManagerConfig{Storage: backend, Explainer: echoExplainer{}})
	res, _ := NewServer(first, "test", nil).handlePress(ctx, call(map[string]any{"keys": "6 * 7 ="}))
	var snap session.Snapshot
	decode(t, res, &snap)
	first.Close()

	// A fresh manager over the same storage stands in for a restarted server.
	restarted := session.NewManager(session.ManagerConfig{Storage: backend, Explainer: echoExplainer{}})
	t.Cleanup(restarted.Close)
	s := NewServer(restarted, "test", nil)

	res, _ = s.handleHistory(ctx, call(map[string]any{"sessionId": snap.ID}))
	var hist struct {
		Items []struct {
			Expression string `json:"expression"`
		} `json:"items"`
	}
	decode(t, res, &hist)
	if len(hist.Items) != 1 || hist.Items[0].Expression != "6*7" {
		t.Fatalf("expected persisted history, got %+v", hist.Items)
	}

	res, _ = s.handleExplain(ctx, call(map[string]any{"sessionId": snap.ID}))
	var ex struct {
		Explanation string `json:"explanation"`
	}
	decode(t, res, &ex)
	if ex.Explanation != "6*7 gives 42" {
		t.Fatalf("unexpected explanation %+v", ex)
	}
}
