package calculator

import (
	"scicalc/internal/history"
)

// EvaluateRequest is the JSON body for POST /calculator/evaluate.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is the JSON response for a successful evaluation.
type EvaluateResponse struct {
	Expression string `json:"expression"`
	Normalized string `json:"normalized"`
	Result     string `json:"result"`
}

// KeysRequest is the JSON body for POST /calculator/sessions/{id}/keys.
type KeysRequest struct {
	Keys []string `json:"keys"` // button values or labels, applied in order
}

// HistoryResponse is the JSON response for GET /calculator/sessions/{id}/history.
type HistoryResponse struct {
	Items []history.Item `json:"items"`
}

// ExplainResponse is the JSON response for POST /calculator/sessions/{id}/explain.
type ExplainResponse struct {
	Expression  string   `json:"expression"`
	Result      string   `json:"result"`
	Explanation string   `json:"explanation"`
	Steps       []string `json:"steps"`
	Context     string   `json:"context"`
}
