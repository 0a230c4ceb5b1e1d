// Package explain produces step-by-step explanations of a finished
// calculation. Providers talk to a language model (or work offline); the
// Explainer wraps them so callers always receive a usable Result.
package explain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Result is the structured explanation shown next to the calculator.
type Result struct {
	Explanation string   `json:"explanation"`
	Steps       []string `json:"steps"`
	Context     string   `json:"context"`
}

// Fallback is returned whenever a provider fails.
func Fallback() Result {
	return Result{
		Explanation: "Could not fetch AI explanation at this time.",
		Steps:       []string{"Internal error occurred while processing."},
		Context:     "Try again later.",
	}
}

// Provider explains one calculation.
type Provider interface {
	Name() string
	Explain(ctx context.Context, expression, result string) (Result, error)
}

var (
	ErrNoAPIKey      = errors.New("explain: api key not configured")
	ErrEmptyResponse = errors.New("explain: empty response")
)

// Config selects and configures a provider.
type Config struct {
	Provider  string // gemini, openai or offline
	APIKeyEnv string
	APIKey    string
	Model     string
	Timeout   time.Duration
}

// NewProvider builds the configured provider. Without an API key the offline
// provider is used so the feature keeps working.
func NewProvider(cfg Config) Provider {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "offline" {
		return NewOfflineProvider()
	}

	key := ResolveAPIKey(cfg)
	if key == "" {
		return NewOfflineProvider()
	}

	switch name {
	case "openai":
		return NewOpenAIProvider(key, cfg.Model)
	default:
		return NewGeminiProvider(key, cfg.Model)
	}
}

// ResolveAPIKey prefers the configured environment variable and falls back
// to the key stored in configuration.
func ResolveAPIKey(cfg Config) string {
	env := strings.TrimSpace(cfg.APIKeyEnv)
	if env == "" {
		if strings.EqualFold(strings.TrimSpace(cfg.Provider), "openai") {
			env = "OPENAI_API_KEY"
		} else {
			env = "GEMINI_API_KEY"
		}
	}
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	return strings.TrimSpace(cfg.APIKey)
}

func prompt(expression, result string) string {
	return fmt.Sprintf(`Explain this mathematical calculation step-by-step for a student.
Expression: %s
Result: %s

Provide a clear explanation of what the expression means, the individual steps to solve it, and some context or application of this calculation.`, expression, result)
}

// decodeResult parses a model reply, tolerating a fenced code block around
// the JSON object.
func decodeResult(text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyResponse
	}
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	var out Result
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Result{}, fmt.Errorf("decode explanation: %w", err)
	}
	if out.Explanation == "" {
		return Result{}, fmt.Errorf("decode explanation: missing explanation")
	}
	if out.Steps == nil {
		out.Steps = []string{}
	}
	return out, nil
}
