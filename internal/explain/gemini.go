package explain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-3-flash-preview"

// responseSchema forces the model to answer with a Result-shaped object.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"explanation": {
			Type:        genai.TypeString,
			Description: "General summary of the calculation.",
		},
		"steps": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Numerical steps taken to reach the result.",
		},
		"context": {
			Type:        genai.TypeString,
			Description: "Real-world context or mathematical principle involved.",
		},
	},
	Required: []string{"explanation", "steps", "context"},
}

// GeminiProvider uses the Gemini API with a JSON response schema.
type GeminiProvider struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{apiKey: strings.TrimSpace(apiKey), model: model}
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) ensureClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if g.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: create client: %w", err)
		}
		g.client = client
	}
	return g.client, nil
}

func (g *GeminiProvider) Explain(ctx context.Context, expression, result string) (Result, error) {
	client, err := g.ensureClient(ctx)
	if err != nil {
		return Result{}, err
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt(expression, result)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return Result{}, fmt.Errorf("gemini: generate: %w", err)
	}

	out, err := decodeResult(resp.Text())
	if err != nil {
		return Result{}, fmt.Errorf("gemini: %w", err)
	}
	return out, nil
}
