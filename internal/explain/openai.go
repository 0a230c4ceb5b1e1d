package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

const openAISystemPrompt = "You are a patient mathematics tutor. Return ONLY valid JSON with keys: explanation (string), steps (array of strings), context (string)."

// OpenAIProvider uses the chat completions API and asks for a JSON-only reply.
type OpenAIProvider struct {
	apiKey string
	model  string
	client *openai.Client
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	model = strings.TrimSpace(model)
	if model == "" || strings.HasPrefix(model, "gemini") {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{apiKey: strings.TrimSpace(apiKey), model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) ensureClient() error {
	if p.apiKey == "" {
		return ErrNoAPIKey
	}
	if p.client == nil {
		client := openai.NewClient(option.WithAPIKey(p.apiKey))
		p.client = &client
	}
	return nil
}

func (p *OpenAIProvider) Explain(ctx context.Context, expression, result string) (Result, error) {
	if err := p.ensureClient(); err != nil {
		return Result{}, err
	}

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISystemPrompt),
			openai.UserMessage(prompt(expression, result)),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Result{}, fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	out, err := decodeResult(completion.Choices[0].Message.Content)
	if err != nil {
		return Result{}, fmt.Errorf("openai: %w", err)
	}
	return out, nil
}
