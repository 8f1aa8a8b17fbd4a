// Package backend adapts text-generation providers to the core.TextBackend
// port and layers retry and rate-limit policies over them.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/longform-ai/longform/internal/core"
	"github.com/longform-ai/longform/internal/logging"
)

// OpenAIConfig configures the OpenAI-compatible chat backend. BaseURL makes
// it usable against any server speaking the same API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "gpt-4o-mini"

// OpenAIBackend implements core.TextBackend over the OpenAI chat API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	logger *logging.Logger
}

// NewOpenAI creates the backend.
func NewOpenAI(cfg OpenAIConfig, logger *logging.Logger) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, core.ErrState("BACKEND_CONFIG", "backend API key is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}, nil
}

// Generate implements core.TextBackend.
func (b *OpenAIBackend) Generate(ctx context.Context, history []core.Message, temperature float64, maxTokens int) (*core.GenerateResult, error) {
	start := time.Now()

	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: float32(temperature),
	}
	if maxTokens > 0 {
		req.MaxCompletionTokens = maxTokens
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.ErrBackend("backend returned no choices")
	}

	choice := resp.Choices[0]
	b.logger.Debug("backend call completed",
		"model", resp.Model,
		"tokens_used", resp.Usage.TotalTokens,
		"finish_reason", choice.FinishReason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &core.GenerateResult{
		Text:         choice.Message.Content,
		TokensUsed:   resp.Usage.TotalTokens,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Duration:     time.Since(start),
	}, nil
}

func openAIRole(role string) string {
	switch role {
	case "system":
		return openai.ChatMessageRoleSystem
	case "assistant":
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// classifyError maps provider errors onto the domain taxonomy. Rate limits
// and server errors are retryable; auth and malformed-request errors are
// not, because retrying them can only fail the same way.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrTimeout("backend call timed out").WithCause(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		domErr := core.ErrBackend(fmt.Sprintf("backend API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)).WithCause(err)
		if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != 429 {
			domErr.Retryable = false
		}
		return domErr
	}
	return core.ErrBackend(err.Error()).WithCause(err)
}
