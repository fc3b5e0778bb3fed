package ai

import (
	"context"
	"errors"
	"strings"

	"diary-backend/application/ports"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/revrost/go-openrouter"
	"go.uber.org/zap"
)

const DefaultModel = "google/gemini-2.5-flash"

// OpenRouterGenerator is a TextGenerator backed by the OpenRouter chat API.
type OpenRouterGenerator struct {
	client *openrouter.Client
	model  string
	logger *zap.Logger
}

// NewOpenRouterGenerator creates a generator for model; an empty model uses DefaultModel.
func NewOpenRouterGenerator(apiKey, model string, logger *zap.Logger) *OpenRouterGenerator {
	if model == "" {
		model = DefaultModel
	}
	return &OpenRouterGenerator{
		client: openrouter.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Generate sends prompt as a single user message. Quota and rate-limit
// failures come back as rate-limit errors so the gateway can retry them.
func (g *OpenRouterGenerator) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, error) {
	request := openrouter.ChatCompletionRequest{
		Model: g.model,
		Messages: []openrouter.ChatCompletionMessage{
			{
				Role:    openrouter.ChatMessageRoleUser,
				Content: openrouter.Content{Text: prompt},
			},
		},
	}
	if opts.JSON {
		request.ResponseFormat = &openrouter.ChatCompletionResponseFormat{
			Type: openrouter.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	response, err := g.client.CreateChatCompletion(ctx, request)
	if err != nil {
		if isRateLimitError(err) {
			return "", pkgerrors.NewRateLimitError("openrouter", err)
		}
		g.logger.Warn("OpenRouter completion failed", zap.String("model", g.model), zap.Error(err))
		return "", pkgerrors.NewExternalError("openrouter", err)
	}
	if len(response.Choices) == 0 {
		return "", pkgerrors.NewExternalError("openrouter", errors.New("no completion choices returned"))
	}
	return response.Choices[0].Message.Content.Text, nil
}

func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "quota", "resource_exhausted"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
