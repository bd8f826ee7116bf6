package completion

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	apperrors "memorycore/pkg/errors"
)

// OpenAIProvider is the concrete Provider backed by an OpenAI-compatible
// chat completion API, grounded on the shape teacher's llm.Provider
// interface expects (single Complete call, options in, text out).
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider builds a provider against the given API key and model.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *OpenAIProvider) IsAvailable() bool { return p.client != nil }

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, opts Options) (Result, error) {
	start := time.Now()
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{}, classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, apperrors.NewTransientBackend("completion: empty choices", nil)
	}

	return Result{
		Text:          resp.Choices[0].Message.Content,
		InputTokens:   resp.Usage.PromptTokens,
		OutputTokens:  resp.Usage.CompletionTokens,
		LatencyMillis: elapsedMillis(start),
	}, nil
}

func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return apperrors.NewTransientBackend("completion request failed", err)
		}
		return apperrors.NewPermanentBackend("completion request failed", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTransientBackend("completion request timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTransientBackend("completion request timed out", err)
	}
	return apperrors.NewPermanentBackend("completion request failed", err)
}
