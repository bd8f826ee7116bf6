package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "memorycore/pkg/errors"
)

// batchRequest/batchResponse follow the OpenAI-compatible embeddings API
// shape, matching the request/response envelope the rest of the pack's
// resty-based LLM providers use.
type batchRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type batchResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// RestyProvider calls a remote embeddings endpoint over HTTP via resty,
// grounded on the pack's resty-based LLM provider client pattern
// (kart-io/goagent's provider Complete/callAPI shape).
type RestyProvider struct {
	client    *resty.Client
	baseURL   string
	model     string
	dimension int
	batchSize int
}

// NewRestyProvider builds a provider against baseURL (an OpenAI-compatible
// /embeddings endpoint).
func NewRestyProvider(baseURL, apiKey, model string, dimension, batchSize int) *RestyProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(3 * time.Second).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")
	return &RestyProvider{client: client, baseURL: baseURL, model: model, dimension: dimension, batchSize: batchSize}
}

func (p *RestyProvider) Dimension() int { return p.dimension }

func (p *RestyProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (p *RestyProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := p.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (p *RestyProvider) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var parsed batchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(batchRequest{Model: p.model, Input: texts}).
		SetResult(&parsed).
		Post("/embeddings")
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	if !resp.IsSuccess() {
		return nil, classifyStatusErr(resp.StatusCode(), resp.String())
	}
	if len(parsed.Data) != len(texts) {
		return nil, apperrors.NewTransientBackend("embedding: response item count mismatch", nil)
	}
	vecs := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(vecs) {
			return nil, apperrors.NewPermanentBackend("embedding: response index out of range", nil)
		}
		if err := ValidateDimension(item.Embedding, p.dimension); err != nil {
			return nil, err
		}
		vecs[item.Index] = item.Embedding
	}
	return vecs, nil
}

func classifyTransportErr(err error) error {
	return apperrors.NewTransientBackend("embedding request failed", err)
}

func classifyStatusErr(status int, body string) error {
	if status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return apperrors.NewTransientBackend(fmt.Sprintf("embedding request failed with status %d", status), nil)
	}
	return apperrors.NewPermanentBackend(fmt.Sprintf("embedding request failed with status %d: %s", status, body), nil)
}
