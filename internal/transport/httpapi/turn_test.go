package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorycore/internal/completion"
	"memorycore/internal/conflict"
	"memorycore/internal/domainaugment"
	"memorycore/internal/embedding"
	"memorycore/internal/lifecycle"
	"memorycore/internal/orchestrator"
	"memorycore/internal/resolver"
	"memorycore/internal/retrieval"
	"memorycore/internal/store/storetest"
)

func newTestHandler(t *testing.T) *TurnHandler {
	t.Helper()
	fake := storetest.New()
	svc := completion.NewService(completion.NewMockProvider())
	embedder := embedding.NewMockProvider("test-model", 8)
	lc := lifecycle.New(lifecycle.DefaultConfig())
	detector := conflict.New(lc, conflict.DefaultConfig())
	retriever := retrieval.New(fake, lc, retrieval.DefaultConfig())
	augmenter := domainaugment.New(fake, domainaugment.DefaultConfig())

	orch := orchestrator.New(fake, embedder, svc, resolver.DefaultConfig(), detector, retriever, augmenter,
		orchestrator.DefaultConfig(), nil, nil)
	return NewTurnHandler(orch)
}

func TestTurnHandlerHappyPath(t *testing.T) {
	h := newTestHandler(t)

	body, err := json.Marshal(turnRequest{UserID: "u1", SessionID: "s1", Message: "hello there"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/turns", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp turnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.NotEmpty(t, resp.Reply)
}

func TestTurnHandlerRejectsMissingFields(t *testing.T) {
	h := newTestHandler(t)

	body, err := json.Marshal(turnRequest{SessionID: "s1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/turns", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTurnHandlerRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/turns", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
