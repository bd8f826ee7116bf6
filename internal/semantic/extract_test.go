package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorycore/internal/completion"
	"memorycore/internal/domain"
	"memorycore/internal/embedding"
	"memorycore/internal/store"
	"memorycore/internal/store/storetest"
)

type fixedTripleProvider struct{}

func (fixedTripleProvider) IsAvailable() bool { return true }

func (fixedTripleProvider) Complete(ctx context.Context, prompt string, opts completion.Options) (completion.Result, error) {
	return completion.Result{Text: `[{"subject_entity_id": null, "predicate": "payment terms", "predicate_type": "policy", "object_value": {"type": "string", "value": "NET30"}, "confidence": 0.9, "confidence_factors": {}}]`}, nil
}

type acceptAllDetector struct{}

func (acceptAllDetector) Evaluate(ctx context.Context, uow store.UnitOfWork, candidate domain.SemanticMemory) (ConflictOutcome, error) {
	return ConflictOutcome{Accept: true}, nil
}

func TestExtractPersistsAcceptedTriple(t *testing.T) {
	fake := storetest.New()
	svc := completion.NewService(fixedTripleProvider{})
	embedder := embedding.NewMockProvider("test-model", 8)
	extractor := New(fake, svc, embedder, acceptAllDetector{})

	event, err := domain.NewChatEvent("sess1", "user1", domain.RoleUser, "Remember that our payment terms are NET30.", nil)
	require.NoError(t, err)

	result, err := extractor.Extract(context.Background(), event, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Stored, 1)
	assert.Equal(t, "payment_terms", result.Stored[0].Predicate)
	assert.Equal(t, domain.PredicateTypePolicy, result.Stored[0].PredicateType)
	assert.Len(t, result.Stored[0].Vector, 8)
}

func TestExtractSkipsIneligibleEventType(t *testing.T) {
	fake := storetest.New()
	svc := completion.NewService(completion.NewMockProvider())
	embedder := embedding.NewMockProvider("test-model", 8)
	extractor := New(fake, svc, embedder, acceptAllDetector{})

	event, err := domain.NewChatEvent("sess1", "user1", domain.RoleUser, "What is our payment term?", nil)
	require.NoError(t, err)

	result, err := extractor.Extract(context.Background(), event, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.EventTypeQuestion, result.EventType)
	assert.Empty(t, result.Stored)
}

func TestClassifyEventType(t *testing.T) {
	assert.Equal(t, domain.EventTypeQuestion, ClassifyEventType("What time does the store close?"))
	assert.Equal(t, domain.EventTypeCorrection, ClassifyEventType("Actually, the invoice was paid last week."))
	assert.Equal(t, domain.EventTypeCommand, ClassifyEventType("Schedule a follow up for Friday"))
	assert.Equal(t, domain.EventTypeStatement, ClassifyEventType("Remember that the customer always pays late."))
}
