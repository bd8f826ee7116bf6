package conflict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorycore/internal/domain"
	"memorycore/internal/lifecycle"
	"memorycore/internal/store/storetest"
)

func eventIDPtr(id int64) *int64 { return &id }

func TestEvaluateReinforcesEqualValue(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	obj, err := domain.NewObjectValue(domain.ValueTypeString, "NET30", "")
	require.NoError(t, err)
	existing, err := domain.NewSemanticMemory("u1", nil, "payment_terms", domain.PredicateTypePolicy, obj, 0.6, domain.SemanticSourceEpisodic, nil, nil)
	require.NoError(t, err)
	existing, err = fake.CreateSemantic(ctx, existing)
	require.NoError(t, err)

	candidate, err := domain.NewSemanticMemory("u1", nil, "payment_terms", domain.PredicateTypePolicy, obj, 0.8, domain.SemanticSourceEpisodic, nil, eventIDPtr(1))
	require.NoError(t, err)

	d := New(lifecycle.New(lifecycle.DefaultConfig()), DefaultConfig())
	outcome, err := d.Evaluate(ctx, fake, candidate)
	require.NoError(t, err)
	assert.False(t, outcome.Accept)
	assert.Contains(t, outcome.Reason, "reinforced")

	reinforced, found, err := fake.GetSemanticByID(ctx, existing.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, reinforced.ReinforcementCount)
	assert.Greater(t, reinforced.Confidence, 0.6)
}

func TestEvaluateTrustRecentOnConfidenceGap(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	oldObj, _ := domain.NewObjectValue(domain.ValueTypeString, "NET30", "")
	newObj, _ := domain.NewObjectValue(domain.ValueTypeString, "NET45", "")

	existing, err := domain.NewSemanticMemory("u1", nil, "payment_terms", domain.PredicateTypePolicy, oldObj, 0.5, domain.SemanticSourceEpisodic, nil, nil)
	require.NoError(t, err)
	existing, err = fake.CreateSemantic(ctx, existing)
	require.NoError(t, err)

	candidate, err := domain.NewSemanticMemory("u1", nil, "payment_terms", domain.PredicateTypePolicy, newObj, 0.9, domain.SemanticSourceEpisodic, nil, eventIDPtr(1))
	require.NoError(t, err)

	d := New(lifecycle.New(lifecycle.DefaultConfig()), DefaultConfig())
	outcome, err := d.Evaluate(ctx, fake, candidate)
	require.NoError(t, err)
	assert.True(t, outcome.Accept)
	require.NotNil(t, outcome.SupersedesID)
	assert.Equal(t, existing.ID, *outcome.SupersedesID)
}

func TestEvaluateAskUserWhenConfidencesClose(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	oldObj, _ := domain.NewObjectValue(domain.ValueTypeString, "NET30", "")
	newObj, _ := domain.NewObjectValue(domain.ValueTypeString, "NET45", "")

	_, err := fake.CreateSemantic(ctx, mustSemantic(t, "u1", "payment_terms", oldObj, 0.6))
	require.NoError(t, err)

	candidate := mustSemantic(t, "u1", "payment_terms", newObj, 0.63)
	candidate.ExtractedFromEventID = eventIDPtr(1)

	d := New(lifecycle.New(lifecycle.DefaultConfig()), DefaultConfig())
	outcome, err := d.Evaluate(ctx, fake, candidate)
	require.NoError(t, err)
	assert.True(t, outcome.Accept)
	assert.Nil(t, outcome.SupersedesID)
}

func mustSemantic(t *testing.T, userID, predicate string, obj domain.ObjectValue, confidence float64) domain.SemanticMemory {
	t.Helper()
	m, err := domain.NewSemanticMemory(userID, nil, predicate, domain.PredicateTypePolicy, obj, confidence, domain.SemanticSourceEpisodic, nil, nil)
	require.NoError(t, err)
	return m
}
