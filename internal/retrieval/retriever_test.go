package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorycore/internal/domain"
	"memorycore/internal/lifecycle"
	"memorycore/internal/store/storetest"
)

func unitVec(i, dim int) []float32 {
	v := make([]float32, dim)
	v[i%dim] = 1
	return v
}

func TestRetrieveRanksByWeightedScore(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	obj, err := domain.NewObjectValue(domain.ValueTypeString, "NET30", "")
	require.NoError(t, err)
	m, err := domain.NewSemanticMemory("u1", nil, "payment_terms", domain.PredicateTypePolicy, obj, 0.9, domain.SemanticSourceEpisodic, nil, nil)
	require.NoError(t, err)
	m.Vector = unitVec(0, 8)
	_, err = fake.CreateSemantic(ctx, m)
	require.NoError(t, err)

	ep, err := domain.NewEpisodicMemory("u1", "s1", "the user mentioned billing", domain.EventTypeStatement, []int64{1}, 0.5)
	require.NoError(t, err)
	ep.Vector = unitVec(5, 8)
	_, err = fake.CreateEpisodic(ctx, ep)
	require.NoError(t, err)

	r := New(fake, lifecycle.New(lifecycle.DefaultConfig()), DefaultConfig())
	res, err := r.Retrieve(ctx, Query{Text: "payment terms", Embedding: unitVec(0, 8), UserID: "u1"}, StrategyExploratory)
	require.NoError(t, err)
	require.NotEmpty(t, res.Selected)
	assert.Equal(t, domain.MemoryKindSemantic, res.Selected[0].Kind)
}

func TestRetrieveDropsBelowThreshold(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	obj, _ := domain.NewObjectValue(domain.ValueTypeString, "NET30", "")
	m, err := domain.NewSemanticMemory("u1", nil, "payment_terms", domain.PredicateTypePolicy, obj, 0.4, domain.SemanticSourceEpisodic, nil, nil)
	require.NoError(t, err)
	m.Vector = unitVec(0, 8)
	_, err = fake.CreateSemantic(ctx, m)
	require.NoError(t, err)

	r := New(fake, lifecycle.New(lifecycle.DefaultConfig()), DefaultConfig())
	res, err := r.Retrieve(ctx, Query{Text: "unrelated", Embedding: unitVec(4, 8), UserID: "u1"}, StrategyExploratory)
	require.NoError(t, err)
	assert.Empty(t, res.Selected)
}

func TestPackToBudgetStopsAtLimit(t *testing.T) {
	cands := []Candidate{
		{Text: stringOfLen(400)},
		{Text: stringOfLen(400)},
		{Text: stringOfLen(400)},
	}
	packed, used := packToBudget(cands, 150)
	assert.Len(t, packed, 1)
	assert.LessOrEqual(t, used, 150)
}

func TestSelectDiverseSkipsMMRWhenDecisive(t *testing.T) {
	cands := []Candidate{
		{Score: 0.95, Vector: unitVec(0, 4)},
		{Score: 0.5, Vector: unitVec(0, 4)},
		{Score: 0.4, Vector: unitVec(1, 4)},
	}
	out := selectDiverse(cands, 2)
	assert.Len(t, out, 2)
	assert.Equal(t, 0.95, out[0].Score)
}

func stringOfLen(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
