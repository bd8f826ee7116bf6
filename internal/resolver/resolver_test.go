package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorycore/internal/completion"
	"memorycore/internal/domain"
	"memorycore/internal/mention"
	"memorycore/internal/store/storetest"
)

func TestResolveExactMatch(t *testing.T) {
	fake := storetest.New()
	entity, err := domain.NewCanonicalEntity("customer:kai_123", domain.EntityTypeCustomer, "Kai Chen", domain.ExternalRef{}, nil)
	require.NoError(t, err)
	_, err = fake.CreateEntity(context.Background(), entity)
	require.NoError(t, err)

	r := New(fake, completion.NewService(completion.NewMockProvider()), DefaultConfig())
	result, disambig, err := r.Resolve(context.Background(), mention.Mention{Text: "Kai Chen"}, ConversationContext{UserID: "u1"})
	require.NoError(t, err)
	require.Nil(t, disambig)
	assert.Equal(t, MethodExact, result.Method)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "customer:kai_123", result.EntityID)
}

func TestResolveNoMatchReturnsMethodNone(t *testing.T) {
	fake := storetest.New()
	r := New(fake, completion.NewService(completion.NewMockProvider()), DefaultConfig())
	result, disambig, err := r.Resolve(context.Background(), mention.Mention{Text: "Unknown Corp"}, ConversationContext{UserID: "u1"})
	require.NoError(t, err)
	require.Nil(t, disambig)
	assert.Equal(t, MethodNone, result.Method)
	assert.False(t, result.Found)
}

func TestResolveFuzzyNearMissBelowThreshold(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()
	for _, name := range []string{"Kai Chen", "Kai Chan"} {
		entity, err := domain.NewCanonicalEntity("customer:"+name, domain.EntityTypeCustomer, name, domain.ExternalRef{}, nil)
		require.NoError(t, err)
		alias, err := domain.NewEntityAlias(name, entity.ID, domain.AliasSourceUserStated, nil, 0.5, nil)
		require.NoError(t, err)
		_, err = fake.CreateEntity(ctx, entity)
		require.NoError(t, err)
		_, err = fake.UpsertAlias(ctx, alias)
		require.NoError(t, err)
	}

	r := New(fake, completion.NewService(completion.NewMockProvider()), DefaultConfig())
	result, disambig, err := r.Resolve(ctx, mention.Mention{Text: "Kai Che"}, ConversationContext{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, result.Found)
	if disambig != nil {
		assert.GreaterOrEqual(t, len(disambig.Candidates), 1)
	}
}
