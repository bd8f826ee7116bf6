package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorycore/internal/completion"
	"memorycore/internal/conflict"
	"memorycore/internal/domain"
	"memorycore/internal/domainaugment"
	"memorycore/internal/embedding"
	"memorycore/internal/lifecycle"
	"memorycore/internal/resolver"
	"memorycore/internal/retrieval"
	"memorycore/internal/store/storetest"
)

func newTestOrchestrator(t *testing.T, provider completion.Provider) (*Orchestrator, *storetest.Store) {
	t.Helper()
	fake := storetest.New()
	svc := completion.NewService(provider)
	embedder := embedding.NewMockProvider("test-model", 8)
	lc := lifecycle.New(lifecycle.DefaultConfig())
	detector := conflict.New(lc, conflict.DefaultConfig())
	retriever := retrieval.New(fake, lc, retrieval.DefaultConfig())
	augmenter := domainaugment.New(fake, domainaugment.DefaultConfig())

	o := New(fake, embedder, svc, resolver.DefaultConfig(), detector, retriever, augmenter,
		DefaultConfig(), nil, nil)
	return o, fake
}

func TestProcessTurnHappyPathNoMentions(t *testing.T) {
	o, fake := newTestOrchestrator(t, completion.NewMockProvider())

	result, err := o.ProcessTurn(context.Background(), TurnInput{
		UserID: "u1", SessionID: "sess1", Message: "What's the weather like?",
	})
	require.NoError(t, err)
	assert.False(t, result.DisambiguationRequired)
	assert.NotZero(t, result.EventID)
	assert.NotEmpty(t, result.Reply)

	events, err := fake.RecentChatEvents(context.Background(), "sess1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.RoleUser, events[0].Role)
	assert.Equal(t, domain.RoleAssistant, events[1].Role)
}

func TestProcessTurnMintsSessionWhenEmpty(t *testing.T) {
	o, _ := newTestOrchestrator(t, completion.NewMockProvider())

	result, err := o.ProcessTurn(context.Background(), TurnInput{UserID: "u1", Message: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
}

func TestProcessTurnDisambiguationShortCircuitsBeforeFurtherWrites(t *testing.T) {
	o, fake := newTestOrchestrator(t, completion.NewMockProvider())
	ctx := context.Background()

	for _, name := range []string{"Kai Chen", "Kai Chan"} {
		entity, err := domain.NewCanonicalEntity("customer:"+name, domain.EntityTypeCustomer, name, domain.ExternalRef{}, nil)
		require.NoError(t, err)
		_, err = fake.CreateEntity(ctx, entity)
		require.NoError(t, err)
		alias, err := domain.NewEntityAlias(name, entity.ID, domain.AliasSourceUserStated, nil, 0.5, nil)
		require.NoError(t, err)
		_, err = fake.UpsertAlias(ctx, alias)
		require.NoError(t, err)
	}

	result, err := o.ProcessTurn(ctx, TurnInput{UserID: "u1", SessionID: "sess2", Message: "Kai Che said the invoice is late"})
	require.NoError(t, err)

	if result.DisambiguationRequired {
		assert.NotEmpty(t, result.Candidates)
		assert.Empty(t, result.MemoriesCreatedOrReinforced)
	}

	events, err := fake.RecentChatEvents(ctx, "sess2", 10)
	require.NoError(t, err)
	require.Len(t, events, 1, "the user's chat event must commit even when the turn short-circuits")
}

func TestProcessTurnUsesDisambiguationSelectionAsAlias(t *testing.T) {
	o, fake := newTestOrchestrator(t, completion.NewMockProvider())
	ctx := context.Background()

	entity, err := domain.NewCanonicalEntity("customer:kai_chen", domain.EntityTypeCustomer, "Kai Chen", domain.ExternalRef{}, nil)
	require.NoError(t, err)
	_, err = fake.CreateEntity(ctx, entity)
	require.NoError(t, err)

	result, err := o.ProcessTurn(ctx, TurnInput{
		UserID: "u1", SessionID: "sess3", Message: "Kai said the invoice is late",
		DisambiguationSelection: &DisambiguationSelection{OriginalMention: "Kai", SelectedEntityID: "customer:kai_chen"},
	})
	require.NoError(t, err)
	assert.False(t, result.DisambiguationRequired)

	aliases, err := fake.GetAliasesByText(ctx, "Kai", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, aliases)
	assert.Equal(t, 0.95, aliases[0].Confidence)
}

func TestProcessTurnFallsBackToDeterministicReplyOnSynthesisFailure(t *testing.T) {
	o, _ := newTestOrchestrator(t, failingProvider{})

	result, err := o.ProcessTurn(context.Background(), TurnInput{UserID: "u1", SessionID: "sess4", Message: "anything"})
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "couldn't generate a full response")
}

func TestProcessTurnSerializesSameSessionTurns(t *testing.T) {
	o, _ := newTestOrchestrator(t, completion.NewMockProvider())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := o.ProcessTurn(context.Background(), TurnInput{
				UserID: "u1", SessionID: "sess5", Message: messageFor(i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func messageFor(i int) string {
	msgs := []string{"one", "two", "three", "four", "five"}
	return msgs[i]
}

type failingProvider struct{}

func (failingProvider) IsAvailable() bool { return true }

func (failingProvider) Complete(ctx context.Context, prompt string, opts completion.Options) (completion.Result, error) {
	return completion.Result{}, context.DeadlineExceeded
}
