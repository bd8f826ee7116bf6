package domainaugment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorycore/internal/domain"
	"memorycore/internal/store/storetest"
)

func TestClassifyIntent(t *testing.T) {
	assert.Equal(t, IntentOrderStatus, ClassifyIntent("where is my order"))
	assert.Equal(t, IntentFinancial, ClassifyIntent("what's my outstanding invoice balance"))
	assert.Equal(t, IntentTaskManagement, ClassifyIntent("please schedule a follow up"))
	assert.Equal(t, IntentGeneral, ClassifyIntent("hello there"))
}

func TestAugmentFollowsOntologyChainAndStopsOnEmptyHop(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()

	fake.SeedDomainRows("customers", []map[string]any{{"id": "cust_1", "customer_id": "cust_1", "name": "Kai"}})
	fake.SeedDomainRows("sales_orders", []map[string]any{{"id": "so_1", "customer_id": "cust_1", "sales_order_id": "so_1"}})
	// no work_orders rows seeded: the chain should stop there

	fake.SeedOntologyEdge(domain.DomainOntologyEdge{
		FromType: domain.EntityTypeCustomer, RelationType: "has", ToType: "order",
		Cardinality: domain.CardinalityOneToMany, Semantics: "customer's sales orders",
		Join: domain.JoinSpec{FromTable: "customers", ToTable: "sales_orders", On: "customer_id"},
	})
	fake.SeedOntologyEdge(domain.DomainOntologyEdge{
		FromType: "order", RelationType: "creates", ToType: "work_order",
		Cardinality: domain.CardinalityOneToMany, Semantics: "order's work orders",
		Join: domain.JoinSpec{FromTable: "sales_orders", ToTable: "work_orders", On: "sales_order_id"},
	})

	entity := domain.CanonicalEntity{
		ID: "customer:cust_1", Type: domain.EntityTypeCustomer,
		ExternalRef: domain.ExternalRef{SourceTable: "customers", SourceID: "cust_1"},
	}

	a := New(fake, DefaultConfig())
	facts, intent, err := a.Augment(ctx, []domain.CanonicalEntity{entity}, "where is my order")
	require.NoError(t, err)
	assert.Equal(t, IntentOrderStatus, intent)
	require.NotEmpty(t, facts)

	var sawSalesOrders, sawWorkOrders, sawCustomerContext bool
	for _, f := range facts {
		switch f.SourceTable {
		case "sales_orders":
			sawSalesOrders = true
		case "work_orders":
			sawWorkOrders = true
		}
		if f.FactType == "customer_context" {
			sawCustomerContext = true
		}
	}
	assert.True(t, sawSalesOrders)
	assert.False(t, sawWorkOrders, "chain must stop when work_orders has no rows")
	assert.True(t, sawCustomerContext, "customer-context facts are emitted unconditionally for customers")
}

func TestAugmentNoFactWhenEntityHasNoExternalRef(t *testing.T) {
	fake := storetest.New()
	ctx := context.Background()
	entity := domain.CanonicalEntity{ID: "person:u1", Type: domain.EntityTypePerson}

	a := New(fake, DefaultConfig())
	facts, _, err := a.Augment(ctx, []domain.CanonicalEntity{entity}, "hello")
	require.NoError(t, err)
	assert.Empty(t, facts)
}
