package domainaugment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"memorycore/internal/domain"
	"memorycore/internal/store"
	apperrors "memorycore/pkg/errors"
)

// Config bounds traversal depth/width. Defaults come from domain.MaxFanOut
// / domain.MaxHops (Open Question decision 3). No SystemConfig key is read
// for either; the bounds are whatever the caller puts in Config.
type Config struct {
	MaxFanOut int
	MaxHops   int
	PoolSize  int
}

// DefaultConfig returns the spec defaults.
func DefaultConfig() Config {
	return Config{MaxFanOut: domain.MaxFanOut, MaxHops: domain.MaxHops, PoolSize: 4}
}

// Augmenter is the Domain Augmenter (C10).
type Augmenter struct {
	domainStore store.DomainStore
	cfg         Config
}

// New builds an Augmenter over the read-only domain store.
func New(s store.DomainStore, cfg Config) *Augmenter {
	return &Augmenter{domainStore: s, cfg: cfg}
}

// Augment classifies intent from queryText and, for every resolved entity,
// follows outbound ontology edges relevant to that intent. Customer
// entities additionally always receive a customer-context pass regardless
// of the classified intent.
func (a *Augmenter) Augment(ctx context.Context, entities []domain.CanonicalEntity, queryText string) ([]domain.DomainFact, Intent, error) {
	intent := ClassifyIntent(queryText)

	pool, err := ants.NewPool(a.cfg.PoolSize, ants.WithPreAlloc(true))
	if err != nil {
		return nil, intent, apperrors.Wrap(err, "domainaugment: build worker pool")
	}
	defer pool.Release()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		facts []domain.DomainFact
		errs  []error
	)
	run := func(e domain.CanonicalEntity, i Intent) {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			f, err := a.traverseEntity(ctx, e, i)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			facts = append(facts, f...)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
		}
	}

	for _, e := range entities {
		run(e, intent)
		if e.Type == domain.EntityTypeCustomer && intent != IntentCustomerContext {
			run(e, IntentCustomerContext)
		}
	}

	wg.Wait()
	if len(errs) > 0 {
		return nil, intent, errs[0]
	}
	return dedupFacts(facts), intent, nil
}

// traverseEntity performs the bounded multi-hop BFS described by §4.C10's
// customer -> sales_orders -> work_orders -> invoices example: at each hop
// it issues DomainQuery/JoinDomain calls for every ontology edge relevant
// to intent, builds a DomainFact per non-empty hop, and continues from
// that hop's rows. An empty hop yields no fact and does not recurse
// further down that branch (the spec's "absence of rows => no fact").
func (a *Augmenter) traverseEntity(ctx context.Context, entity domain.CanonicalEntity, intent Intent) ([]domain.DomainFact, error) {
	if entity.ExternalRef.IsZero() {
		return nil, nil
	}

	type frontierRow struct {
		fromType domain.EntityType
		rows     []map[string]any
	}

	root, err := a.domainStore.DomainQuery(ctx, entity.ExternalRef.SourceTable,
		[]store.EntityFilter{{Column: "id", Op: "=", Value: entity.ExternalRef.SourceID}}, nil, 1)
	if err != nil {
		return nil, apperrors.Wrap(err, "domainaugment: root row lookup")
	}
	if len(root) == 0 {
		return nil, nil
	}

	if intent == IntentCustomerContext && entity.Type == domain.EntityTypeCustomer {
		return []domain.DomainFact{a.buildFact("customer_context", entity.ID, entity.ExternalRef.SourceTable, root, "customer profile")}, nil
	}

	var facts []domain.DomainFact
	frontier := []frontierRow{{fromType: entity.Type, rows: root}}

	for hop := 0; hop < a.cfg.MaxHops && len(frontier) > 0; hop++ {
		var next []frontierRow
		for _, fr := range frontier {
			edges, err := a.domainStore.GetOntologyEdges(ctx, fr.fromType)
			if err != nil {
				return nil, apperrors.Wrap(err, "domainaugment: ontology edges")
			}
			for _, edge := range edges {
				if !edgeRelevant(intent, string(edge.ToType), edge.RelationType) {
					continue
				}
				rows, err := a.domainStore.JoinDomain(ctx, edge.Join, fr.rows, a.cfg.MaxFanOut)
				if err != nil {
					return nil, apperrors.Wrap(err, "domainaugment: join domain")
				}
				if len(rows) == 0 {
					continue
				}
				facts = append(facts, a.buildFact(edge.RelationType, entity.ID, edge.Join.ToTable, rows, edge.Semantics))
				next = append(next, frontierRow{fromType: edge.ToType, rows: rows})
			}
		}
		frontier = next
	}
	return facts, nil
}

func (a *Augmenter) buildFact(factType, entityID, table string, rows []map[string]any, semantics string) domain.DomainFact {
	content := semantics
	if content == "" {
		content = fmt.Sprintf("%d %s row(s) found", len(rows), table)
	} else {
		content = fmt.Sprintf("%s (%d row(s))", semantics, len(rows))
	}
	return domain.NewDomainFact(factType, entityID, content, nil, table, rowIDs(rows), time.Now().UTC())
}

func rowIDs(rows []map[string]any) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row["id"]; ok {
			ids = append(ids, fmt.Sprint(v))
			continue
		}
		ids = append(ids, firstValueSorted(row))
	}
	return ids
}

func firstValueSorted(row map[string]any) string {
	if len(row) == 0 {
		return ""
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprint(row[keys[0]])
}

func dedupFacts(facts []domain.DomainFact) []domain.DomainFact {
	seen := make(map[string]struct{}, len(facts))
	out := make([]domain.DomainFact, 0, len(facts))
	for _, f := range facts {
		key := f.FactType + "|" + f.EntityID + "|" + f.SourceTable
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
