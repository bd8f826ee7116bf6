package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"memorycore/internal/domain"
	"memorycore/internal/lifecycle"
	"memorycore/internal/store"
	apperrors "memorycore/pkg/errors"
)

// Config holds the overfetch limits, token budget, and pool sizing for the
// Retriever (§4.C9 defaults).
type Config struct {
	OverfetchSemantic  int
	OverfetchEpisodic  int
	OverfetchProcedural int
	OverfetchSummary   int
	TopK               int
	TokenBudget        int
	PoolSize           int
	DecayRatePerDay    float64
	KeywordPrefilterThreshold int // only apply the keyword ordering hint when the episodic fetch returns at least this many rows
}

// DefaultConfig returns the defaults named in §4.C9.
func DefaultConfig() Config {
	return Config{
		OverfetchSemantic:         50,
		OverfetchEpisodic:         50,
		OverfetchProcedural:       20,
		OverfetchSummary:          10,
		TopK:                      15,
		TokenBudget:               3000,
		PoolSize:                  4,
		DecayRatePerDay:           lifecycle.DefaultConfig().DecayRatePerDay,
		KeywordPrefilterThreshold: 50,
	}
}

// Retriever is the Retriever / Scorer (C9).
type Retriever struct {
	store     store.Store
	lifecycle *lifecycle.Lifecycle
	cfg       Config
}

// New builds a Retriever over a store and lifecycle calculator.
func New(s store.Store, lc *lifecycle.Lifecycle, cfg Config) *Retriever {
	return &Retriever{store: s, lifecycle: lc, cfg: cfg}
}

// Retrieve runs parallel candidate generation across the four memory
// kinds, scores and deduplicates them, selects a diverse top_k, and packs
// the result to the configured token budget.
func (r *Retriever) Retrieve(ctx context.Context, q Query, strategy Strategy) (Result, error) {
	pool, err := ants.NewPool(r.cfg.PoolSize, ants.WithPreAlloc(true))
	if err != nil {
		return Result{}, apperrors.Wrap(err, "retrieval: build worker pool")
	}
	defer pool.Release()

	entityRestricted := strategy == StrategyFactualEntityFocused
	filters := store.CandidateFilters{TimeRange: q.TimeRange}
	queryTokens := keywordTokens(q.Text)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		all  []Candidate
		errs []error
	)
	submit := func(fn func() ([]Candidate, error)) {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			cands, err := fn()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			all = append(all, cands...)
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	submit(func() ([]Candidate, error) { return r.fetchSemantic(ctx, q, filters, entityRestricted) })
	submit(func() ([]Candidate, error) {
		return r.fetchEpisodic(ctx, q, filters, entityRestricted, queryTokens)
	})
	submit(func() ([]Candidate, error) { return r.fetchProcedural(ctx, q, filters) })
	submit(func() ([]Candidate, error) { return r.fetchSummary(ctx, q, filters) })

	wg.Wait()
	if len(errs) > 0 {
		return Result{}, errs[0]
	}

	all = dedup(all)

	now := time.Now().UTC()
	hadSummary := false
	for _, c := range all {
		if c.IsSummary {
			hadSummary = true
			break
		}
	}

	scored := make([]Candidate, 0, len(all))
	for _, c := range all {
		effConf := r.effectiveConfidence(c, now)
		c.Score, c.ScoreBreakdown = score(c, q, strategy, now, effConf)
		scored = append(scored, c)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	filtered := make([]Candidate, 0, len(scored))
	for _, c := range scored {
		if c.Score >= minScoreThreshold {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 && hadSummary {
		for _, c := range scored {
			if c.IsSummary {
				filtered = append(filtered, c)
				break
			}
		}
	}

	diverse := selectDiverse(filtered, r.cfg.TopK)
	packed, used := packToBudget(diverse, r.cfg.TokenBudget)

	return Result{Selected: packed, TokensUsed: used, TruncatedPool: len(all) > len(filtered)}, nil
}

func (r *Retriever) effectiveConfidence(c Candidate, now time.Time) *float64 {
	if c.Confidence == nil {
		return nil
	}
	ref := c.CreatedAt
	if c.LastValidated != nil {
		ref = *c.LastValidated
	}
	eff := lifecycle.EffectiveConfidence(*c.Confidence, ref, now, r.cfg.DecayRatePerDay)
	return &eff
}

func dedup(cands []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		key := string(c.Kind) + ":" + strconv.FormatInt(c.ID, 10)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func entityIDsFor(restricted bool, q Query) []string {
	if !restricted {
		return nil
	}
	return q.EntityIDs
}

func (r *Retriever) fetchSemantic(ctx context.Context, q Query, filters store.CandidateFilters, entityRestricted bool) ([]Candidate, error) {
	rows, err := r.store.SemanticCandidates(ctx, q.UserID, q.Embedding, entityIDsFor(entityRestricted, q), filters, r.cfg.OverfetchSemantic)
	if err != nil {
		return nil, apperrors.Wrap(err, "retrieval: semantic candidates")
	}
	now := time.Now().UTC()
	out := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		m := row.Memory
		if !m.Status.Retrievable() {
			continue
		}
		ageDays := lifecycle.AgeDays(lifecycle.ReferenceTime(m), now)
		effStatus := r.lifecycle.EffectiveStatus(m.Status, ageDays, m.ReinforcementCount)
		conf := m.Confidence
		var entityIDs []string
		if m.SubjectEntityID != nil {
			entityIDs = []string{*m.SubjectEntityID}
		}
		out = append(out, Candidate{
			Kind:               domain.MemoryKindSemantic,
			ID:                 m.ID,
			Text:               renderSemanticText(m),
			Vector:             m.Vector,
			EntityIDs:          entityIDs,
			Importance:         m.Importance,
			Confidence:         &conf,
			CreatedAt:          m.CreatedAt,
			LastValidated:      m.LastValidatedAt,
			ReinforcementCount: m.ReinforcementCount,
			Status:             m.Status,
			IsAging:            effStatus == domain.StatusAging,
			Semantic:           &m,
		})
	}
	return out, nil
}

func (r *Retriever) fetchEpisodic(ctx context.Context, q Query, filters store.CandidateFilters, entityRestricted bool, queryTokens map[string]struct{}) ([]Candidate, error) {
	overfetch := r.cfg.OverfetchEpisodic
	rows, err := r.store.EpisodicCandidates(ctx, q.UserID, q.Embedding, entityIDsFor(entityRestricted, q), filters, overfetch)
	if err != nil {
		return nil, apperrors.Wrap(err, "retrieval: episodic candidates")
	}
	useKeywordHint := len(rows) >= r.cfg.KeywordPrefilterThreshold
	if useKeywordHint {
		sort.SliceStable(rows, func(i, j int) bool {
			return keywordOverlap(rows[i].Memory.Summary, queryTokens) && !keywordOverlap(rows[j].Memory.Summary, queryTokens)
		})
	}
	out := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		m := row.Memory
		entityIDs := make([]string, 0, len(m.EntityMentions))
		for _, em := range m.EntityMentions {
			entityIDs = append(entityIDs, em.EntityID)
		}
		out = append(out, Candidate{
			Kind:       domain.MemoryKindEpisodic,
			ID:         m.ID,
			Text:       m.Summary,
			Vector:     m.Vector,
			EntityIDs:  entityIDs,
			Importance: m.Importance,
			CreatedAt:  m.CreatedAt,
			Episodic:   &m,
		})
	}
	return out, nil
}

func (r *Retriever) fetchProcedural(ctx context.Context, q Query, filters store.CandidateFilters) ([]Candidate, error) {
	rows, err := r.store.ProceduralCandidates(ctx, q.UserID, q.Embedding, filters, r.cfg.OverfetchProcedural)
	if err != nil {
		return nil, apperrors.Wrap(err, "retrieval: procedural candidates")
	}
	out := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		m := row.Memory
		conf := m.Confidence
		out = append(out, Candidate{
			Kind:               domain.MemoryKindProcedural,
			ID:                 m.ID,
			Text:               m.ActionHeuristic,
			Vector:             m.Vector,
			Importance:         0,
			Confidence:         &conf,
			CreatedAt:          m.CreatedAt,
			ReinforcementCount: m.ObservedCount,
			Procedural:         &m,
		})
	}
	return out, nil
}

func (r *Retriever) fetchSummary(ctx context.Context, q Query, filters store.CandidateFilters) ([]Candidate, error) {
	rows, err := r.store.SummaryCandidates(ctx, q.UserID, q.Embedding, filters, r.cfg.OverfetchSummary)
	if err != nil {
		return nil, apperrors.Wrap(err, "retrieval: summary candidates")
	}
	out := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		m := row.Memory
		conf := m.Confidence
		out = append(out, Candidate{
			Kind:       domain.MemoryKindSummary,
			ID:         m.ID,
			Text:       m.SummaryText,
			Vector:     m.Vector,
			Importance: 0.8,
			Confidence: &conf,
			CreatedAt:  m.CreatedAt,
			IsSummary:  true,
			Summary:    &m,
		})
	}
	return out, nil
}

func renderSemanticText(m domain.SemanticMemory) string {
	return m.Predicate + ": " + stringifyValue(m.ObjectValue)
}

func stringifyValue(v domain.ObjectValue) string {
	if s, ok := v.Value.(string); ok {
		return s
	}
	return fmt.Sprint(v.Value)
}
