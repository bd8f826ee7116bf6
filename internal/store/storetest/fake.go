// Package storetest provides an in-memory store.Store fake for
// service-level tests, in the shape of teacher's
// internal/repository/mocks/mock_repository.go: no network, deterministic,
// safe for concurrent use via a single mutex (good enough for tests, not a
// production concurrency model).
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"memorycore/internal/domain"
	apperrors "memorycore/pkg/errors"
	"memorycore/internal/store"
)

// Store is an in-memory implementation of store.Store and store.TxRunner.
type Store struct {
	mu sync.Mutex

	nextChatEventID int64
	nextAliasID     int64
	nextSemanticID  int64
	nextEpisodicID  int64
	nextProceduralID int64
	nextSummaryID   int64
	nextConflictID  int64

	chatEvents map[string]domain.ChatEvent // key: sessionID+"|"+hash
	chatByID   map[int64]domain.ChatEvent
	entities   map[string]domain.CanonicalEntity
	aliases    []domain.EntityAlias
	semantic   map[int64]domain.SemanticMemory
	episodic   map[int64]domain.EpisodicMemory
	procedural map[int64]domain.ProceduralMemory
	summaries  map[int64]domain.MemorySummary
	conflicts  map[int64]domain.MemoryConflict
	ontology   []domain.DomainOntologyEdge
	config     map[string]domain.SystemConfigEntry
	domainRows map[string][]map[string]any
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		chatEvents: map[string]domain.ChatEvent{},
		chatByID:   map[int64]domain.ChatEvent{},
		entities:   map[string]domain.CanonicalEntity{},
		semantic:   map[int64]domain.SemanticMemory{},
		episodic:   map[int64]domain.EpisodicMemory{},
		procedural: map[int64]domain.ProceduralMemory{},
		summaries:  map[int64]domain.MemorySummary{},
		conflicts:  map[int64]domain.MemoryConflict{},
		config:     map[string]domain.SystemConfigEntry{},
		domainRows: map[string][]map[string]any{},
	}
}

var _ store.Store = (*Store)(nil)
var _ store.TxRunner = (*Store)(nil)
var _ store.UnitOfWork = (*Store)(nil)

// ExecuteInTransaction has no real rollback semantics (there is nothing to
// roll back in memory for a single-process test run); it exists so
// orchestrator code can be exercised unchanged against the fake.
func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(uow store.UnitOfWork) error) error {
	return fn(s)
}

// SeedDomainRows lets a test populate rows DomainQuery/JoinDomain serve.
func (s *Store) SeedDomainRows(table string, rows []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domainRows[table] = rows
}

// SeedOntologyEdge lets a test populate GetOntologyEdges.
func (s *Store) SeedOntologyEdge(e domain.DomainOntologyEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ontology = append(s.ontology, e)
}

// SeedConfig lets a test populate GetConfig.
func (s *Store) SeedConfig(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[key] = domain.SystemConfigEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
}

func (s *Store) AppendChatEvent(ctx context.Context, ev domain.ChatEvent) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ev.SessionID + "|" + ev.ContentHash
	if existing, ok := s.chatEvents[key]; ok {
		return existing.ID, false, nil
	}
	s.nextChatEventID++
	ev.ID = s.nextChatEventID
	ev.CreatedAt = time.Now().UTC()
	s.chatEvents[key] = ev
	s.chatByID[ev.ID] = ev
	return ev.ID, true, nil
}

func (s *Store) RecentChatEvents(ctx context.Context, sessionID string, limit int) ([]domain.ChatEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ChatEvent
	for _, ev := range s.chatByID {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) GetEntityByCanonicalName(ctx context.Context, name string) (domain.CanonicalEntity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entities {
		if e.CanonicalName == name {
			return e, true, nil
		}
	}
	return domain.CanonicalEntity{}, false, nil
}

func (s *Store) GetEntityByID(ctx context.Context, id string) (domain.CanonicalEntity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	return e, ok, nil
}

func (s *Store) CreateEntity(ctx context.Context, e domain.CanonicalEntity) (domain.CanonicalEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entities {
		if existing.CanonicalName == e.CanonicalName {
			return existing, nil
		}
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	s.entities[e.ID] = e
	return e, nil
}

func (s *Store) UpdateEntityProperties(ctx context.Context, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return apperrors.NewNotFound("entity not found: " + id)
	}
	if e.Properties == nil {
		e.Properties = map[string]any{}
	}
	for k, v := range patch {
		e.Properties[k] = v
	}
	e.UpdatedAt = time.Now().UTC()
	s.entities[id] = e
	return nil
}

func (s *Store) GetAliasesByText(ctx context.Context, text string, userID string) ([]domain.EntityAlias, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.EntityAlias
	for _, a := range s.aliases {
		if a.AliasText != text {
			continue
		}
		if a.UserID == nil || *a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		iUser, jUser := out[i].UserID != nil, out[j].UserID != nil
		if iUser != jUser {
			return iUser
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

func (s *Store) UpsertAlias(ctx context.Context, a domain.EntityAlias) (domain.EntityAlias, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.aliases {
		if existing.AliasText == a.AliasText && existing.CanonicalID == a.CanonicalID && samePtr(existing.UserID, a.UserID) {
			existing.UseCount++
			if a.Confidence > existing.Confidence {
				existing.Confidence = a.Confidence
			}
			s.aliases[i] = existing
			return existing, nil
		}
	}
	s.nextAliasID++
	a.ID = s.nextAliasID
	a.CreatedAt = time.Now().UTC()
	s.aliases = append(s.aliases, a)
	return a, nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *Store) SearchAliasesFuzzy(ctx context.Context, text string, threshold float64, limit int) ([]store.FuzzyAliasMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.FuzzyAliasMatch
	for _, a := range s.aliases {
		score := trigramSimilarity(strings.ToLower(text), strings.ToLower(a.AliasText))
		if score >= threshold {
			out = append(out, store.FuzzyAliasMatch{AliasText: a.AliasText, EntityID: a.CanonicalID, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// trigramSimilarity is a small, deterministic Jaccard-over-trigrams
// approximation of Postgres's pg_trgm similarity(), good enough for
// threshold-based tests without a real database.
func trigramSimilarity(a, b string) float64 {
	ga, gb := trigrams(a), trigrams(b)
	if len(ga) == 0 || len(gb) == 0 {
		if a == b {
			return 1
		}
		return 0
	}
	inter := 0
	for g := range ga {
		if gb[g] {
			inter++
		}
	}
	union := len(ga) + len(gb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func trigrams(s string) map[string]bool {
	padded := "  " + s + "  "
	out := map[string]bool{}
	for i := 0; i+3 <= len(padded); i++ {
		out[padded[i:i+3]] = true
	}
	return out
}

func (s *Store) ListActiveSemantic(ctx context.Context, subjectID *string, predicate string, userID string) ([]domain.SemanticMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SemanticMemory
	for _, m := range s.semantic {
		if m.UserID != userID || m.Predicate != predicate || m.Status != domain.StatusActive {
			continue
		}
		if !samePtr(m.SubjectEntityID, subjectID) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) ListSemanticHistory(ctx context.Context, subjectID *string, predicate string, userID string) ([]domain.SemanticMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SemanticMemory
	for _, m := range s.semantic {
		if m.UserID != userID || m.Predicate != predicate {
			continue
		}
		if !samePtr(m.SubjectEntityID, subjectID) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateSemantic(ctx context.Context, m domain.SemanticMemory) (domain.SemanticMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSemanticID++
	m.ID = s.nextSemanticID
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	s.semantic[m.ID] = m
	return m, nil
}

func (s *Store) MarkSuperseded(ctx context.Context, oldID, newID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.semantic[oldID]
	if !ok {
		return apperrors.NewNotFound("semantic memory not found")
	}
	m.Status = domain.StatusSuperseded
	m.SupersededBy = &newID
	m.UpdatedAt = time.Now().UTC()
	s.semantic[oldID] = m
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id int64, status domain.MemoryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.semantic[id]
	if !ok {
		return apperrors.NewNotFound("semantic memory not found")
	}
	m.Status = status
	m.UpdatedAt = time.Now().UTC()
	s.semantic[id] = m
	return nil
}

func (s *Store) Reinforce(ctx context.Context, id int64, newConfidence float64, lastValidatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.semantic[id]
	if !ok {
		return apperrors.NewNotFound("semantic memory not found")
	}
	m.Confidence = newConfidence
	m.LastValidatedAt = &lastValidatedAt
	m.ReinforcementCount++
	if m.ConfidenceFactors == nil {
		m.ConfidenceFactors = map[string]float64{}
	}
	m.ConfidenceFactors["reinforcement"]++
	m.UpdatedAt = time.Now().UTC()
	s.semantic[id] = m
	return nil
}

func (s *Store) GetSemanticByID(ctx context.Context, id int64) (domain.SemanticMemory, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.semantic[id]
	return m, ok, nil
}

func (s *Store) SemanticCandidates(ctx context.Context, userID string, queryVec []float32, entityIDs []string, filters store.CandidateFilters, overFetch int) ([]store.SemanticCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entitySet := toSet(entityIDs)
	var out []store.SemanticCandidate
	for _, m := range s.semantic {
		if m.UserID != userID || m.Status != domain.StatusActive || m.Vector == nil {
			continue
		}
		if len(entitySet) > 0 {
			if m.SubjectEntityID == nil || !entitySet[*m.SubjectEntityID] {
				continue
			}
		}
		out = append(out, store.SemanticCandidate{Memory: m, CosineDistance: cosineDistance(queryVec, m.Vector)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CosineDistance < out[j].CosineDistance })
	if len(out) > overFetch {
		out = out[:overFetch]
	}
	return out, nil
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	cosine := dot / (sqrt(na) * sqrt(nb))
	return 1 - cosine
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 40; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}

func (s *Store) CreateEpisodic(ctx context.Context, m domain.EpisodicMemory) (domain.EpisodicMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEpisodicID++
	m.ID = s.nextEpisodicID
	m.CreatedAt = time.Now().UTC()
	s.episodic[m.ID] = m
	return m, nil
}

func (s *Store) EpisodicCandidates(ctx context.Context, userID string, queryVec []float32, entityIDs []string, filters store.CandidateFilters, overFetch int) ([]store.EpisodicCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.EpisodicCandidate
	for _, m := range s.episodic {
		if m.UserID != userID || m.Vector == nil {
			continue
		}
		out = append(out, store.EpisodicCandidate{Memory: m, CosineDistance: cosineDistance(queryVec, m.Vector)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CosineDistance < out[j].CosineDistance })
	if len(out) > overFetch {
		out = out[:overFetch]
	}
	return out, nil
}

func (s *Store) CreateProcedural(ctx context.Context, m domain.ProceduralMemory) (domain.ProceduralMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProceduralID++
	m.ID = s.nextProceduralID
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	s.procedural[m.ID] = m
	return m, nil
}

func (s *Store) ProceduralCandidates(ctx context.Context, userID string, queryVec []float32, filters store.CandidateFilters, overFetch int) ([]store.ProceduralCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.ProceduralCandidate
	for _, m := range s.procedural {
		if m.UserID != userID || m.Vector == nil {
			continue
		}
		out = append(out, store.ProceduralCandidate{Memory: m, CosineDistance: cosineDistance(queryVec, m.Vector)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CosineDistance < out[j].CosineDistance })
	if len(out) > overFetch {
		out = out[:overFetch]
	}
	return out, nil
}

func (s *Store) CreateSummary(ctx context.Context, m domain.MemorySummary) (domain.MemorySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSummaryID++
	m.ID = s.nextSummaryID
	m.CreatedAt = time.Now().UTC()
	s.summaries[m.ID] = m
	return m, nil
}

func (s *Store) SummaryCandidates(ctx context.Context, userID string, queryVec []float32, filters store.CandidateFilters, overFetch int) ([]store.SummaryCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.SummaryCandidate
	for _, m := range s.summaries {
		if m.UserID != userID || m.Vector == nil {
			continue
		}
		out = append(out, store.SummaryCandidate{Memory: m, CosineDistance: cosineDistance(queryVec, m.Vector)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CosineDistance < out[j].CosineDistance })
	if len(out) > overFetch {
		out = out[:overFetch]
	}
	return out, nil
}

func (s *Store) RecordConflict(ctx context.Context, c domain.MemoryConflict) (domain.MemoryConflict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextConflictID++
	c.ID = s.nextConflictID
	c.CreatedAt = time.Now().UTC()
	s.conflicts[c.ID] = c
	return c, nil
}

func (s *Store) ResolveConflict(ctx context.Context, id int64, strategy domain.ResolutionStrategy, outcome map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conflicts[id]
	if !ok {
		return apperrors.NewNotFound("conflict not found")
	}
	c.ResolutionStrategy = strategy
	c.ResolutionOutcome = outcome
	now := time.Now().UTC()
	c.ResolvedAt = &now
	s.conflicts[id] = c
	return nil
}

func (s *Store) DomainQuery(ctx context.Context, table string, filters []store.EntityFilter, columns []string, limit int) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.domainRows[table]
	var out []map[string]any
	for _, row := range rows {
		if rowMatches(row, filters) {
			out = append(out, row)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func rowMatches(row map[string]any, filters []store.EntityFilter) bool {
	for _, f := range filters {
		v, ok := row[f.Column]
		if !ok {
			return false
		}
		switch f.Op {
		case "=":
			if v != f.Value {
				return false
			}
		case "in":
			values, ok := f.Value.([]any)
			if !ok {
				return false
			}
			found := false
			for _, want := range values {
				if v == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "ilike":
			s1, _ := v.(string)
			s2, _ := f.Value.(string)
			if !strings.Contains(strings.ToLower(s1), strings.ToLower(strings.Trim(s2, "%"))) {
				return false
			}
		}
	}
	return true
}

func (s *Store) JoinDomain(ctx context.Context, join domain.JoinSpec, parentRows []map[string]any, limit int) ([]map[string]any, error) {
	keys := make([]any, 0, len(parentRows))
	for _, pr := range parentRows {
		if v, ok := pr[join.On]; ok {
			keys = append(keys, v)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return s.DomainQuery(ctx, join.ToTable, []store.EntityFilter{{Column: join.On, Op: "in", Value: keys}}, nil, limit)
}

func (s *Store) GetOntologyEdges(ctx context.Context, fromType domain.EntityType) ([]domain.DomainOntologyEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.DomainOntologyEdge
	for _, e := range s.ontology {
		if e.FromType == fromType {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) GetConfig(ctx context.Context, key string) (domain.SystemConfigEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.config[key]
	return entry, ok, nil
}
