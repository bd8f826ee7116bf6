// Package store defines the data-access boundary (§4.C1): narrow,
// interface-segregated types for each persisted concern, plus a
// transaction boundary (UnitOfWork) that the Turn Orchestrator uses to
// scope a turn's writes. Each interface method is one operation; there is
// no multi-method abstract base beyond that, per the Design Notes'
// instruction to replace hexagonal repository inheritance with flat
// interface types on the data-access boundary.
package store

import (
	"context"
	"time"

	"memorycore/internal/domain"
)

// EntityFilter narrows DomainQuery/JoinDomain reads. Store implementations
// must refuse free-form query text — only structured filters like this are
// accepted.
type EntityFilter struct {
	Column string
	Op     string // "=", "in", "ilike", ">", "<", ">=", "<="
	Value  any
}

// ChatEventStore owns append-only ChatEvent rows.
type ChatEventStore interface {
	// AppendChatEvent is idempotent on (SessionID, ContentHash); on a
	// duplicate it returns the existing row's id and performs no writes.
	AppendChatEvent(ctx context.Context, ev domain.ChatEvent) (id int64, created bool, err error)
	RecentChatEvents(ctx context.Context, sessionID string, limit int) ([]domain.ChatEvent, error)
}

// EntityStore owns CanonicalEntity rows.
type EntityStore interface {
	GetEntityByCanonicalName(ctx context.Context, name string) (domain.CanonicalEntity, bool, error)
	GetEntityByID(ctx context.Context, id string) (domain.CanonicalEntity, bool, error)
	// CreateEntity enforces the "one row per canonical name" invariant
	// using on-conflict-do-nothing-plus-re-read under concurrent creation.
	CreateEntity(ctx context.Context, e domain.CanonicalEntity) (domain.CanonicalEntity, error)
	UpdateEntityProperties(ctx context.Context, id string, patch map[string]any) error
}

// AliasStore owns EntityAlias rows.
type AliasStore interface {
	// GetAliasesByText returns matches ordered with user-specific rows
	// first, then confidence descending.
	GetAliasesByText(ctx context.Context, text string, userID string) ([]domain.EntityAlias, error)
	// UpsertAlias increments UseCount and raises Confidence to the max of
	// old/new on a uniqueness conflict of (AliasText, UserID, CanonicalID).
	UpsertAlias(ctx context.Context, a domain.EntityAlias) (domain.EntityAlias, error)
	// SearchAliasesFuzzy performs a trigram similarity search; Score is in
	// [0,1] and results are ordered score descending.
	SearchAliasesFuzzy(ctx context.Context, text string, threshold float64, limit int) ([]FuzzyAliasMatch, error)
}

// FuzzyAliasMatch is one row returned by SearchAliasesFuzzy.
type FuzzyAliasMatch struct {
	AliasText string
	EntityID  string
	Score     float64
}

// SemanticStore owns SemanticMemory rows.
type SemanticStore interface {
	ListActiveSemantic(ctx context.Context, subjectID *string, predicate string, userID string) ([]domain.SemanticMemory, error)
	// ListSemanticHistory returns every row for (subject, predicate, user)
	// regardless of status, newest first, so the Conflict Detector can tell
	// a genuinely new fact from one that restates a value an already-applied
	// supersession has moved past (§4.C7's temporal case).
	ListSemanticHistory(ctx context.Context, subjectID *string, predicate string, userID string) ([]domain.SemanticMemory, error)
	CreateSemantic(ctx context.Context, m domain.SemanticMemory) (domain.SemanticMemory, error)
	MarkSuperseded(ctx context.Context, oldID, newID int64) error
	SetStatus(ctx context.Context, id int64, status domain.MemoryStatus) error
	Reinforce(ctx context.Context, id int64, newConfidence float64, lastValidatedAt time.Time) error
	GetSemanticByID(ctx context.Context, id int64) (domain.SemanticMemory, bool, error)
	// SemanticCandidates performs an approximate nearest-neighbor search
	// over active+aging rows using cosine distance.
	SemanticCandidates(ctx context.Context, userID string, queryVec []float32, entityIDs []string, filters CandidateFilters, overFetch int) ([]SemanticCandidate, error)
}

// SemanticCandidate is one ANN hit from SemanticCandidates.
type SemanticCandidate struct {
	Memory         domain.SemanticMemory
	CosineDistance float64
}

// CandidateFilters is shared by every *Candidates Store method (§4.C1).
type CandidateFilters struct {
	TimeRange *TimeRange
}

// TimeRange bounds a candidate query to [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// EpisodicStore owns EpisodicMemory rows.
type EpisodicStore interface {
	CreateEpisodic(ctx context.Context, m domain.EpisodicMemory) (domain.EpisodicMemory, error)
	EpisodicCandidates(ctx context.Context, userID string, queryVec []float32, entityIDs []string, filters CandidateFilters, overFetch int) ([]EpisodicCandidate, error)
}

// EpisodicCandidate is one ANN hit from EpisodicCandidates.
type EpisodicCandidate struct {
	Memory         domain.EpisodicMemory
	CosineDistance float64
}

// ProceduralStore owns ProceduralMemory rows.
type ProceduralStore interface {
	CreateProcedural(ctx context.Context, m domain.ProceduralMemory) (domain.ProceduralMemory, error)
	ProceduralCandidates(ctx context.Context, userID string, queryVec []float32, filters CandidateFilters, overFetch int) ([]ProceduralCandidate, error)
}

// ProceduralCandidate is one ANN hit from ProceduralCandidates.
type ProceduralCandidate struct {
	Memory         domain.ProceduralMemory
	CosineDistance float64
}

// SummaryStore owns MemorySummary rows.
type SummaryStore interface {
	CreateSummary(ctx context.Context, m domain.MemorySummary) (domain.MemorySummary, error)
	SummaryCandidates(ctx context.Context, userID string, queryVec []float32, filters CandidateFilters, overFetch int) ([]SummaryCandidate, error)
}

// SummaryCandidate is one ANN hit from SummaryCandidates.
type SummaryCandidate struct {
	Memory         domain.MemorySummary
	CosineDistance float64
}

// ConflictStore owns MemoryConflict rows.
type ConflictStore interface {
	RecordConflict(ctx context.Context, c domain.MemoryConflict) (domain.MemoryConflict, error)
	ResolveConflict(ctx context.Context, id int64, strategy domain.ResolutionStrategy, outcome map[string]any) error
}

// DomainStore reads the external, read-only domain namespace. The core
// never writes through this interface.
type DomainStore interface {
	// DomainQuery is a parameterized read; Columns is a projection list
	// and Filters must be structured (see EntityFilter) — free-form query
	// text is rejected with a Validation error.
	DomainQuery(ctx context.Context, table string, filters []EntityFilter, columns []string, limit int) ([]map[string]any, error)
	// JoinDomain executes a single ontology hop against ParentRows.
	JoinDomain(ctx context.Context, join domain.JoinSpec, parentRows []map[string]any, limit int) ([]map[string]any, error)
	GetOntologyEdges(ctx context.Context, fromType domain.EntityType) ([]domain.DomainOntologyEdge, error)
}

// ConfigStore reads SystemConfig rows.
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (domain.SystemConfigEntry, bool, error)
}

// UnitOfWork scopes a set of Store writes to one transaction, per §5's
// ordering guarantee that conflict writes and supersession updates commit
// atomically with the triple that caused them.
type UnitOfWork interface {
	Store
}

// TxRunner begins a UnitOfWork, runs fn, and commits/rolls back based on
// fn's error. It is the sole way callers obtain transactional scope —
// there is no exposed Begin/Commit/Rollback to avoid leaking the
// transaction lifetime past one turn.
type TxRunner interface {
	ExecuteInTransaction(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// Store is the full data-access surface, composed of the narrow
// interfaces above. Implementations (storepg) also implement TxRunner.
type Store interface {
	ChatEventStore
	EntityStore
	AliasStore
	SemanticStore
	EpisodicStore
	ProceduralStore
	SummaryStore
	ConflictStore
	DomainStore
	ConfigStore
}
