// Package orchestrator implements the Turn Orchestrator (C11): it
// sequences Mention Extraction, Entity Resolution, Semantic Extraction,
// Domain Augmentation, and Retrieval inside one Store transaction, calls
// the Completer for the final reply outside that transaction, and returns
// a structured TurnResult. Grounded on the manual-factory wiring style of
// the teacher's internal/di/container.go and the task-per-turn shape of
// its cmd entrypoints, with the concurrent cache/embed pattern of
// RAGbox's chat handler (golang.org/x/sync/errgroup around independent
// I/O) adopted for the steps that may run side by side.
package orchestrator

import (
	"time"

	"memorycore/internal/domain"
	"memorycore/internal/domainaugment"
	"memorycore/internal/resolver"
	"memorycore/internal/retrieval"
)

// DisambiguationSelection carries the user's pick when a prior turn
// returned DisambiguationRequired for this mention.
type DisambiguationSelection struct {
	OriginalMention  string
	SelectedEntityID string
}

// TurnInput is ProcessTurn's argument, matching §6's turn request shape.
type TurnInput struct {
	UserID                  string
	SessionID               string // empty means "start a new session"
	Message                 string
	DisambiguationSelection *DisambiguationSelection
}

// ResolvedEntity is one mention's resolution outcome, as returned in
// TurnResult.ResolvedEntities.
type ResolvedEntity struct {
	Mention       string
	EntityID      string
	CanonicalName string
	EntityType    string
	Confidence    float64
	Method        resolver.Method
}

// MemoryAction records whether an incoming triple created a new semantic
// memory or reinforced an existing one.
type MemoryAction struct {
	MemoryID   int64
	Action     string // "created" | "reinforced"
	Confidence float64
}

// RetrievedMemory is one packed retrieval candidate, flattened for the
// response (§6's memories_retrieved shape).
type RetrievedMemory struct {
	MemoryID            int64
	MemoryType          domain.MemoryKind
	Content             string
	RelevanceScore      float64
	EffectiveConfidence float64
}

// ConflictSummary is one detected-and-resolved conflict, flattened for the
// response (§6's conflicts shape).
type ConflictSummary struct {
	Type               domain.ConflictType
	Subject            string
	Predicate          string
	ExistingValue      any
	NewValue           any
	ResolutionStrategy domain.ResolutionStrategy
}

// Provenance is the ordered list of source ids a reply drew from.
type Provenance struct {
	SourceMemoryIDs []int64
	SourceEventIDs  []int64
}

// TurnResult is ProcessTurn's return value, matching §6's turn response
// shape plus the candidates/facts the disambiguation and domain-fact
// flows need.
type TurnResult struct {
	SessionID                   string
	EventID                     int64
	Reply                       string
	ResolvedEntities            []ResolvedEntity
	DisambiguationRequired      bool
	Candidates                  []resolver.Candidate
	DomainFacts                 []domain.DomainFact
	MemoriesRetrieved           []RetrievedMemory
	MemoriesCreatedOrReinforced []MemoryAction
	Conflicts                   []ConflictSummary
	Provenance                  Provenance
	TimedOut                    bool
}

// replyContext is the assembled §4.C11 step-8 input to the reply prompt.
// It never crosses the package boundary; TurnResult is the public shape.
type replyContext struct {
	query             string
	domainFacts       []domain.DomainFact
	retrievedMemories []retrieval.Candidate
	recentEvents      []domain.ChatEvent
	openConflicts     []ConflictSummary
	intent            domainaugment.Intent
	now               time.Time
}
