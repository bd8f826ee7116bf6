// Package retrieval implements the Retriever / Scorer (C9): multi-signal
// candidate generation and ranking across the four memory kinds, diversity
// selection, and token-budget packing. Candidate generation is fanned out
// across a bounded worker pool, grounded on the teacher's
// ParallelConnectionAnalyzer
// (internal/domain/services/connection_analyzer_parallel.go), which
// switches a batch of independent comparisons onto a pool instead of
// ambient goroutines.
package retrieval

import (
	"time"

	"memorycore/internal/domain"
	"memorycore/internal/store"
)

// Strategy selects which weight table scoring uses.
type Strategy string

const (
	StrategyExploratory           Strategy = "exploratory"
	StrategyFactualEntityFocused  Strategy = "factual_entity_focused"
	StrategyProcedural            Strategy = "procedural"
	StrategyAnalytical            Strategy = "analytical"
)

// Query is the Retriever's input, built by the Turn Orchestrator from the
// user's message.
type Query struct {
	Text      string
	Embedding []float32
	EntityIDs []string
	Intent    string
	TimeRange *store.TimeRange
	UserID    string
}

// Candidate is one scored memory of any kind, the sum-type the Retriever
// treats every source's rows as once fetched.
type Candidate struct {
	Kind          domain.MemoryKind
	ID            int64
	Text          string
	Vector        []float32
	EntityIDs     []string
	Importance    float64
	Confidence    *float64 // nil for episodic (no confidence field)
	CreatedAt     time.Time
	LastValidated *time.Time
	ReinforcementCount int
	Status        domain.MemoryStatus // zero value for kinds without a status
	IsAging       bool
	IsSummary     bool
	Score         float64
	ScoreBreakdown map[string]float64

	Semantic  *domain.SemanticMemory
	Episodic  *domain.EpisodicMemory
	Procedural *domain.ProceduralMemory
	Summary   *domain.MemorySummary
}

// Result is what ProcessTurn receives back from Retrieve.
type Result struct {
	Selected      []Candidate
	TokensUsed    int
	TruncatedPool bool
}
