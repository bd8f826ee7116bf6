package domain

import (
	"time"

	apperrors "memorycore/pkg/errors"
)

// SummaryScopeType names what a MemorySummary aggregates over.
type SummaryScopeType string

const (
	SummaryScopeEntity        SummaryScopeType = "entity"
	SummaryScopeTopic         SummaryScopeType = "topic"
	SummaryScopeSessionWindow SummaryScopeType = "session_window"
)

// SourceDataRef points at the raw material a MemorySummary was consolidated
// from: the ids of the aggregated items, plus the time range they span.
type SourceDataRef struct {
	ItemIDs   []int64
	StartedAt time.Time
	EndedAt   time.Time
}

// MemorySummary is a consolidated, higher-level memory derived from lower
// level episodic/semantic rows. Summaries rank above other candidates of
// equal score during retrieval (§4.C9 post-adjustment ×1.15).
type MemorySummary struct {
	ID                 int64
	UserID             string
	ScopeType          SummaryScopeType
	ScopeID            string
	SummaryText        string
	KeyFacts           map[string]any
	SourceData         SourceDataRef
	PredecessorSummaryID *int64
	Confidence         float64
	Vector             []float32
	CreatedAt          time.Time
}

// NewMemorySummary validates and constructs a MemorySummary.
func NewMemorySummary(userID string, scopeType SummaryScopeType, scopeID, summaryText string, keyFacts map[string]any, sourceData SourceDataRef, confidence float64) (MemorySummary, error) {
	if userID == "" || scopeID == "" {
		return MemorySummary{}, apperrors.NewValidation("memory summary: user id and scope id required")
	}
	if summaryText == "" {
		return MemorySummary{}, apperrors.NewValidation("memory summary: text required")
	}
	if confidence <= 0 || confidence > MaxConfidence {
		return MemorySummary{}, apperrors.NewValidation("memory summary: confidence out of (0, 0.95]")
	}
	return MemorySummary{
		UserID:      userID,
		ScopeType:   scopeType,
		ScopeID:     scopeID,
		SummaryText: summaryText,
		KeyFacts:    keyFacts,
		SourceData:  sourceData,
		Confidence:  confidence,
	}, nil
}
