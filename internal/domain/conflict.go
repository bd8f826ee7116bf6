package domain

import (
	"time"

	apperrors "memorycore/pkg/errors"
)

// ConflictType names which comparison produced a MemoryConflict.
type ConflictType string

const (
	ConflictMemoryVsMemory ConflictType = "memory_vs_memory"
	ConflictMemoryVsDB     ConflictType = "memory_vs_db"
	ConflictTemporal       ConflictType = "temporal"
)

// ResolutionStrategy is the action Conflict Detector chose for a conflict.
type ResolutionStrategy string

const (
	StrategyTrustDB             ResolutionStrategy = "trust_db"
	StrategyTrustRecent         ResolutionStrategy = "trust_recent"
	StrategyTrustHigherConfidence ResolutionStrategy = "trust_higher_confidence"
	StrategyAskUser             ResolutionStrategy = "ask_user"
	StrategyBothValid           ResolutionStrategy = "both_valid"
)

// MemoryConflict records a detected disagreement and how it was resolved.
type MemoryConflict struct {
	ID                int64
	DetectedAtEventID int64
	Type              ConflictType
	ConflictData      map[string]any
	ResolutionStrategy ResolutionStrategy
	ResolutionOutcome map[string]any
	ResolvedAt        *time.Time
	CreatedAt         time.Time
}

// NewMemoryConflict validates and constructs a MemoryConflict.
func NewMemoryConflict(detectedAtEventID int64, conflictType ConflictType, conflictData map[string]any, strategy ResolutionStrategy) (MemoryConflict, error) {
	if detectedAtEventID == 0 {
		return MemoryConflict{}, apperrors.NewValidation("conflict: detected-at event id required")
	}
	if conflictData == nil {
		return MemoryConflict{}, apperrors.NewValidation("conflict: conflict data required")
	}
	return MemoryConflict{
		DetectedAtEventID: detectedAtEventID,
		Type:              conflictType,
		ConflictData:      conflictData,
		ResolutionStrategy: strategy,
	}, nil
}
