package domain

import (
	"time"

	apperrors "memorycore/pkg/errors"
)

// MaxConfidence is the ceiling invariant (i) from §3: stored confidence on a
// SemanticMemory, ProceduralMemory, or MemorySummary never exceeds this.
const MaxConfidence = 0.95

// SemanticSourceType records how a SemanticMemory came to exist.
type SemanticSourceType string

const (
	SemanticSourceEpisodic     SemanticSourceType = "episodic"
	SemanticSourceConsolidation SemanticSourceType = "consolidation"
	SemanticSourceInference    SemanticSourceType = "inference"
	SemanticSourceCorrection   SemanticSourceType = "correction"
)

// SemanticMemory is the SPO fact described in §3. SubjectEntityID is
// nullable because some predicates describe the user rather than a
// resolved business entity. SupersededBy is set only when Status is
// StatusSuperseded (invariant (iii)).
type SemanticMemory struct {
	ID                int64
	UserID            string
	SubjectEntityID   *string
	Predicate         string
	PredicateType     PredicateType
	ObjectValue       ObjectValue
	Confidence        float64
	ConfidenceFactors map[string]float64
	ReinforcementCount int
	LastValidatedAt   *time.Time
	SourceType        SemanticSourceType
	SourceMemoryID    *int64
	ExtractedFromEventID *int64
	Status            MemoryStatus
	SupersededBy      *int64
	Vector            []float32
	Importance        float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewSemanticMemory validates and constructs a SemanticMemory in the
// active status with ReinforcementCount=1, per the data model's "≥ 1"
// invariant on first creation.
func NewSemanticMemory(userID string, subjectEntityID *string, predicate string, predicateType PredicateType, object ObjectValue, confidence float64, sourceType SemanticSourceType, sourceMemoryID, extractedFromEventID *int64) (SemanticMemory, error) {
	if userID == "" {
		return SemanticMemory{}, apperrors.NewValidation("semantic memory: user id required")
	}
	if predicate == "" {
		return SemanticMemory{}, apperrors.NewValidation("semantic memory: predicate required")
	}
	if err := ValidatePredicateType(predicateType); err != nil {
		return SemanticMemory{}, err
	}
	if confidence <= 0 || confidence > MaxConfidence {
		return SemanticMemory{}, apperrors.NewValidation("semantic memory: confidence out of (0, 0.95]")
	}
	return SemanticMemory{
		UserID:             userID,
		SubjectEntityID:    subjectEntityID,
		Predicate:          predicate,
		PredicateType:      predicateType,
		ObjectValue:        object,
		Confidence:         confidence,
		ConfidenceFactors:  map[string]float64{},
		ReinforcementCount: 1,
		SourceType:         sourceType,
		SourceMemoryID:     sourceMemoryID,
		ExtractedFromEventID: extractedFromEventID,
		Status:             StatusActive,
		Importance:         0.5,
	}, nil
}

// ValidateVectorDimension enforces the fixed-dimension invariant shared by
// every vector column (SemanticMemory, EpisodicMemory, ProceduralMemory,
// MemorySummary).
func ValidateVectorDimension(vec []float32, dimension int) error {
	if len(vec) != dimension {
		return apperrors.NewValidation("vector: expected dimension does not match stored vector")
	}
	return nil
}
