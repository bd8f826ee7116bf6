package domain

import (
	"time"

	apperrors "memorycore/pkg/errors"
)

// ProceduralMemory captures a learned trigger -> action heuristic, e.g.
// "when the user asks about an overdue invoice, offer a payment plan".
type ProceduralMemory struct {
	ID               int64
	UserID           string
	TriggerPattern   string
	TriggerFeatures  map[string]any
	ActionHeuristic  string
	ActionStructure  map[string]any
	ObservedCount    int
	Confidence       float64
	Vector           []float32
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewProceduralMemory validates and constructs a ProceduralMemory with
// ObservedCount=1.
func NewProceduralMemory(userID, triggerPattern string, triggerFeatures map[string]any, actionHeuristic string, actionStructure map[string]any, confidence float64) (ProceduralMemory, error) {
	if userID == "" {
		return ProceduralMemory{}, apperrors.NewValidation("procedural memory: user id required")
	}
	if triggerPattern == "" || actionHeuristic == "" {
		return ProceduralMemory{}, apperrors.NewValidation("procedural memory: trigger and action required")
	}
	if confidence <= 0 || confidence > MaxConfidence {
		return ProceduralMemory{}, apperrors.NewValidation("procedural memory: confidence out of (0, 0.95]")
	}
	return ProceduralMemory{
		UserID:          userID,
		TriggerPattern:  triggerPattern,
		TriggerFeatures: triggerFeatures,
		ActionHeuristic: actionHeuristic,
		ActionStructure: actionStructure,
		ObservedCount:   1,
		Confidence:      confidence,
	}, nil
}
