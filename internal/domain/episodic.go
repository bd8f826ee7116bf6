package domain

import (
	"time"

	apperrors "memorycore/pkg/errors"
)

// EpisodicEventType classifies the statement that produced an
// EpisodicMemory; only statement/correction (and explicit_preference,
// carried from teacher's classification granularity) proceed to semantic
// extraction (§4.C6).
type EpisodicEventType string

const (
	EventTypeQuestion           EpisodicEventType = "question"
	EventTypeStatement          EpisodicEventType = "statement"
	EventTypeCommand            EpisodicEventType = "command"
	EventTypeCorrection         EpisodicEventType = "correction"
	EventTypeConfirmation       EpisodicEventType = "confirmation"
	EventTypeExplicitPreference EpisodicEventType = "explicit_preference"
)

// EligibleForExtraction reports whether Semantic Extractor should run on an
// event of this type (§4.C6 step 1).
func (t EpisodicEventType) EligibleForExtraction() bool {
	switch t {
	case EventTypeStatement, EventTypeCorrection, EventTypeExplicitPreference:
		return true
	}
	return false
}

// EntityMentionSpan is one occurrence of an entity mention inside an
// episodic memory's source text.
type EntityMentionSpan struct {
	Text          string
	Offset        int
	IsCoreference bool
}

// InlineEntityMention groups every mention of one resolved entity inside a
// single episodic memory.
type InlineEntityMention struct {
	EntityID string
	Name     string
	Type     EntityType
	Mentions []EntityMentionSpan
}

// EpisodicMemory is a per-turn summary of what happened, with pointers back
// to the raw ChatEvents it was derived from.
type EpisodicMemory struct {
	ID               int64
	UserID           string
	SessionID        string
	Summary          string
	EventType        EpisodicEventType
	SourceEventIDs   []int64
	EntityMentions   []InlineEntityMention
	DomainFactsRef   map[string]any
	Importance       float64
	Vector           []float32
	CreatedAt        time.Time
}

// NewEpisodicMemory validates and constructs an EpisodicMemory.
func NewEpisodicMemory(userID, sessionID, summary string, eventType EpisodicEventType, sourceEventIDs []int64, importance float64) (EpisodicMemory, error) {
	if userID == "" || sessionID == "" {
		return EpisodicMemory{}, apperrors.NewValidation("episodic memory: user id and session id required")
	}
	if summary == "" {
		return EpisodicMemory{}, apperrors.NewValidation("episodic memory: summary required")
	}
	if importance < 0 || importance > 1 {
		return EpisodicMemory{}, apperrors.NewValidation("episodic memory: importance out of [0,1]")
	}
	return EpisodicMemory{
		UserID:         userID,
		SessionID:      sessionID,
		Summary:        summary,
		EventType:      eventType,
		SourceEventIDs: sourceEventIDs,
		Importance:     importance,
	}, nil
}
