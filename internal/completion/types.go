package completion

import "time"

// CoreferenceCandidate is one resolvable entity offered to the Completer
// for pronoun/definite-description resolution, ordered by recency by the
// caller before the request is built.
type CoreferenceCandidate struct {
	EntityID        string
	CanonicalName   string
	EntityType      string
	LastMentionedAt time.Time
}

// CoreferenceRequest is the input to the coreference prompt.
type CoreferenceRequest struct {
	Mention        string
	Candidates     []CoreferenceCandidate
	RecentMessages []string
}

// CoreferenceResponse is the parsed coreference prompt output.
type CoreferenceResponse struct {
	EntityID   *string `json:"entity_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ExtractionEntity is one resolved entity pinned into the triple
// extraction prompt.
type ExtractionEntity struct {
	EntityID string
	Name     string
	Type     string
}

// TripleExtractionRequest is the input to the triple extraction prompt.
type TripleExtractionRequest struct {
	Text      string
	Entities  []ExtractionEntity
	EventType string
}

// ExtractedObjectValue mirrors domain.ObjectValue's wire shape without
// importing internal/domain, keeping this package dependency-free of the
// data model (the caller, internal/semantic, maps it across).
type ExtractedObjectValue struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// ExtractedTriple is one row of the triple extraction prompt's JSON array.
type ExtractedTriple struct {
	SubjectEntityID   *string               `json:"subject_entity_id"`
	Predicate         string                `json:"predicate"`
	PredicateType     string                `json:"predicate_type"`
	ObjectValue       ExtractedObjectValue  `json:"object_value"`
	Confidence        float64               `json:"confidence"`
	ConfidenceFactors map[string]float64    `json:"confidence_factors"`
}
