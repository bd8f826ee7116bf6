package domain

import "time"

// SystemConfigEntry is one key -> typed JSON value row in the app
// namespace. Recognized keys are listed in internal/config.
type SystemConfigEntry struct {
	Key       string
	Value     any
	UpdatedAt time.Time
}

// DomainFact is transient: it is never persisted, only emitted by the
// Domain Augmenter for inclusion in a TurnResult/ReplyContext.
type DomainFact struct {
	FactType    string
	EntityID    string
	Content     string
	Metadata    map[string]any
	SourceTable string
	SourceRows  []string
	RetrievedAt time.Time
}

// NewDomainFact constructs a DomainFact; RetrievedAt is stamped by the
// caller (Domain Augmenter) at emission time.
func NewDomainFact(factType, entityID, content string, metadata map[string]any, sourceTable string, sourceRows []string, retrievedAt time.Time) DomainFact {
	return DomainFact{
		FactType:    factType,
		EntityID:    entityID,
		Content:     content,
		Metadata:    metadata,
		SourceTable: sourceTable,
		SourceRows:  sourceRows,
		RetrievedAt: retrievedAt,
	}
}
