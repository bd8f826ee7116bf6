// Package storepg implements internal/store.Store against Postgres using
// gorm and pgvector, reinterpreting the teacher's single-table DynamoDB
// design (internal/repository/ddb/repository.go) as ordinary relational
// rows: one table per memory kind instead of one item-shaped table keyed
// by a PK/SK composite, with gorm tags taking the place of dynamodbav
// tags and a real transaction taking the place of TransactWriteItems.
package storepg

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type chatEventRow struct {
	ID          int64 `gorm:"primaryKey"`
	SessionID   string `gorm:"index:idx_chat_session_created"`
	UserID      string
	Role        string
	Content     string
	ContentHash string `gorm:"uniqueIndex:idx_chat_session_hash"`
	SessionIDForHash string `gorm:"column:session_id_for_hash;uniqueIndex:idx_chat_session_hash"`
	Metadata    JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time `gorm:"index:idx_chat_session_created"`
}

func (chatEventRow) TableName() string { return "app.chat_events" }

type canonicalEntityRow struct {
	ID            string `gorm:"primaryKey"`
	Type          string `gorm:"index"`
	CanonicalName string `gorm:"uniqueIndex:idx_entity_canonical_name"`
	SourceTable   string
	SourceID      string `gorm:"uniqueIndex:idx_entity_external_ref"`
	Properties    JSONMap `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (canonicalEntityRow) TableName() string { return "app.canonical_entities" }

type entityAliasRow struct {
	ID          int64 `gorm:"primaryKey"`
	AliasText   string `gorm:"index:idx_alias_trgm"`
	CanonicalID string `gorm:"index"`
	Source      string
	UserID      *string
	Confidence  float64
	UseCount    int
	Metadata    JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time
}

func (entityAliasRow) TableName() string { return "app.entity_aliases" }

type semanticMemoryRow struct {
	ID                   int64 `gorm:"primaryKey"`
	UserID               string `gorm:"index:idx_semantic_user_status"`
	SubjectEntityID      *string `gorm:"index"`
	Predicate            string `gorm:"index"`
	PredicateType        string
	ObjectValue          JSONMap `gorm:"type:jsonb"`
	Confidence           float64
	ConfidenceFactors    JSONMap `gorm:"type:jsonb"`
	ReinforcementCount   int
	LastValidatedAt      *time.Time
	SourceType           string
	SourceMemoryID       *int64
	ExtractedFromEventID *int64
	Status               string `gorm:"index:idx_semantic_user_status"`
	SupersededBy         *int64
	Vector               pgvector.Vector `gorm:"type:vector(1536)"`
	Importance           float64
	CreatedAt            time.Time
	UpdatedAt            time.Time `gorm:"index:idx_semantic_user_status"`
}

func (semanticMemoryRow) TableName() string { return "app.semantic_memories" }

type episodicMemoryRow struct {
	ID             int64 `gorm:"primaryKey"`
	UserID         string `gorm:"index"`
	SessionID      string `gorm:"index"`
	Summary        string
	EventType      string
	SourceEventIDs Int64Slice `gorm:"type:jsonb"`
	EntityMentions JSONMap    `gorm:"type:jsonb"`
	DomainFactsRef JSONMap    `gorm:"type:jsonb"`
	Importance     float64
	Vector         pgvector.Vector `gorm:"type:vector(1536)"`
	CreatedAt      time.Time
}

func (episodicMemoryRow) TableName() string { return "app.episodic_memories" }

type proceduralMemoryRow struct {
	ID              int64 `gorm:"primaryKey"`
	UserID          string `gorm:"index"`
	TriggerPattern  string
	TriggerFeatures JSONMap `gorm:"type:jsonb"`
	ActionHeuristic string
	ActionStructure JSONMap `gorm:"type:jsonb"`
	ObservedCount   int
	Confidence      float64
	Vector          pgvector.Vector `gorm:"type:vector(1536)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (proceduralMemoryRow) TableName() string { return "app.procedural_memories" }

type memorySummaryRow struct {
	ID                   int64 `gorm:"primaryKey"`
	UserID               string `gorm:"index"`
	ScopeType            string
	ScopeID              string `gorm:"index"`
	SummaryText          string
	KeyFacts             JSONMap `gorm:"type:jsonb"`
	SourceItemIDs        Int64Slice `gorm:"type:jsonb"`
	SourceStartedAt      time.Time
	SourceEndedAt        time.Time
	PredecessorSummaryID *int64
	Confidence           float64
	Vector               pgvector.Vector `gorm:"type:vector(1536)"`
	CreatedAt            time.Time
}

func (memorySummaryRow) TableName() string { return "app.memory_summaries" }

type memoryConflictRow struct {
	ID                 int64 `gorm:"primaryKey"`
	DetectedAtEventID  int64 `gorm:"index"`
	Type               string
	ConflictData       JSONMap `gorm:"type:jsonb"`
	ResolutionStrategy string
	ResolutionOutcome  JSONMap `gorm:"type:jsonb"`
	ResolvedAt         *time.Time
	CreatedAt          time.Time
}

func (memoryConflictRow) TableName() string { return "app.memory_conflicts" }

type ontologyEdgeRow struct {
	ID           int64 `gorm:"primaryKey"`
	FromType     string `gorm:"uniqueIndex:idx_ontology_edge"`
	RelationType string `gorm:"uniqueIndex:idx_ontology_edge"`
	ToType       string `gorm:"uniqueIndex:idx_ontology_edge"`
	Cardinality  string
	Semantics    string
	FromTable    string
	ToTable      string
	JoinOn       string
	Constraints  JSONMap `gorm:"type:jsonb"`
}

func (ontologyEdgeRow) TableName() string { return "app.domain_ontology_edges" }

type systemConfigRow struct {
	Key       string `gorm:"primaryKey"`
	Value     JSONMap `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (systemConfigRow) TableName() string { return "app.system_config" }
