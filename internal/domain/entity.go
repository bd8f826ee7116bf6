package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "memorycore/pkg/errors"
)

// EntityType is an open enum: the set of known values below is the common
// case, but domain augmentation may encounter types not listed here, so
// validation only requires non-empty, lower_snake_case text.
type EntityType string

const (
	EntityTypeCustomer  EntityType = "customer"
	EntityTypeOrder     EntityType = "order"
	EntityTypeInvoice   EntityType = "invoice"
	EntityTypeWorkOrder EntityType = "work_order"
	EntityTypeTask      EntityType = "task"
	EntityTypePerson    EntityType = "person"
	EntityTypeLocation  EntityType = "location"
)

// ExternalRef points at the row in the read-only domain database that a
// CanonicalEntity was minted from.
type ExternalRef struct {
	SourceTable string
	SourceID    string
}

func (r ExternalRef) IsZero() bool {
	return r.SourceTable == "" && r.SourceID == ""
}

// CanonicalEntity is a stable, system-assigned identity for a real-world
// business object. ID has the form "{type}:{opaque}".
type CanonicalEntity struct {
	ID           string
	Type         EntityType
	CanonicalName string
	ExternalRef  ExternalRef
	Properties   map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewEntityID builds the "{type}:{opaque}" identifier form the spec requires.
func NewEntityID(entityType EntityType, opaque string) string {
	return fmt.Sprintf("%s:%s", entityType, opaque)
}

// ParseEntityType splits an entity id back into its type prefix, for callers
// (e.g. the fuzzy/domain_db resolver stages) that only have the id.
func ParseEntityType(entityID string) (EntityType, bool) {
	idx := strings.IndexByte(entityID, ':')
	if idx <= 0 {
		return "", false
	}
	return EntityType(entityID[:idx]), true
}

// NewCanonicalEntity validates and constructs a CanonicalEntity. ID is
// expected to already be minted by the caller (Entity Resolver / Domain
// Augmenter own id assignment so they can use an existing external id when
// one is available).
func NewCanonicalEntity(id string, entityType EntityType, canonicalName string, ref ExternalRef, properties map[string]any) (CanonicalEntity, error) {
	if id == "" {
		return CanonicalEntity{}, apperrors.NewValidation("entity: id required")
	}
	if entityType == "" {
		return CanonicalEntity{}, apperrors.NewValidation("entity: type required")
	}
	if canonicalName == "" {
		return CanonicalEntity{}, apperrors.NewValidation("entity: canonical name required")
	}
	return CanonicalEntity{
		ID:            id,
		Type:          entityType,
		CanonicalName: canonicalName,
		ExternalRef:   ref,
		Properties:    properties,
	}, nil
}
