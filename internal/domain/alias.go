package domain

import (
	"time"

	apperrors "memorycore/pkg/errors"
)

// AliasSource records which resolution stage learned an EntityAlias.
type AliasSource string

const (
	AliasSourceExact       AliasSource = "exact"
	AliasSourceFuzzy       AliasSource = "fuzzy"
	AliasSourceCoreference AliasSource = "coreference"
	AliasSourceUserStated  AliasSource = "user_stated"
	AliasSourceDomainDB    AliasSource = "domain_db"
)

// EntityAlias is a surface form that resolves to a CanonicalEntity. A nil
// UserID means the alias is global; uniqueness is on (AliasText, UserID,
// CanonicalID). Only the Entity Resolver mutates aliases.
type EntityAlias struct {
	ID              int64
	AliasText       string
	CanonicalID     string
	Source          AliasSource
	UserID          *string
	Confidence      float64
	UseCount        int
	Metadata        map[string]any
	CreatedAt       time.Time
}

// NewEntityAlias validates and constructs an EntityAlias with UseCount=1.
func NewEntityAlias(aliasText, canonicalID string, source AliasSource, userID *string, confidence float64, metadata map[string]any) (EntityAlias, error) {
	if aliasText == "" {
		return EntityAlias{}, apperrors.NewValidation("alias: text required")
	}
	if canonicalID == "" {
		return EntityAlias{}, apperrors.NewValidation("alias: canonical id required")
	}
	if confidence < 0 || confidence > 1 {
		return EntityAlias{}, apperrors.NewValidation("alias: confidence out of [0,1]")
	}
	return EntityAlias{
		AliasText:   aliasText,
		CanonicalID: canonicalID,
		Source:      source,
		UserID:      userID,
		Confidence:  confidence,
		UseCount:    1,
		Metadata:    metadata,
	}, nil
}

// IsGlobal reports whether the alias applies to every user.
func (a EntityAlias) IsGlobal() bool {
	return a.UserID == nil
}
