package domain

import apperrors "memorycore/pkg/errors"

// PredicateType is a closed enum, per the Open Question decision to prefer
// teacher's typed-enum style over a free string for persisted domain values.
type PredicateType string

const (
	PredicateTypePreference  PredicateType = "preference"
	PredicateTypeRequirement PredicateType = "requirement"
	PredicateTypeObservation PredicateType = "observation"
	PredicateTypePolicy      PredicateType = "policy"
	PredicateTypeAttribute   PredicateType = "attribute"
)

func (p PredicateType) Valid() bool {
	switch p {
	case PredicateTypePreference, PredicateTypeRequirement, PredicateTypeObservation, PredicateTypePolicy, PredicateTypeAttribute:
		return true
	}
	return false
}

// ValidatePredicateType returns a Validation error for anything outside the
// closed enum; the Store re-checks this on write as a second line of
// defense against callers that bypass the domain constructors.
func ValidatePredicateType(p PredicateType) error {
	if !p.Valid() {
		return apperrors.NewValidation("predicate_type: unknown value " + string(p))
	}
	return nil
}
