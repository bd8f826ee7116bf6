// Package conflict implements the Conflict Detector (C7): compares an
// incoming semantic triple against whatever history already exists for the
// same (user, subject, predicate), and against the read-only domain
// database, deciding reinforcement, supersession, invalidation, or a
// user-facing disagreement. Grounded on teacher's
// internal/domain/services/connection_analyzer.go comparison-and-
// classification shape (a stateless domain service scoring candidates
// against fixed thresholds), adapted here to value-equality and strategy
// selection instead of similarity scoring.
package conflict

import (
	"context"
	"fmt"
	"time"

	"memorycore/internal/domain"
	"memorycore/internal/lifecycle"
	"memorycore/internal/semantic"
	"memorycore/internal/store"
	apperrors "memorycore/pkg/errors"
)

// DomainFactLookup names the domain table/columns the memory_vs_db check
// queries for a given predicate's authoritative value.
type DomainFactLookup struct {
	Table       string
	LinkColumn  string // column matching the subject entity's ExternalRef.SourceID
	ValueColumn string
}

// Config holds the thresholds named in §4.C7.
type Config struct {
	TrustRecentConfidenceGap float64 // default 0.10
	StaleDays                float64 // default 60
	StaleMaxReinforcements   int     // default 2
	HigherConfidenceGap      float64 // default 0.30
	DomainFactLookups        map[string]DomainFactLookup
}

// DefaultConfig returns the defaults named in §4.C7.
func DefaultConfig() Config {
	return Config{
		TrustRecentConfidenceGap: 0.10,
		StaleDays:                60,
		StaleMaxReinforcements:   2,
		HigherConfidenceGap:      0.30,
	}
}

// Detector implements semantic.ConflictDetector.
type Detector struct {
	lifecycle *lifecycle.Lifecycle
	cfg       Config
}

// New builds a Detector.
func New(lc *lifecycle.Lifecycle, cfg Config) *Detector {
	return &Detector{lifecycle: lc, cfg: cfg}
}

var _ semantic.ConflictDetector = (*Detector)(nil)

// Evaluate runs the memory_vs_memory, temporal, and memory_vs_db checks in
// sequence, returning whether candidate should be persisted as a new row.
func (d *Detector) Evaluate(ctx context.Context, uow store.UnitOfWork, candidate domain.SemanticMemory) (semantic.ConflictOutcome, error) {
	history, err := uow.ListSemanticHistory(ctx, candidate.SubjectEntityID, candidate.Predicate, candidate.UserID)
	if err != nil {
		return semantic.ConflictOutcome{}, apperrors.Wrap(err, "conflict: list history")
	}

	var active *domain.SemanticMemory
	for i := range history {
		if history[i].Status == domain.StatusActive {
			active = &history[i]
			break
		}
	}

	reinforces := active != nil && domain.ValueEqual(active.ObjectValue, candidate.ObjectValue)

	var outcome semantic.ConflictOutcome
	switch {
	case reinforces:
		outcome, err = d.reinforceExisting(ctx, uow, *active)
	default:
		if o, handled, terr := d.evaluateTemporal(ctx, uow, candidate, history); terr != nil {
			return semantic.ConflictOutcome{}, terr
		} else if handled {
			outcome = o
		} else {
			outcome, err = d.evaluateMemoryVsMemory(ctx, uow, candidate, active)
		}
	}
	if err != nil {
		return semantic.ConflictOutcome{}, err
	}

	finalOutcome, err := d.evaluateMemoryVsDB(ctx, uow, candidate, active, outcome)
	if err != nil {
		return semantic.ConflictOutcome{}, err
	}
	return finalOutcome, nil
}

// reinforceExisting handles the memory_vs_memory reinforcement case: the
// incoming triple restates the current active value exactly.
func (d *Detector) reinforceExisting(ctx context.Context, uow store.UnitOfWork, active domain.SemanticMemory) (semantic.ConflictOutcome, error) {
	reinforced, err := d.lifecycle.Reinforce(ctx, uow, active)
	if err != nil {
		return semantic.ConflictOutcome{}, apperrors.Wrap(err, "conflict: reinforce")
	}
	return semantic.ConflictOutcome{Accept: false, Reason: fmt.Sprintf("reinforced existing semantic memory %d", reinforced.ID)}, nil
}

// evaluateMemoryVsMemory implements §4.C7's memory_vs_memory disagreement
// branch, reached once reinforcement and temporal restatement have both
// been ruled out. When active is nil (no existing row for this predicate
// at all) it returns the default accept-as-new-row outcome.
func (d *Detector) evaluateMemoryVsMemory(ctx context.Context, uow store.UnitOfWork, t domain.SemanticMemory, active *domain.SemanticMemory) (semantic.ConflictOutcome, error) {
	if active == nil {
		return semantic.ConflictOutcome{Accept: true}, nil
	}

	strategy := d.decideStrategy(t, *active)
	if err := d.recordConflict(ctx, uow, domain.ConflictMemoryVsMemory, t, active, strategy); err != nil {
		return semantic.ConflictOutcome{}, err
	}

	switch strategy {
	case domain.StrategyTrustRecent:
		id := active.ID
		return semantic.ConflictOutcome{Accept: true, SupersedesID: &id, Reason: "superseded stale or lower-confidence memory"}, nil
	case domain.StrategyTrustHigherConfidence:
		if t.Confidence > active.Confidence {
			id := active.ID
			return semantic.ConflictOutcome{Accept: true, SupersedesID: &id, Reason: "superseded lower-confidence memory"}, nil
		}
		return semantic.ConflictOutcome{Accept: false, Reason: "rejected in favor of higher-confidence existing memory"}, nil
	default: // StrategyAskUser
		return semantic.ConflictOutcome{Accept: true, Reason: "kept both active pending user disambiguation"}, nil
	}
}

// decideStrategy applies the ordered rules in §4.C7's memory_vs_memory
// branch: the first matching rule wins.
func (d *Detector) decideStrategy(t, e domain.SemanticMemory) domain.ResolutionStrategy {
	if t.Confidence >= e.Confidence+d.cfg.TrustRecentConfidenceGap {
		return domain.StrategyTrustRecent
	}
	daysSince := lifecycle.AgeDays(lifecycle.ReferenceTime(e), time.Now().UTC())
	if daysSince > d.cfg.StaleDays && e.ReinforcementCount < d.cfg.StaleMaxReinforcements {
		return domain.StrategyTrustRecent
	}
	gap := t.Confidence - e.Confidence
	if gap < 0 {
		gap = -gap
	}
	if gap > d.cfg.HigherConfidenceGap {
		return domain.StrategyTrustHigherConfidence
	}
	return domain.StrategyAskUser
}

// evaluateTemporal implements §4.C7's temporal case: t restates a value
// some already-superseded or already-invalidated row once held. The
// caller only reaches this once reinforcement against the current active
// row has been ruled out, so a match here means t is stale, not a fresh
// disagreement — reject it and keep whatever the newest row currently
// holds rather than running it through the memory_vs_memory strategy
// rules.
func (d *Detector) evaluateTemporal(ctx context.Context, uow store.UnitOfWork, t domain.SemanticMemory, history []domain.SemanticMemory) (semantic.ConflictOutcome, bool, error) {
	var restated *domain.SemanticMemory
	for i := range history {
		if history[i].Status != domain.StatusSuperseded && history[i].Status != domain.StatusInvalidated {
			continue
		}
		if domain.ValueEqual(history[i].ObjectValue, t.ObjectValue) {
			row := history[i]
			restated = &row
			break
		}
	}
	if restated == nil {
		return semantic.ConflictOutcome{}, false, nil
	}
	if err := d.recordConflict(ctx, uow, domain.ConflictTemporal, t, restated, domain.StrategyTrustRecent); err != nil {
		return semantic.ConflictOutcome{}, false, err
	}
	return semantic.ConflictOutcome{Accept: false, Reason: "restates a superseded value; keeping the newer state"}, true, nil
}

// evaluateMemoryVsDB implements §4.C7's memory_vs_db branch: the read-only
// domain database is always authoritative when a mapping for this
// predicate exists.
func (d *Detector) evaluateMemoryVsDB(ctx context.Context, uow store.UnitOfWork, t domain.SemanticMemory, active *domain.SemanticMemory, prior semantic.ConflictOutcome) (semantic.ConflictOutcome, error) {
	lookup, ok := d.cfg.DomainFactLookups[t.Predicate]
	if !ok || t.SubjectEntityID == nil {
		return prior, nil
	}
	entity, found, err := uow.GetEntityByID(ctx, *t.SubjectEntityID)
	if err != nil {
		return semantic.ConflictOutcome{}, apperrors.Wrap(err, "conflict: subject entity lookup")
	}
	if !found || entity.ExternalRef.IsZero() {
		return prior, nil
	}
	rows, err := uow.DomainQuery(ctx, lookup.Table,
		[]store.EntityFilter{{Column: lookup.LinkColumn, Op: "=", Value: entity.ExternalRef.SourceID}},
		[]string{lookup.ValueColumn}, 1)
	if err != nil {
		return semantic.ConflictOutcome{}, apperrors.Wrap(err, "conflict: domain db lookup")
	}
	if len(rows) == 0 {
		return prior, nil
	}
	dbValue, err := domain.NewObjectValue(t.ObjectValue.Type, rows[0][lookup.ValueColumn], t.ObjectValue.Unit)
	if err != nil {
		return prior, nil // DB value doesn't fit the triple's value shape; skip the check rather than fail the turn
	}

	if !domain.ValueEqual(dbValue, t.ObjectValue) {
		if err := d.recordConflict(ctx, uow, domain.ConflictMemoryVsDB, t, active, domain.StrategyTrustDB); err != nil {
			return semantic.ConflictOutcome{}, err
		}
		return semantic.ConflictOutcome{Accept: false, Reason: "rejected: contradicts domain database"}, nil
	}
	if active != nil && !domain.ValueEqual(dbValue, active.ObjectValue) {
		if err := uow.SetStatus(ctx, active.ID, domain.StatusInvalidated); err != nil {
			return semantic.ConflictOutcome{}, apperrors.Wrap(err, "conflict: invalidate contradicted memory")
		}
		if err := d.recordConflict(ctx, uow, domain.ConflictMemoryVsDB, t, active, domain.StrategyTrustDB); err != nil {
			return semantic.ConflictOutcome{}, err
		}
		return semantic.ConflictOutcome{Accept: true, Reason: "existing memory invalidated: contradicted domain database"}, nil
	}
	return prior, nil
}

// recordConflict is a no-op when t carries no triggering event id (the
// caller built the candidate outside the normal chat-event-driven path);
// every Turn Orchestrator-driven call supplies one.
func (d *Detector) recordConflict(ctx context.Context, uow store.UnitOfWork, conflictType domain.ConflictType, t domain.SemanticMemory, existing *domain.SemanticMemory, strategy domain.ResolutionStrategy) error {
	if t.ExtractedFromEventID == nil {
		return nil
	}
	data := map[string]any{
		"predicate":      t.Predicate,
		"new_value":      t.ObjectValue,
		"new_confidence": t.Confidence,
	}
	if existing != nil {
		data["existing_memory_id"] = existing.ID
		data["existing_value"] = existing.ObjectValue
		data["existing_confidence"] = existing.Confidence
	}
	c, err := domain.NewMemoryConflict(*t.ExtractedFromEventID, conflictType, data, strategy)
	if err != nil {
		return apperrors.Wrap(err, "conflict: build record")
	}
	if _, err := uow.RecordConflict(ctx, c); err != nil {
		return apperrors.Wrap(err, "conflict: record")
	}
	return nil
}
