// Package lifecycle implements Memory Lifecycle (C8): the reinforcement
// formula, passive decay applied at read time, and the virtual "aging"
// status. No teacher equivalent exists (Brain2 never decays confidence);
// grounded on the Design Notes' instruction to compute decay/aging rather
// than store it, so this package is pure arithmetic over time.Time and
// float64 with no collaborator dependencies beyond the Store write that
// persists a reinforcement.
package lifecycle

import (
	"context"
	"math"
	"time"

	"memorycore/internal/domain"
	"memorycore/internal/store"
)

// Config holds the tunables named in §4.C8; its values come from
// DefaultConfig() or the caller, not from SystemConfig.
type Config struct {
	ReinforcementBoost     float64 // default 0.05
	DecayRatePerDay        float64 // default 0.0115 (half-life ~60 days)
	AgingThresholdDays     float64 // default 90
	AgingMaxReinforcements int     // default 2
}

// DefaultConfig returns the defaults named in §4.C8.
func DefaultConfig() Config {
	return Config{
		ReinforcementBoost:     0.05,
		DecayRatePerDay:        0.0115,
		AgingThresholdDays:     90,
		AgingMaxReinforcements: 2,
	}
}

// Lifecycle applies the reinforcement/decay/aging rules against a Store.
type Lifecycle struct {
	cfg Config
}

// New builds a Lifecycle with the given tunables.
func New(cfg Config) *Lifecycle {
	return &Lifecycle{cfg: cfg}
}

// ReinforceConfidence applies the diminishing-returns boost formula:
// c' = min(0.95, c + b * (0.95 - c) / 0.95).
func ReinforceConfidence(c, boost float64) float64 {
	c2 := c + boost*(domain.MaxConfidence-c)/domain.MaxConfidence
	if c2 > domain.MaxConfidence {
		return domain.MaxConfidence
	}
	return c2
}

// AgeDays reports how many days have elapsed since reference, clamped to
// non-negative (a reference in the future, e.g. clock skew, yields 0).
func AgeDays(reference, now time.Time) float64 {
	d := now.Sub(reference).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// EffectiveConfidence computes c_eff = c * exp(-age_days * r), clamped to
// [0, 0.95]. It is never persisted; callers compute it fresh on every read.
func EffectiveConfidence(c float64, lastValidatedOrCreated, now time.Time, ratePerDay float64) float64 {
	age := AgeDays(lastValidatedOrCreated, now)
	eff := c * math.Exp(-age*ratePerDay)
	switch {
	case eff < 0:
		return 0
	case eff > domain.MaxConfidence:
		return domain.MaxConfidence
	default:
		return eff
	}
}

// EffectiveStatus returns StatusAging in place of StatusActive once a
// memory has gone stale without enough reinforcement, per §4.C8; every
// other stored status passes through unchanged.
func (l *Lifecycle) EffectiveStatus(status domain.MemoryStatus, ageDays float64, reinforcementCount int) domain.MemoryStatus {
	if status == domain.StatusActive && ageDays > l.cfg.AgingThresholdDays && reinforcementCount < l.cfg.AgingMaxReinforcements {
		return domain.StatusAging
	}
	return status
}

// ReferenceTime picks the timestamp decay/aging is measured from: the most
// recent of last_validated_at or created_at.
func ReferenceTime(m domain.SemanticMemory) time.Time {
	if m.LastValidatedAt != nil {
		return *m.LastValidatedAt
	}
	return m.CreatedAt
}

// Reinforce applies the boost formula to an existing SemanticMemory,
// persists it via Store.Reinforce, and returns the updated in-memory copy.
// Called by the Conflict Detector when an incoming triple restates an
// existing active memory's value (§4.C7's memory_vs_memory reinforcement
// branch).
func (l *Lifecycle) Reinforce(ctx context.Context, uow store.UnitOfWork, m domain.SemanticMemory) (domain.SemanticMemory, error) {
	now := time.Now().UTC()
	newConfidence := ReinforceConfidence(m.Confidence, l.cfg.ReinforcementBoost)
	if err := uow.Reinforce(ctx, m.ID, newConfidence, now); err != nil {
		return m, err
	}
	m.Confidence = newConfidence
	m.ReinforcementCount++
	m.LastValidatedAt = &now
	if m.ConfidenceFactors == nil {
		m.ConfidenceFactors = map[string]float64{}
	}
	m.ConfidenceFactors["reinforcement"]++
	return m, nil
}
