package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"memorycore/internal/domain"
)

func TestReinforceConfidenceDiminishingReturns(t *testing.T) {
	c := ReinforceConfidence(0.5, 0.05)
	assert.InDelta(t, 0.5+0.05*(0.95-0.5)/0.95, c, 1e-9)
	assert.LessOrEqual(t, c, domain.MaxConfidence)
}

func TestReinforceConfidenceNeverExceedsCeiling(t *testing.T) {
	c := ReinforceConfidence(0.94, 0.5)
	assert.Equal(t, domain.MaxConfidence, c)
}

func TestEffectiveConfidenceDecaysWithAge(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fresh := EffectiveConfidence(0.9, now, now, 0.0115)
	assert.InDelta(t, 0.9, fresh, 1e-9)

	aged := EffectiveConfidence(0.9, now.AddDate(0, 0, -60), now, 0.0115)
	assert.Less(t, aged, 0.9*0.51)
	assert.Greater(t, aged, 0.9*0.49)
}

func TestEffectiveStatusTransitionsToAging(t *testing.T) {
	l := New(DefaultConfig())
	assert.Equal(t, domain.StatusAging, l.EffectiveStatus(domain.StatusActive, 120, 1))
	assert.Equal(t, domain.StatusActive, l.EffectiveStatus(domain.StatusActive, 120, 2))
	assert.Equal(t, domain.StatusActive, l.EffectiveStatus(domain.StatusActive, 30, 0))
	assert.Equal(t, domain.StatusSuperseded, l.EffectiveStatus(domain.StatusSuperseded, 200, 0))
}
