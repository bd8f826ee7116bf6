package retrieval

import (
	"math"
	"time"

	"memorycore/internal/domain"
	"memorycore/internal/lifecycle"
)

// Weights is one strategy's signal weight table (§4.C9).
type Weights struct {
	Semantic      float64
	Entity        float64
	Recency       float64
	Importance    float64
	Reinforcement float64
}

var strategyWeights = map[Strategy]Weights{
	StrategyFactualEntityFocused: {Semantic: 0.25, Entity: 0.40, Recency: 0.20, Importance: 0.10, Reinforcement: 0.05},
	StrategyProcedural:           {Semantic: 0.45, Entity: 0.05, Recency: 0.05, Importance: 0.15, Reinforcement: 0.30},
	StrategyExploratory:          {Semantic: 0.35, Entity: 0.25, Recency: 0.15, Importance: 0.20, Reinforcement: 0.05},
	StrategyAnalytical:           {Semantic: 0.30, Entity: 0.15, Recency: 0.25, Importance: 0.25, Reinforcement: 0.05},
}

func weightsFor(s Strategy) Weights {
	if w, ok := strategyWeights[s]; ok {
		return w
	}
	return strategyWeights[StrategyExploratory]
}

const (
	episodicHalfLifeDays = 30.0
	defaultHalfLifeDays  = 90.0
	minScoreThreshold    = 0.3
	summaryScoreBoost    = 1.15
	agingScorePenalty    = 0.8
)

func halfLifeFor(kind domain.MemoryKind) float64 {
	if kind == domain.MemoryKindEpisodic {
		return episodicHalfLifeDays
	}
	return defaultHalfLifeDays
}

func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return 1 - cos
}

func entityOverlap(candidateEntities, queryEntities []string) float64 {
	if len(queryEntities) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(queryEntities))
	for _, id := range queryEntities {
		set[id] = struct{}{}
	}
	var hits int
	for _, id := range candidateEntities {
		if _, ok := set[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryEntities))
}

func recencyScore(ageDays, halfLifeDays float64) float64 {
	return math.Exp(-ageDays * math.Ln2 / halfLifeDays)
}

func reinforcementScore(count int, hasReinforcement bool) float64 {
	if !hasReinforcement {
		return 0.5
	}
	v := float64(count) / 5.0
	if v > 1 {
		v = 1
	}
	return v
}

// score computes the weighted-sum score for one candidate against a query
// under a strategy, applying the post-adjustments named in §4.C9.
// effConfidence is the already-decayed confidence (via lifecycle package)
// for kinds that carry one; pass nil for episodic.
func score(c Candidate, q Query, strategy Strategy, now time.Time, effConfidence *float64) (float64, map[string]float64) {
	w := weightsFor(strategy)

	semanticSig := 1 - cosineDistance(c.Vector, q.Embedding)
	entitySig := entityOverlap(c.EntityIDs, q.EntityIDs)
	ageDays := lifecycle.AgeDays(c.CreatedAt, now)
	recencySig := recencyScore(ageDays, halfLifeFor(c.Kind))
	importanceSig := c.Importance
	reinforcementSig := reinforcementScore(c.ReinforcementCount, c.Confidence != nil)

	raw := w.Semantic*semanticSig + w.Entity*entitySig + w.Recency*recencySig +
		w.Importance*importanceSig + w.Reinforcement*reinforcementSig

	final := raw
	if effConfidence != nil {
		final *= *effConfidence
	}
	if c.IsSummary {
		final *= summaryScoreBoost
	}
	if c.IsAging {
		final *= agingScorePenalty
	}

	breakdown := map[string]float64{
		"semantic":      semanticSig,
		"entity":        entitySig,
		"recency":       recencySig,
		"importance":    importanceSig,
		"reinforcement": reinforcementSig,
		"raw":           raw,
		"final":         final,
	}
	return final, breakdown
}
