package retrieval

import "math"

const mmrLambda = 0.7
const mmrSkipAboveScore = 0.9

// selectDiverse applies maximal-marginal-relevance over ranked, skipping
// straight to a score-ordered take when the top candidate is already
// decisive (§4.C9 "skip MMR when top score > 0.9").
func selectDiverse(ranked []Candidate, topK int) []Candidate {
	if len(ranked) <= topK {
		return ranked
	}
	if ranked[0].Score > mmrSkipAboveScore {
		return ranked[:topK]
	}

	selected := make([]Candidate, 0, topK)
	remaining := make([]Candidate, len(ranked))
	copy(remaining, ranked)

	selected = append(selected, remaining[0])
	remaining = remaining[1:]

	for len(selected) < topK && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := 0.0
			for _, s := range selected {
				sim := 1 - cosineDistance(cand.Vector, s.Vector)
				if sim > maxSim {
					maxSim = sim
				}
			}
			mmr := mmrLambda*cand.Score - (1-mmrLambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}
