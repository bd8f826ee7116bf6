package retrieval

import "sort"

// estimateTokens uses the ~(length/4) rule of thumb named in §4.C9.
func estimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}

// packToBudget orders summaries first, then the remaining candidates by
// score, stopping once the token budget would be exceeded. Summaries keep
// the order they arrive in.
func packToBudget(candidates []Candidate, budget int) ([]Candidate, int) {
	summaries := make([]Candidate, 0, len(candidates))
	others := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.IsSummary {
			summaries = append(summaries, c)
		} else {
			others = append(others, c)
		}
	}
	sort.SliceStable(others, func(i, j int) bool { return others[i].Score > others[j].Score })
	ordered := append(summaries, others...)

	packed := make([]Candidate, 0, len(ordered))
	used := 0
	for _, c := range ordered {
		cost := estimateTokens(c.Text)
		if used+cost > budget && len(packed) > 0 {
			break
		}
		packed = append(packed, c)
		used += cost
	}
	return packed, used
}
