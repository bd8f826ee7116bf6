package retrieval

import (
	"strings"

	"github.com/orsinium-labs/stopwords"
)

var enStopwords = stopwords.MustGet("en")

// keywordTokens lowercases and splits text into non-stopword tokens. This
// powers the bidirectional keyword-overlap hint in episodic candidate
// generation: a cheap ordering pass over the vector kNN results, never a
// replacement for them. It never changes which memories are eligible, only
// the order candidates are listed in.
func keywordTokens(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == "" || enStopwords.Contains(f) {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

// keywordOverlap reports whether any non-stopword token in text appears in
// queryTokens.
func keywordOverlap(text string, queryTokens map[string]struct{}) bool {
	if len(queryTokens) == 0 {
		return true
	}
	for tok := range keywordTokens(text) {
		if _, ok := queryTokens[tok]; ok {
			return true
		}
	}
	return false
}
