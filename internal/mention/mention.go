// Package mention implements the Mention Extractor (C4): a deterministic,
// external-call-free scan for name-like spans and coreference markers,
// grounded on the span-scanning/offset-mapping shape of
// KittClouds-Go-Machine-n's implicit-matcher package (teacher has no
// equivalent — Brain2 never extracts mentions from free text).
package mention

import (
	"regexp"
	"strings"

	"github.com/coregx/ahocorasick"
)

// Mention is one detected span in a message.
type Mention struct {
	Text                string
	Offset              int
	IsCoreferenceCandidate bool
}

// nameRun captures runs of capitalized-or-mixed-case tokens, allowing the
// interior punctuation real names carry ("AT&T", "Jean-Luc", "J.P. Corp").
// A run may span multiple space-separated capitalized words ("Kai Chen").
var nameRun = regexp.MustCompile(`\b[A-Z][A-Za-z0-9&.\-]*(?:\s+[A-Z][A-Za-z0-9&.\-]*)*\b`)

// coreferenceMarkers is the closed set of coreference candidates named in
// §4.C4. Matching is case-insensitive; the automaton is built once and
// reused across Extract calls.
var coreferenceMarkers = []string{
	"it", "they", "them", "this", "that",
	"the customer", "the order", "the invoice", "the account",
	"the work order", "the task", "the location", "he", "she", "him", "her",
}

var coreferenceAutomaton = mustBuildAutomaton(coreferenceMarkers)

func mustBuildAutomaton(patterns []string) *ahocorasick.Automaton {
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		panic("mention: failed to build coreference automaton: " + err.Error())
	}
	return automaton
}

// Extract scans text for name mentions and coreference candidates. It
// never calls external services and is O(n) in len(text).
func Extract(text string) []Mention {
	mentions := nameMentions(text)
	mentions = append(mentions, coreferenceMentions(text)...)
	return mentions
}

func nameMentions(text string) []Mention {
	locs := nameRun.FindAllStringIndex(text, -1)
	out := make([]Mention, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Mention{Text: text[loc[0]:loc[1]], Offset: loc[0]})
	}
	return out
}

// coreferenceMentions matches the closed marker set case-insensitively.
// Lowercasing ASCII text preserves byte offsets, which covers the marker
// set itself (all-ASCII); non-ASCII input outside a matched span does not
// affect offsets of ASCII matches.
func coreferenceMentions(text string) []Mention {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		// A rare non-ASCII case-folding length change; fall back to a
		// conservative per-word scan rather than risk a misaligned offset.
		return coreferenceMentionsFallback(text)
	}
	matches := coreferenceAutomaton.FindAllOverlapping([]byte(lower))
	out := make([]Mention, 0, len(matches))
	for _, m := range matches {
		if !isWordBoundary(text, m.Start, m.End) {
			continue
		}
		out = append(out, Mention{Text: text[m.Start:m.End], Offset: m.Start, IsCoreferenceCandidate: true})
	}
	return out
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 && isWordChar(text[start-1]) {
		return false
	}
	if end < len(text) && isWordChar(text[end]) {
		return false
	}
	return true
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func coreferenceMentionsFallback(text string) []Mention {
	markerSet := make(map[string]bool, len(coreferenceMarkers))
	for _, m := range coreferenceMarkers {
		markerSet[m] = true
	}
	var out []Mention
	words := strings.Fields(text)
	offset := 0
	for _, w := range words {
		idx := strings.Index(text[offset:], w)
		if idx < 0 {
			continue
		}
		pos := offset + idx
		if markerSet[strings.ToLower(w)] {
			out = append(out, Mention{Text: w, Offset: pos, IsCoreferenceCandidate: true})
		}
		offset = pos + len(w)
	}
	return out
}
