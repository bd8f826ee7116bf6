// Package semantic implements the Semantic Extractor (C6): classifies the
// event type of a stored ChatEvent, and for eligible events calls the
// Completer to pull out subject-predicate-object triples, normalizes and
// embeds them, and hands the survivors to the Conflict Detector before
// persistence. Grounded on teacher's internal/service/llm prompt-builder
// pattern (internal/completion wraps that split already) plus
// internal/service/memory/service.go's keyword-filtering shape for
// predicate normalization, replacing its hand-rolled stopword map with
// github.com/orsinium-labs/stopwords.
package semantic

import (
	"regexp"
	"strings"

	"memorycore/internal/domain"
)

var (
	imperativeVerbs = []string{
		"set", "update", "change", "add", "remove", "delete", "cancel",
		"schedule", "create", "assign", "send", "book", "reschedule",
		"close", "open", "mark", "move",
	}
	statementMarkers   = []string{"remember", "prefers", "always", "never", "is ", "are ", "was ", "were "}
	correctionMarkers  = []string{"actually", "correction:", "i meant", "no, it's", "that's wrong", "to correct"}
	confirmationWords  = []string{"yes", "yeah", "correct", "confirmed", "sounds good", "that's right"}
	leadingVerbPattern = regexp.MustCompile(`^\s*[a-zA-Z]+\b`)
)

// ClassifyEventType applies the deterministic pattern rules named in §4.C6
// step 1. Rule precedence (most specific first): correction markers,
// trailing '?', confirmation words, explicit statement/preference markers,
// leading imperative verb, default statement.
func ClassifyEventType(content string) domain.EpisodicEventType {
	text := strings.TrimSpace(content)
	lower := strings.ToLower(text)

	for _, marker := range correctionMarkers {
		if strings.Contains(lower, marker) {
			return domain.EventTypeCorrection
		}
	}
	if strings.HasSuffix(text, "?") {
		return domain.EventTypeQuestion
	}
	for _, word := range confirmationWords {
		if lower == word || strings.HasPrefix(lower, word+" ") || strings.HasPrefix(lower, word+",") {
			return domain.EventTypeConfirmation
		}
	}
	if strings.Contains(lower, "prefer") || strings.Contains(lower, "would like") {
		return domain.EventTypeExplicitPreference
	}
	for _, marker := range statementMarkers {
		if strings.Contains(lower, marker) {
			return domain.EventTypeStatement
		}
	}
	if leadingVerbPattern.MatchString(lower) {
		firstWord := strings.Fields(lower)[0]
		for _, verb := range imperativeVerbs {
			if firstWord == verb {
				return domain.EventTypeCommand
			}
		}
	}
	return domain.EventTypeStatement
}
