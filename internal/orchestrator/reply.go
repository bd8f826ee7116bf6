package orchestrator

import (
	"fmt"
	"strings"

	"memorycore/internal/domainaugment"
	"memorycore/internal/retrieval"
)

// intentToStrategy maps a classified query intent to a retrieval strategy.
// The spec names both enums but leaves the mapping itself to the
// implementation (Open Question); task_management favors the procedural
// strategy's heavy reinforcement weight (heuristics get more reliable with
// repeated observation), the three fact-lookup intents favor
// factual_entity_focused, and general falls back to exploratory.
func intentToStrategy(intent domainaugment.Intent) retrieval.Strategy {
	switch intent {
	case domainaugment.IntentOrderStatus, domainaugment.IntentFinancial, domainaugment.IntentCustomerContext:
		return retrieval.StrategyFactualEntityFocused
	case domainaugment.IntentTaskManagement:
		return retrieval.StrategyProcedural
	default:
		return retrieval.StrategyExploratory
	}
}

// buildReplyPrompt assembles the free-text prompt for prompt 3 (§4.C11 step
// 8/9): authoritative domain facts first, then contextual memories, then
// recent turns, then any conflicts still open from this turn.
func buildReplyPrompt(rc replyContext) string {
	var b strings.Builder
	b.WriteString("You are a conversational agent with access to durable memory about this user. ")
	b.WriteString("Answer the user's latest message using the facts below. Prefer domain facts over memories when they overlap; they are authoritative.\n\n")

	if len(rc.domainFacts) > 0 {
		b.WriteString("Domain facts:\n")
		for _, f := range rc.domainFacts {
			fmt.Fprintf(&b, "- [%s] %s\n", f.FactType, f.Content)
		}
		b.WriteString("\n")
	}

	if len(rc.retrievedMemories) > 0 {
		b.WriteString("Relevant memories:\n")
		for _, m := range rc.retrievedMemories {
			fmt.Fprintf(&b, "- %s\n", m.Text)
		}
		b.WriteString("\n")
	}

	if len(rc.recentEvents) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, e := range rc.recentEvents {
			fmt.Fprintf(&b, "%s: %s\n", e.Role, e.Content)
		}
		b.WriteString("\n")
	}

	if len(rc.openConflicts) > 0 {
		b.WriteString("Unresolved disagreements to acknowledge if relevant:\n")
		for _, c := range rc.openConflicts {
			fmt.Fprintf(&b, "- %s: existing=%v new=%v (%s)\n", c.Predicate, c.ExistingValue, c.NewValue, c.ResolutionStrategy)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User's message: %s\n", rc.query)
	return b.String()
}

// fallbackReply builds the deterministic reply §7 requires when the
// Completer fails on reply synthesis: enumerate what was found rather than
// producing nothing.
func fallbackReply(rc replyContext) string {
	var b strings.Builder
	b.WriteString("I couldn't generate a full response right now, but here's what I found:")
	for _, f := range rc.domainFacts {
		fmt.Fprintf(&b, "\n- %s", f.Content)
	}
	for _, m := range rc.retrievedMemories {
		fmt.Fprintf(&b, "\n- %s", m.Text)
	}
	if len(rc.domainFacts) == 0 && len(rc.retrievedMemories) == 0 {
		b.WriteString(" nothing relevant on file yet.")
	}
	return b.String()
}
