// Package domainaugment implements the Domain Augmenter (C10): classifies
// a turn's intent from its text, then follows outbound ontology edges from
// each resolved entity to collect authoritative facts from the read-only
// domain database.
package domainaugment

import "strings"

// Intent is one of the five query-intent buckets §4.C10 names.
type Intent string

const (
	IntentOrderStatus     Intent = "order_status"
	IntentFinancial       Intent = "financial"
	IntentTaskManagement  Intent = "task_management"
	IntentCustomerContext Intent = "customer_context"
	IntentGeneral         Intent = "general"
)

var intentKeywords = map[Intent][]string{
	IntentOrderStatus:    {"order", "shipment", "ship", "tracking", "delivery", "fulfill"},
	IntentFinancial:      {"invoice", "payment", "bill", "balance", "owe", "charge", "refund"},
	IntentTaskManagement: {"task", "work order", "schedule", "assign", "due", "follow up", "followup"},
	IntentCustomerContext: {"who is", "tell me about", "contact", "account", "profile"},
}

// intentOrder fixes the tie-break when more than one keyword set matches:
// the spec's own listing order.
var intentOrder = []Intent{IntentOrderStatus, IntentFinancial, IntentTaskManagement, IntentCustomerContext}

// ClassifyIntent applies keyword rules over lowercased text; the first
// matching intent in intentOrder wins, defaulting to general.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, intent := range intentOrder {
		for _, kw := range intentKeywords[intent] {
			if strings.Contains(lower, kw) {
				return intent
			}
		}
	}
	return IntentGeneral
}

// entityHints narrows which ontology edges are "relevant to the intent"
// (§4.C10), matched against an edge's ToType or RelationType.
var entityHints = map[Intent][]string{
	IntentOrderStatus:     {"order", "shipment", "fulfillment"},
	IntentFinancial:       {"invoice", "payment", "billing"},
	IntentTaskManagement:  {"task", "work_order", "project"},
	IntentCustomerContext: {"customer", "contact", "account"},
}

func edgeRelevant(intent Intent, toType string, relationType string) bool {
	if intent == IntentGeneral {
		return true
	}
	hints, ok := entityHints[intent]
	if !ok {
		return true
	}
	target := strings.ToLower(toType + " " + relationType)
	for _, hint := range hints {
		if strings.Contains(target, hint) {
			return true
		}
	}
	return false
}
