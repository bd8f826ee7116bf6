package domain

import "testing"

func TestNewSemanticMemoryRejectsHighConfidence(t *testing.T) {
	obj, _ := NewObjectValue(ValueTypeString, "NET30", "")
	_, err := NewSemanticMemory("u1", nil, "payment_terms", PredicateTypePolicy, obj, 0.96, SemanticSourceEpisodic, nil, nil)
	if err == nil {
		t.Fatalf("expected validation error for confidence above 0.95")
	}
}

func TestNewSemanticMemoryRejectsZeroConfidence(t *testing.T) {
	obj, _ := NewObjectValue(ValueTypeString, "NET30", "")
	_, err := NewSemanticMemory("u1", nil, "payment_terms", PredicateTypePolicy, obj, 0, SemanticSourceEpisodic, nil, nil)
	if err == nil {
		t.Fatalf("expected validation error for zero confidence")
	}
}

func TestNewSemanticMemoryDefaultsActive(t *testing.T) {
	obj, _ := NewObjectValue(ValueTypeString, "NET30", "")
	m, err := NewSemanticMemory("u1", nil, "payment_terms", PredicateTypePolicy, obj, 0.8, SemanticSourceEpisodic, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != StatusActive {
		t.Fatalf("expected new memory to be active, got %s", m.Status)
	}
	if m.ReinforcementCount != 1 {
		t.Fatalf("expected reinforcement count 1, got %d", m.ReinforcementCount)
	}
}

func TestMemoryStatusRetrievable(t *testing.T) {
	cases := map[MemoryStatus]bool{
		StatusActive:      true,
		StatusAging:       true,
		StatusSuperseded:  false,
		StatusInvalidated: false,
	}
	for status, want := range cases {
		if got := status.Retrievable(); got != want {
			t.Errorf("status %s: Retrievable() = %v, want %v", status, got, want)
		}
	}
}
