package domain

import "testing"

func TestValueEqualString(t *testing.T) {
	a, _ := NewObjectValue(ValueTypeString, "  NET30  ", "")
	b, _ := NewObjectValue(ValueTypeString, "net30", "")
	if !ValueEqual(a, b) {
		t.Fatalf("expected normalized string equality")
	}
}

func TestValueEqualNumberEpsilon(t *testing.T) {
	a, _ := NewObjectValue(ValueTypeNumber, 30.0, "days")
	b, _ := NewObjectValue(ValueTypeNumber, 30.0000000001, "days")
	if !ValueEqual(a, b) {
		t.Fatalf("expected numbers within epsilon to be equal")
	}
}

func TestValueEqualNumberUnitMismatch(t *testing.T) {
	a, _ := NewObjectValue(ValueTypeNumber, 30.0, "days")
	b, _ := NewObjectValue(ValueTypeNumber, 30.0, "hours")
	if ValueEqual(a, b) {
		t.Fatalf("unit mismatch must not be considered equal")
	}
}

func TestValueEqualEnumExact(t *testing.T) {
	a, _ := NewObjectValue(ValueTypeEnum, "open", "")
	b, _ := NewObjectValue(ValueTypeEnum, "open", "")
	c, _ := NewObjectValue(ValueTypeEnum, "closed", "")
	if !ValueEqual(a, b) {
		t.Fatalf("identical enums should be equal")
	}
	if ValueEqual(a, c) {
		t.Fatalf("distinct enums must not be equal")
	}
}

func TestValueEqualObjectKeyOrderInsensitive(t *testing.T) {
	a, _ := NewObjectValue(ValueTypeObject, map[string]any{"a": 1.0, "b": 2.0}, "")
	b, _ := NewObjectValue(ValueTypeObject, map[string]any{"b": 2.0, "a": 1.0}, "")
	if !ValueEqual(a, b) {
		t.Fatalf("objects with same keys in different order should be equal")
	}
}

func TestValueEqualDifferentTypes(t *testing.T) {
	a, _ := NewObjectValue(ValueTypeString, "5", "")
	b, _ := NewObjectValue(ValueTypeNumber, 5.0, "")
	if ValueEqual(a, b) {
		t.Fatalf("different types must never be equal")
	}
}
