package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"

	apperrors "memorycore/pkg/errors"
)

// ValueType tags the shape of an ObjectValue's payload.
type ValueType string

const (
	ValueTypeString ValueType = "string"
	ValueTypeNumber ValueType = "number"
	ValueTypeBool   ValueType = "bool"
	ValueTypeEnum   ValueType = "enum"
	ValueTypeObject ValueType = "object"
	ValueTypeArray  ValueType = "array"
)

// ObjectValue is the typed JSON envelope `{type, value[, unit]}` a
// SemanticMemory's object is stored as. Unit is optional and only
// meaningful for ValueTypeNumber.
type ObjectValue struct {
	Type  ValueType `json:"type"`
	Value any       `json:"value"`
	Unit  string    `json:"unit,omitempty"`
}

// NewObjectValue validates the envelope shape before it is persisted.
func NewObjectValue(t ValueType, value any, unit string) (ObjectValue, error) {
	if value == nil {
		return ObjectValue{}, apperrors.NewValidation("object_value: value required")
	}
	switch t {
	case ValueTypeString, ValueTypeNumber, ValueTypeBool, ValueTypeEnum, ValueTypeObject, ValueTypeArray:
	default:
		return ObjectValue{}, apperrors.NewValidation("object_value: unknown type " + string(t))
	}
	if unit != "" && t != ValueTypeNumber {
		return ObjectValue{}, apperrors.NewValidation("object_value: unit only valid for number type")
	}
	return ObjectValue{Type: t, Value: value, Unit: unit}, nil
}

const numericEpsilon = 1e-9

// ValueEqual implements the type-aware equality the spec's Open Questions
// leave to be decided: string is case/whitespace-normalized, number
// compares as float64 within an epsilon (a unit mismatch makes otherwise-
// equal numbers NOT equal, per decision 2b), bool/enum are exact, and
// object/array compare by canonical-JSON byte-equality after recursive key
// sorting.
func ValueEqual(a, b ObjectValue) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValueTypeString:
		return normalizeString(a.Value) == normalizeString(b.Value)
	case ValueTypeNumber:
		if a.Unit != b.Unit {
			return false
		}
		af, aok := asFloat(a.Value)
		bf, bok := asFloat(b.Value)
		if !aok || !bok {
			return false
		}
		return math.Abs(af-bf) <= numericEpsilon
	case ValueTypeBool, ValueTypeEnum:
		return a.Value == b.Value
	case ValueTypeObject, ValueTypeArray:
		return canonicalJSON(a.Value) == canonicalJSON(b.Value)
	default:
		return false
	}
}

func normalizeString(v any) string {
	s, _ := v.(string)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// canonicalJSON marshals v with map keys sorted recursively so structurally
// identical values produce identical byte strings regardless of key order.
func canonicalJSON(v any) string {
	normalized := sortKeys(v)
	b, err := json.Marshal(normalized)
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return string(b)
	}
	return buf.String()
}

func sortKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]keyValue, 0, len(keys))
		for _, k := range keys {
			out = append(out, keyValue{Key: k, Val: sortKeys(val[k])})
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = sortKeys(e)
		}
		return out
	default:
		return val
	}
}

type keyValue struct {
	Key string `json:"k"`
	Val any    `json:"v"`
}
