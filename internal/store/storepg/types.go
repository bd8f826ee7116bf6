package storepg

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap adapts map[string]any (and, loosely, arbitrary JSON-able values)
// to a jsonb column, the way teacher adapts Go slices to DynamoDB list
// attributes via dynamodbav tags.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(map[string]any(m))
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("storepg: cannot scan %T into JSONMap", value)
		}
		b = []byte(s)
	}
	if len(b) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(b, (*map[string]any)(m))
}

// Int64Slice adapts []int64 to a jsonb column (SourceEventIDs, SourceItemIDs).
type Int64Slice []int64

func (s Int64Slice) Value() (driver.Value, error) {
	return json.Marshal([]int64(s))
}

func (s *Int64Slice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("storepg: cannot scan %T into Int64Slice", value)
		}
		b = []byte(str)
	}
	if len(b) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(b, (*[]int64)(s))
}
