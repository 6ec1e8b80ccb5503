// Package jsonb provides a JSON column type usable with both postgres jsonb and
// sqlite text columns.
package jsonb

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type JSON []byte

// From marshals v into a JSON column value.
func From(v any) (JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSON(raw), nil
}

// Decode unmarshals the stored document into v. An empty column leaves v untouched.
func (j JSON) Decode(v any) error {
	if len(j) == 0 {
		return nil
	}
	return json.Unmarshal(j, v)
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("jsonb: invalid JSON value")
	}
	return append([]byte(nil), j...), nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("jsonb: invalid JSON payload")
	}
	*j = append((*j)[:0], data...)
	return nil
}

// Value implements driver.Valuer. Strings keep sqlite and postgres happy alike.
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("jsonb: invalid JSON value")
	}
	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSON) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("jsonb: unsupported scan type %T", value)
	}
	if !json.Valid(raw) {
		return fmt.Errorf("jsonb: invalid JSON payload")
	}
	*j = append((*j)[:0], raw...)
	return nil
}
