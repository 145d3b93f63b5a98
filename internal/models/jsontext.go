package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONText stores an optional JSON document in a text column. Empty means NULL.
type JSONText []byte

func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSONText) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		*j = append(JSONText(nil), v...)
		return nil
	case string:
		*j = JSONText(v)
		return nil
	default:
		return fmt.Errorf("json text scan: unsupported type %T", value)
	}
}

func (j JSONText) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	if !json.Valid(j) {
		return json.Marshal(string(j))
	}
	return []byte(j), nil
}

func (j *JSONText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*j = nil
		return nil
	}
	*j = append(JSONText(nil), b...)
	return nil
}
