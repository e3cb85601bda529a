package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

var errExtrasType = errors.New("extras: unsupported scan type")

// Extras holds open-ended metadata blobs (package or payment details) stored as JSONB.
// Core appointment fields never live here.
type Extras map[string]any

func (e Extras) Value() (driver.Value, error) {
	if e == nil {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extras: %w", err)
	}

	return data, nil
}

func (e *Extras) Scan(src any) error {
	var data []byte

	switch v := src.(type) {
	case nil:
		*e = Extras{}

		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errExtrasType
	}

	if err := json.Unmarshal(data, e); err != nil {
		return fmt.Errorf("failed to unmarshal extras: %w", err)
	}

	return nil
}

// String returns the value stored under key, or "" when absent or not a string.
func (e Extras) String(key string) string {
	value, _ := e[key].(string)

	return value
}
