package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Snapshot is a JSONB document holding the values of a booking at one point in time.
type Snapshot map[string]any

func (s Snapshot) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return raw, nil
}

func (s *Snapshot) Scan(src any) error {
	var raw []byte

	switch value := src.(type) {
	case nil:
		*s = Snapshot{}

		return nil
	case []byte:
		raw = value
	case string:
		raw = []byte(value)
	default:
		return errors.New("unsupported snapshot source type")
	}

	decoded := Snapshot{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	*s = decoded

	return nil
}
