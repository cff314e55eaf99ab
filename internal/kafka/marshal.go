package kafka

import (
	"encoding/json"
	"fmt"
)

// DecodePayload decodes an event payload into T.
func DecodePayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
