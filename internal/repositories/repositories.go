package repositories

import (
	"encoding/json"
	"fmt"
)

// marshalTags encodes a tag slice as a JSON array for storage.
// A nil slice encodes as "[]" so the column is never NULL.
func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}

// unmarshalTags decodes a stored JSON tag array. Empty arrays decode to nil
// so round-tripped records compare equal to freshly built ones.
func unmarshalTags(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}
