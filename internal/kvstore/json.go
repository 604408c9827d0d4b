package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// ElementError reports one array element that could not be decoded.
type ElementError struct {
	Index int
	Err   error
}

func (e ElementError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

// LoadJSON reads key and decodes it as a JSON array of T. A missing key yields
// (nil, nil, nil). Content that is not an array yields a *MalformedError.
// Elements are decoded one by one; those that fail are left out of items and
// reported in skipped.
func LoadJSON[T any](ctx context.Context, m Medium, key string) (items []T, skipped []ElementError, err error) {
	raw, found, err := m.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if !found || raw == "" {
		return nil, nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, nil, &MalformedError{Key: key, Err: err}
	}
	// "null" decodes cleanly into a nil slice but is not an array.
	if elements == nil {
		return nil, nil, &MalformedError{Key: key, Err: fmt.Errorf("expected JSON array, got %q", raw)}
	}

	items = make([]T, 0, len(elements))
	for i, element := range elements {
		var item T
		if err := json.Unmarshal(element, &item); err != nil {
			skipped = append(skipped, ElementError{Index: i, Err: err})
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

// SaveJSON encodes items as one JSON array and writes it under key in a single Set.
func SaveJSON[T any](ctx context.Context, m Medium, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return wrap("encode", key, err)
	}
	return m.Set(ctx, key, string(data))
}
