package odoo

import "fmt"

// JSON-RPC results arrive as untyped values. These helpers coerce the shapes
// Odoo actually returns: numbers as float64, record sets as []any of
// map[string]any, many2one fields as [id, display_name] pairs.

// Int coerces a numeric RPC result (e.g. a create call's new record id).
func Int(v any) (int, error) {
	switch value := v.(type) {
	case float64:
		return int(value), nil
	case int:
		return value, nil
	default:
		return 0, fmt.Errorf("expected numeric rpc result, got %T", v)
	}
}

// Records coerces a search_read/read result into a slice of field maps.
func Records(v any) ([]map[string]any, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected record list, got %T", v)
	}

	records := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected record map, got %T", item)
		}
		records = append(records, record)
	}

	return records, nil
}

// IDs coerces a plain search result into record ids.
func IDs(v any) ([]int, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected id list, got %T", v)
	}

	ids := make([]int, 0, len(raw))
	for _, item := range raw {
		id, err := Int(item)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// RelationID extracts the id from a many2one field value, which Odoo encodes
// as [id, display_name] when set and false when empty.
func RelationID(v any) (int, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) == 0 {
		return 0, false
	}

	id, err := Int(pair[0])
	if err != nil {
		return 0, false
	}

	return id, true
}

// String extracts a string field, tolerating Odoo's false-for-empty encoding.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Float extracts a float field, tolerating false-for-empty.
func Float(v any) float64 {
	f, _ := v.(float64)
	return f
}
