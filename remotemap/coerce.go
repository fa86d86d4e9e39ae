package remotemap

import "fmt"

// Coercion helpers for values decoded from JSON documents, where
// numbers arrive as float64 and arrays as []any. Settings objects use
// these in their SetField switches and decoders to enforce field types.

// Int converts a decoded JSON value into an int.
func Int(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T (%v)", value, value)
	}
}

// Int64 converts a decoded JSON value into an int64.
func Int64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T (%v)", value, value)
	}
}

// String converts a decoded JSON value into a string. A JSON null is
// treated as the empty string, matching how Jellyseerr clears optional
// text attributes.
func String(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T (%v)", value, value)
	}
}

// Bool converts a decoded JSON value into a bool.
func Bool(value any) (bool, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%v)", value, value)
}

// StringSlice converts a decoded JSON array into a []string.
func StringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case nil:
		return nil, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := String(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T (%v)", value, value)
	}
}
