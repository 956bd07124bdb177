// Package payload has helpers for the JSON-shaped request maps the services
// validate and persist. Sanitizing keeps allowed keys only and preserves the
// absent-versus-null distinction the validation rules rely on.
package payload

import "strconv"

// Pick copies the allowed keys that are present in the request map.
func Pick(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if value, ok := m[key]; ok {
			out[key] = value
		}
	}
	return out
}

// String returns the key's value when it is a string.
func String(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// Int64 returns the key's value as an integer. JSON numbers arrive as
// float64; numeric strings are accepted the way the integer rule accepts
// them.
func Int64(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// Strings returns the key's value as a string slice, dropping non-strings.
func Strings(m map[string]any, key string) []string {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Object returns the key's value when it is a JSON object.
func Object(m map[string]any, key string) map[string]any {
	obj, _ := m[key].(map[string]any)
	return obj
}

// Merge overlays the request map's present keys onto a base map. Neither
// input is mutated.
func Merge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range overlay {
		out[key] = value
	}
	return out
}

// References renders fetched records the way the unique and exists rules
// read them.
func References[T interface{ Reference() map[string]any }](records []T) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		out = append(out, record.Reference())
	}
	return out
}
