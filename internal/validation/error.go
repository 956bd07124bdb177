package validation

import (
	"fmt"
	"strings"
)

// Item is one reported rule failure for a single field path. Only the first
// failing rule of a field's chain is reported.
type Item struct {
	Field   string         `json:"field"`
	Rule    string         `json:"rule"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error carries every violation found by a single Validate call, ordered by
// field path (nested paths follow their container field).
type Error struct {
	Items []Item
}

func (e *Error) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}
	fields := make([]string, len(e.Items))
	for i, item := range e.Items {
		fields[i] = item.Field
	}
	return fmt.Sprintf("validation failed for %s", strings.Join(fields, ", "))
}
