package validation

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// FilterNode is one node of a parsed list-filter expression: either a leaf
// comparison ([op, field, value] or ["in", field, [values...]]) or a
// combinator ("&"/"|") over child nodes.
type FilterNode struct {
	Op       string
	Field    string
	Values   []any
	Children []*FilterNode
}

// IsLeaf reports whether the node is a field comparison.
func (n *FilterNode) IsLeaf() bool { return len(n.Children) == 0 }

// ErrInvalidFilters is returned for any malformed, out-of-whitelist or
// ill-typed filter expression. Parsing is all-or-nothing.
var ErrInvalidFilters = errors.New("invalid list filters expression")

var comparisonOps = map[string]bool{
	"=": true, "!=": true,
	">": true, ">=": true,
	"<": true, "<=": true,
	":": true, "!:": true,
}

// ParseFilters parses a prefix-notation filter expression over the permitted
// fields. It returns the expression tree and, per permitted field, every
// value the expression compares it against (empty slice when unmentioned).
// An empty expression ("[]") yields a nil tree and no projection.
func ParseFilters(expr string, fields []string) (*FilterNode, map[string][]any, error) {
	var raw any
	if err := json.Unmarshal([]byte(expr), &raw); err != nil {
		return nil, nil, ErrInvalidFilters
	}

	arr, ok := raw.([]any)
	if !ok {
		return nil, nil, ErrInvalidFilters
	}
	if len(arr) == 0 {
		return nil, nil, nil
	}

	permitted := make(map[string]bool, len(fields))
	collected := make(map[string][]any, len(fields))
	for _, field := range fields {
		permitted[field] = true
		collected[field] = []any{}
	}

	node, ok := parseFilterNode(arr, permitted, collected)
	if !ok {
		return nil, nil, ErrInvalidFilters
	}
	return node, collected, nil
}

func parseFilterNode(raw any, permitted map[string]bool, collected map[string][]any) (*FilterNode, bool) {
	arr, ok := raw.([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	op, ok := arr[0].(string)
	if !ok {
		return nil, false
	}

	if op == "&" || op == "|" {
		if len(arr) < 2 {
			return nil, false
		}
		node := &FilterNode{Op: op}
		for _, child := range arr[1:] {
			childNode, ok := parseFilterNode(child, permitted, collected)
			if !ok {
				return nil, false
			}
			node.Children = append(node.Children, childNode)
		}
		return node, true
	}

	if len(arr) < 3 {
		return nil, false
	}
	field, ok := arr[1].(string)
	if !ok || !permitted[field] {
		return nil, false
	}

	if op == "in" {
		values, ok := arr[2].([]any)
		if !ok {
			return nil, false
		}
		for _, value := range values {
			if !isFilterValue(value) {
				return nil, false
			}
		}
		collected[field] = append(collected[field], values...)
		return &FilterNode{Op: op, Field: field, Values: values}, true
	}

	if !comparisonOps[op] {
		return nil, false
	}
	value := arr[2]
	if !isFilterValue(value) {
		return nil, false
	}
	collected[field] = append(collected[field], value)
	return &FilterNode{Op: op, Field: field, Values: []any{value}}, true
}

func isFilterValue(value any) bool {
	switch value.(type) {
	case string, float64:
		return true
	}
	return false
}

// evalListFilters parses the expression and, on success, re-validates the
// projected {filters: {...}} structure against the nested schema, so filter
// values obey the same per-field rules as direct assignments.
func evalListFilters(p path, rule Rule, value any, data Data) (*Item, []Item) {
	fields := make([]string, 0, len(rule.schema))
	for field := range rule.schema {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	invalid := fail(p, rule,
		"This value must be a valid list filters and with this possible fields: "+strings.Join(fields, ", "))

	expr, ok := value.(string)
	if !ok {
		return invalid, nil
	}
	node, collected, err := ParseFilters(expr, fields)
	if err != nil {
		return invalid, nil
	}
	if node == nil {
		return nil, nil
	}

	filters := make(map[string]any, len(collected))
	for field, values := range collected {
		filters[field] = values
	}
	model := map[string]any{"filters": filters}

	return nil, validateNested(parsePath("filters"), rule.schema, model, data)
}
