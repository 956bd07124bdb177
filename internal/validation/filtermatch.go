package validation

import "strings"

// Matches evaluates the filter expression against a reference-shaped record.
// The in-memory store uses this directly; the SQL adapter translates the same
// tree into a WHERE clause instead.
func (n *FilterNode) Matches(record map[string]any) bool {
	if n == nil {
		return true
	}
	switch n.Op {
	case "&":
		for _, child := range n.Children {
			if !child.Matches(record) {
				return false
			}
		}
		return true
	case "|":
		for _, child := range n.Children {
			if child.Matches(record) {
				return true
			}
		}
		return false
	case "in":
		value, ok := lookup(record, parsePath(n.Field))
		return ok && containsValue(n.Values, value)
	}

	value, ok := lookup(record, parsePath(n.Field))
	if !ok || len(n.Values) == 0 {
		return false
	}
	want := n.Values[0]

	switch n.Op {
	case "=":
		return equalValues(value, want)
	case "!=":
		return !equalValues(value, want)
	case ":":
		return containsText(value, want)
	case "!:":
		return !containsText(value, want)
	}

	got, gotOK := toNumber(value, true)
	bound, boundOK := toNumber(want, true)
	if gotOK && boundOK {
		switch n.Op {
		case ">":
			return got > bound
		case ">=":
			return got >= bound
		case "<":
			return got < bound
		case "<=":
			return got <= bound
		}
		return false
	}

	// Fall back to lexical ordering, which also covers ISO dates.
	gs, gok := value.(string)
	ws, wok := want.(string)
	if !gok || !wok {
		return false
	}
	switch n.Op {
	case ">":
		return gs > ws
	case ">=":
		return gs >= ws
	case "<":
		return gs < ws
	case "<=":
		return gs <= ws
	}
	return false
}

func containsText(value, want any) bool {
	vs, ok := value.(string)
	if !ok {
		return false
	}
	ws, ok := want.(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(vs), strings.ToLower(ws))
}
