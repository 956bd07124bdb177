package validation

import (
	"strconv"
	"strings"
)

// segment is one step of a field path: either a map key or an array index.
type segment struct {
	key   string
	index int
	isIdx bool
}

// path is a parsed field path such as "orderItems.0.productId".
type path []segment

func parsePath(field string) path {
	if field == "" {
		return nil
	}
	parts := strings.Split(field, ".")
	p := make(path, 0, len(parts))
	for _, part := range parts {
		if idx, err := strconv.Atoi(part); err == nil && !strings.HasPrefix(part, "-") {
			p = append(p, segment{index: idx, isIdx: true})
			continue
		}
		p = append(p, segment{key: part})
	}
	return p
}

func (p path) String() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		if seg.isIdx {
			parts[i] = strconv.Itoa(seg.index)
			continue
		}
		parts[i] = seg.key
	}
	return strings.Join(parts, ".")
}

// parent trims the last segment; prop keys of unique/exists rules resolve
// relative to it.
func (p path) parent() path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

func (p path) child(key string) path {
	out := make(path, len(p), len(p)+1)
	copy(out, p)
	return append(out, segment{key: key})
}

func (p path) at(index int) path {
	out := make(path, len(p), len(p)+1)
	copy(out, p)
	return append(out, segment{index: index, isIdx: true})
}

// join appends a parsed relative path (prop keys may themselves be dotted).
func (p path) join(rel path) path {
	out := make(path, len(p), len(p)+len(rel))
	copy(out, p)
	return append(out, rel...)
}

// lookup walks a JSON-shaped value along the path. The boolean reports
// presence: a field holding an explicit null is present, a missing key or an
// out-of-range index is not.
func lookup(value any, p path) (any, bool) {
	current := value
	for _, seg := range p {
		if seg.isIdx {
			arr, ok := current.([]any)
			if !ok || seg.index < 0 || seg.index >= len(arr) {
				return nil, false
			}
			current = arr[seg.index]
			continue
		}
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg.key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
