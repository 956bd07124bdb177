package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Validate runs every field of the schema against the model. Field chains run
// concurrently; results are merged in field-path order so the violation list
// is deterministic for a given schema, model and data. A non-nil error is
// always *Error.
//
// The violation accumulator is scoped to the call, so concurrent Validate
// calls never observe each other's state.
func Validate(schema Schema, model map[string]any, data Data) error {
	items := validateSchema(schema, model, data)
	if len(items) > 0 {
		return &Error{Items: items}
	}
	return nil
}

func validateSchema(schema Schema, model map[string]any, data Data) []Item {
	fields := make([]string, 0, len(schema))
	for field := range schema {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	results := make([][]Item, len(fields))
	var wg sync.WaitGroup
	for i, field := range fields {
		wg.Add(1)
		go func(i int, field string) {
			defer wg.Done()
			results[i] = validateField(parsePath(field), schema[field], model, data)
		}(i, field)
	}
	wg.Wait()

	var items []Item
	for _, result := range results {
		items = append(items, result...)
	}
	return items
}

// validateField applies the rule chain in declared order. A rule that fails
// on the field itself stops the chain; violations inside container rules are
// collected but let the chain continue, so rules like distinct and length
// still apply after an array rule has recursed.
func validateField(p path, rules []Rule, model map[string]any, data Data) []Item {
	var items []Item
	for _, rule := range rules {
		own, nested := evalRule(p, rule, model, data)
		items = append(items, nested...)
		if own != nil {
			items = append(items, *own)
			break
		}
	}
	return items
}

func evalRule(p path, rule Rule, model map[string]any, data Data) (*Item, []Item) {
	value, present := lookup(model, p)

	switch rule.kind {
	case KindRequired:
		if present && value != nil {
			return nil, nil
		}
		return fail(p, rule, "This value is required"), nil

	case KindString:
		if !present {
			return nil, nil
		}
		if _, ok := value.(string); ok {
			return nil, nil
		}
		return fail(p, rule, "This value must be a string"), nil

	case KindNumber:
		if !present || isNumber(value) {
			return nil, nil
		}
		return fail(p, rule, "This value must be a number"), nil

	case KindInteger:
		if !present || (isNumber(value) && digitsOnly(numberString(value))) {
			return nil, nil
		}
		return fail(p, rule, "This value must be an integer"), nil

	case KindIntegerString:
		if !present {
			return nil, nil
		}
		if s, ok := value.(string); ok && digitsOnly(s) {
			return nil, nil
		}
		return fail(p, rule, "This value must be an integer in a string"), nil

	case KindDate:
		if !present || isExactDate(value) {
			return nil, nil
		}
		return fail(p, rule, "This value must be a valid date"), nil

	case KindIn:
		if !present || containsValue(rule.values, value) {
			return nil, nil
		}
		return fail(p, rule, "This value must be in: "+joinValues(rule.values)), nil

	case KindMin:
		n, ok := toNumber(value, present)
		if !ok || n >= rule.bound {
			return nil, nil
		}
		return fail(p, rule, "This value must be bigger or equal to: "+formatNumber(rule.bound)), nil

	case KindMax:
		n, ok := toNumber(value, present)
		if !ok || n <= rule.bound {
			return nil, nil
		}
		return fail(p, rule, "This value must be less or equal to: "+formatNumber(rule.bound)), nil

	case KindRegex:
		if !present {
			return nil, nil
		}
		if s, ok := value.(string); ok && matchRegexRule(rule, s) {
			return nil, nil
		}
		return fail(p, rule, "This value must be valid according to the pattern: "+regexRuleName(rule)), nil

	case KindLength:
		length, ok := lengthOf(value)
		if !present || !ok || (length >= rule.minLength && length <= rule.maxLength) {
			return nil, nil
		}
		return fail(p, rule, fmt.Sprintf(
			"This value length must be between %d and %d", rule.minLength, rule.maxLength)), nil

	case KindDistinct:
		arr, ok := value.([]any)
		if !present || !ok || !hasDuplicates(arr, rule.keys) {
			return nil, nil
		}
		message := "This value cannot have duplicate items"
		if len(rule.keys) > 0 {
			message += " by: " + strings.Join(rule.keys, ", ")
		}
		return fail(p, rule, message), nil

	case KindArray:
		if !present {
			return nil, nil
		}
		arr, ok := value.([]any)
		if !ok {
			return fail(p, rule, "This value must be an array"), nil
		}
		var nested []Item
		for i := range arr {
			nested = append(nested, validateField(p.at(i), rule.rules, model, data)...)
		}
		return nil, nested

	case KindObject:
		if !present {
			return nil, nil
		}
		if _, ok := value.(map[string]any); !ok {
			return fail(p, rule, "This value must be an object"), nil
		}
		return nil, validateNested(p, rule.schema, model, data)

	case KindUnique:
		if !present {
			return nil, nil
		}
		found, ok := findReference(data[rule.dataEntity], rule.props, p, model)
		if !ok || matchesIgnoreProps(found, rule.ignoreProps, p, model) {
			return nil, nil
		}
		return fail(p, rule, "This value has already been used"), nil

	case KindExists:
		if !present {
			return nil, nil
		}
		if _, ok := findReference(data[rule.dataEntity], rule.props, p, model); ok {
			return nil, nil
		}
		return fail(p, rule, "This value was not found"), nil

	case KindListFilters:
		if !present {
			return nil, nil
		}
		return evalListFilters(p, rule, value, data)

	case KindCustom:
		if rule.customCheck != nil && rule.customCheck() {
			return nil, nil
		}
		return &Item{Field: p.String(), Rule: rule.customRule, Message: rule.customMessage}, nil
	}

	return nil, nil
}

// validateNested validates a sub-schema with every key re-rooted under the
// container path, in sorted key order.
func validateNested(p path, schema Schema, model map[string]any, data Data) []Item {
	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var items []Item
	for _, key := range keys {
		items = append(items, validateField(p.join(parsePath(key)), schema[key], model, data)...)
	}
	return items
}

func fail(p path, rule Rule, message string) *Item {
	return &Item{Field: p.String(), Rule: rule.kind.String(), Message: message}
}

// findReference searches the candidate records for one whose data keys equal
// the model values addressed by each prop. Prop model keys resolve against
// the parent path of the validated field, so props of a nested field address
// siblings inside the same element.
func findReference(records []map[string]any, props []Prop, p path, model map[string]any) (map[string]any, bool) {
	parent := p.parent()
	for _, record := range records {
		matched := true
		for _, prop := range props {
			modelValue, modelOK := lookup(model, parent.join(parsePath(prop.ModelKey)))
			dataValue, dataOK := lookup(record, parsePath(prop.DataKey))
			if modelOK != dataOK || (modelOK && !equalValues(modelValue, dataValue)) {
				matched = false
				break
			}
		}
		if matched {
			return record, true
		}
	}
	return nil, false
}

// matchesIgnoreProps reports whether the matched record is the model's own
// row, e.g. the record being updated.
func matchesIgnoreProps(record map[string]any, ignoreProps []Prop, p path, model map[string]any) bool {
	if len(ignoreProps) == 0 {
		return false
	}
	parent := p.parent()
	for _, prop := range ignoreProps {
		modelValue, modelOK := lookup(model, parent.join(parsePath(prop.ModelKey)))
		recordValue, recordOK := lookup(record, parsePath(prop.DataKey))
		if modelOK != recordOK || (modelOK && !equalValues(modelValue, recordValue)) {
			return false
		}
	}
	return true
}

func hasDuplicates(arr []any, keys []string) bool {
	for i, item := range arr {
		for j, other := range arr {
			if i == j {
				continue
			}
			if len(keys) == 0 {
				if equalValues(item, other) {
					return true
				}
				continue
			}
			equal := true
			for _, key := range keys {
				itemValue, itemOK := lookup(item, parsePath(key))
				otherValue, otherOK := lookup(other, parsePath(key))
				if itemOK != otherOK || (itemOK && !equalValues(itemValue, otherValue)) {
					equal = false
					break
				}
			}
			if equal {
				return true
			}
		}
	}
	return false
}

// Value helpers ---------------------------------------------------------------

func isNumber(value any) bool {
	switch value.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return 0
}

// toNumber coerces loosely: numbers pass through, numeric strings parse,
// null and empty strings coerce to zero, booleans to 0/1. Anything else is
// not numeric-like and the caller treats the bound as satisfied.
func toNumber(value any, present bool) (float64, bool) {
	if !present {
		return 0, false
	}
	switch v := value.(type) {
	case nil:
		return 0, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	if isNumber(value) {
		return asFloat(value), true
	}
	return 0, false
}

// numberString renders a number the way JSON does: whole floats drop the
// fraction, so float64(5) stringifies as "5".
func numberString(value any) string {
	return strconv.FormatFloat(asFloat(value), 'f', -1, 64)
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

var digitsRe = regexp.MustCompile(`^\d*$`)

func digitsOnly(s string) bool { return digitsRe.MatchString(s) }

func equalValues(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		return asFloat(a) == asFloat(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

func containsValue(values []any, value any) bool {
	for _, v := range values {
		if equalValues(v, value) {
			return true
		}
	}
	return false
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func lengthOf(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), true
	case []any:
		return len(v), true
	}
	return 0, false
}

func matchRegexRule(rule Rule, s string) bool {
	if rule.custom != nil {
		return rule.custom.MatchString(s)
	}
	return matchPattern(rule.pattern, s)
}

func regexRuleName(rule Rule) string {
	if rule.custom != nil {
		return rule.custom.String()
	}
	return string(rule.pattern)
}

// Date checking ---------------------------------------------------------------

var (
	dateOnlyRe = regexp.MustCompile(`^(\d{3}[1-9]|\d{2}[1-9]\d)-(0[1-9]|1[0-2])-(0[1-9]|[1-2]\d|3[0-1])$`)
	dateTimeRe = regexp.MustCompile(`^(\d{3}[1-9]|\d{2}[1-9]\d)-(0[1-9]|1[0-2])-(0[1-9]|[1-2]\d|3[0-1])T([0-1]\d|2[0-3]):[0-5]\d:[0-5]\d\.\d{3}Z$`)
)

// isExactDate accepts YYYY-MM-DD or full ISO-8601 with milliseconds, and
// rejects dates that only look valid, such as 2021-02-30.
func isExactDate(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	switch {
	case dateOnlyRe.MatchString(s):
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	case dateTimeRe.MatchString(s):
		_, err := time.Parse("2006-01-02T15:04:05.000Z", s)
		return err == nil
	}
	return false
}
