package validation

import "regexp"

// Kind identifies a validation rule. The set is closed so rule dispatch is
// checked at compile time.
type Kind int

const (
	KindRequired Kind = iota
	KindString
	KindNumber
	KindInteger
	KindIntegerString
	KindDate
	KindIn
	KindMin
	KindMax
	KindRegex
	KindLength
	KindArray
	KindObject
	KindDistinct
	KindUnique
	KindExists
	KindListFilters
	KindCustom
)

var kindNames = [...]string{
	KindRequired:      "required",
	KindString:        "string",
	KindNumber:        "number",
	KindInteger:       "integer",
	KindIntegerString: "integerString",
	KindDate:          "date",
	KindIn:            "in",
	KindMin:           "min",
	KindMax:           "max",
	KindRegex:         "regex",
	KindLength:        "length",
	KindArray:         "array",
	KindObject:        "object",
	KindDistinct:      "distinct",
	KindUnique:        "unique",
	KindExists:        "exists",
	KindListFilters:   "listFilters",
	KindCustom:        "custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Schema maps a dot-addressable field path to the ordered rule chain applied
// to it. Rule order within a field is significant: the first failing rule
// wins and the rest of the chain is skipped.
type Schema map[string][]Rule

// Data holds previously fetched candidate records, keyed by data entity name,
// for the unique and exists rules. The engine only reads it.
type Data map[string][]map[string]any

// Prop pairs a model key with the key it is compared against in a reference
// record. Model keys resolve relative to the parent path of the validated
// field.
type Prop struct {
	ModelKey string
	DataKey  string
}

// Rule is an immutable, parameterized validation check. Construct rules with
// the package-level constructors.
type Rule struct {
	kind Kind

	values  []any
	bound   float64
	pattern Pattern
	custom  *regexp.Regexp

	minLength int
	maxLength int

	rules  []Rule
	schema Schema
	keys   []string

	dataEntity  string
	props       []Prop
	ignoreProps []Prop

	customRule    string
	customMessage string
	customCheck   func() bool
}

// Kind reports which check the rule performs.
func (r Rule) Kind() Kind { return r.kind }

// Required fails when the value is absent or null.
func Required() Rule { return Rule{kind: KindRequired} }

// String passes when the value is absent or a string.
func String() Rule { return Rule{kind: KindString} }

// Number passes when the value is absent or numeric.
func Number() Rule { return Rule{kind: KindNumber} }

// Integer passes when the value is absent, or numeric with a non-negative
// whole string form.
func Integer() Rule { return Rule{kind: KindInteger} }

// IntegerString passes when the value is absent or a string of digits.
func IntegerString() Rule { return Rule{kind: KindIntegerString} }

// Date passes when the value is absent or an exact calendar date in
// YYYY-MM-DD or ISO-8601-with-milliseconds form.
func Date() Rule { return Rule{kind: KindDate} }

// In passes when the value is absent or a member of the allowed set.
func In(values ...any) Rule { return Rule{kind: KindIn, values: values} }

// Min enforces a lower bound on numeric-like values.
func Min(value float64) Rule { return Rule{kind: KindMin, bound: value} }

// Max enforces an upper bound on numeric-like values.
func Max(value float64) Rule { return Rule{kind: KindMax, bound: value} }

// Regex passes when the value is absent or a string matching the named
// pattern.
func Regex(pattern Pattern) Rule { return Rule{kind: KindRegex, pattern: pattern} }

// RegexCustom is Regex with a caller-supplied expression.
func RegexCustom(re *regexp.Regexp) Rule { return Rule{kind: KindRegex, custom: re} }

// Length bounds the length of strings and arrays; other types pass.
func Length(minLength, maxLength int) Rule {
	return Rule{kind: KindLength, minLength: minLength, maxLength: maxLength}
}

// Array fails on non-array values and validates each element with the nested
// rule chain at path <field>.<index>.
func Array(rules ...Rule) Rule { return Rule{kind: KindArray, rules: rules} }

// Object fails on non-object values and validates the nested schema with
// paths prefixed <field>.<key>.
func Object(schema Schema) Rule { return Rule{kind: KindObject, schema: schema} }

// Distinct fails when an array holds two equal elements; with keys, equality
// is restricted to that subset of element keys.
func Distinct(keys ...string) Rule { return Rule{kind: KindDistinct, keys: keys} }

// Unique fails when a reference record matches every prop and is not excluded
// by the ignore props (used to skip the record being updated).
func Unique(dataEntity string, props []Prop, ignoreProps ...Prop) Rule {
	return Rule{kind: KindUnique, dataEntity: dataEntity, props: props, ignoreProps: ignoreProps}
}

// Exists fails when no reference record matches every prop.
func Exists(dataEntity string, props []Prop) Rule {
	return Rule{kind: KindExists, dataEntity: dataEntity, props: props}
}

// ListFilters parses a compact filter expression, rejects malformed or
// out-of-whitelist filters, and re-validates the projected per-field values
// against the nested schema.
func ListFilters(schema Schema) Rule { return Rule{kind: KindListFilters, schema: schema} }

// Custom invokes a caller-supplied predicate and reports the given rule name
// and message when it returns false. It runs even for absent values.
func Custom(rule, message string, check func() bool) Rule {
	return Rule{kind: KindCustom, customRule: rule, customMessage: message, customCheck: check}
}
