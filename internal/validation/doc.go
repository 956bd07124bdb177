// Package validation implements a schema-driven validation engine. A Schema
// maps dot-addressable field paths to ordered rule chains; rules are evaluated
// against JSON-shaped models (map[string]any) and, for uniqueness and
// existence checks, against reference data fetched by the caller. The engine
// never touches storage itself.
package validation
