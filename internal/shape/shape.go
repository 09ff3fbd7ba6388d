// Package shape extracts values from loosely-typed backend envelopes.
//
// The exhibition backend nests payloads at varying depths depending on
// endpoint and version (observed: data.results, results, plain arrays).
// Rather than failing on the first mismatch, callers declare an ordered
// list of candidate locations and take the first one that matches.
package shape

import (
	"strconv"
	"strings"
)

// List tries each dotted key path in order against m and returns the
// first []any found. Paths use "." to descend into nested maps; the
// empty path matches m itself when it wraps a list under no key (not
// possible for a map, kept for symmetry). Returns an empty slice when
// nothing matches — never an error.
func List(m map[string]any, paths ...string) []any {
	for _, path := range paths {
		if list, ok := listAt(m, path); ok {
			return list
		}
	}
	return []any{}
}

func listAt(m map[string]any, path string) ([]any, bool) {
	cur := any(m)
	for _, key := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	list, ok := cur.([]any)
	return list, ok
}

// FirstString returns the first key in keys whose value in m is a
// non-empty string, or a number rendered as a string. Numeric IDs are
// common in this backend, so "id": 42 yields "42".
func FirstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return trimFloat(v)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// FirstInt returns the first key in keys carrying a usable integer.
// JSON numbers decode as float64; numeric strings are accepted too.
func FirstInt(m map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// TotalCount digs out a backend-reported row count from the usual
// places. Returns false when no recognizable count is present.
func TotalCount(m map[string]any) (int, bool) {
	if n, ok := FirstInt(m, "total", "totalCount", "count", "rowCount"); ok {
		return n, true
	}
	if data, ok := m["data"].(map[string]any); ok {
		return FirstInt(data, "total", "totalCount", "count", "rowCount")
	}
	return 0, false
}

// Maps filters a raw list down to its map elements. Non-map entries
// (nulls, stray scalars) are dropped rather than failing the batch.
func Maps(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// trimFloat renders a JSON number without a trailing ".0" mantissa so
// integer IDs round-trip cleanly.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
