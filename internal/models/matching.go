/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

import "strings"

// MatchTopic implements the dot-segmented topic matching from spec.md §4.1:
// "*" matches exactly one segment, "**" matches one or more segments
// (greedy), a pattern with no wildcards matches only its literal. Matching
// is case-sensitive.
func MatchTopic(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	return matchSegments(strings.Split(pattern, "."), strings.Split(topic, "."))
}

func matchSegments(pattern, topic []string) bool {
	if len(pattern) == 0 {
		return len(topic) == 0
	}

	head := pattern[0]
	rest := pattern[1:]

	switch head {
	case "**":
		// "**" must consume at least one segment, then try every possible
		// split for the remainder (greedy: try the longest match first).
		for consumed := len(topic); consumed >= 1; consumed-- {
			if matchSegments(rest, topic[consumed:]) {
				return true
			}
		}
		return false
	case "*":
		if len(topic) == 0 {
			return false
		}
		return matchSegments(rest, topic[1:])
	default:
		if len(topic) == 0 || topic[0] != head {
			return false
		}
		return matchSegments(rest, topic[1:])
	}
}

// MatchFilter requires every key in filter to be present in data with an
// equal value (deep equality for primitives, recursive for nested maps).
func MatchFilter(filter, data map[string]interface{}) bool {
	for key, want := range filter {
		got, ok := data[key]
		if !ok {
			return false
		}
		if !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

func valuesEqual(want, got interface{}) bool {
	wantMap, wantIsMap := want.(map[string]interface{})
	if wantIsMap {
		gotMap, gotIsMap := got.(map[string]interface{})
		if !gotIsMap {
			return false
		}
		return MatchFilter(wantMap, gotMap)
	}
	return want == got
}

// FieldAt resolves a dot-separated path ("customer.address.city") against
// data with null-safe lookup: a missing intermediate yields (nil, false),
// never a panic.
func FieldAt(data map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current interface{} = data

	for _, segment := range segments {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// StringFieldAt extracts a group-key value with null-safe lookup. A missing
// path yields the empty string, per spec.md §4.3 group-key extraction.
func StringFieldAt(data map[string]interface{}, path string) string {
	v, ok := FieldAt(data, path)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// NumberAt extracts a numeric value at path, skipping non-numeric values
// (including null, strings, and NaN) per spec.md §4.3.4.
func NumberAt(data map[string]interface{}, path string) (float64, bool) {
	v, ok := FieldAt(data, path)
	if !ok || v == nil {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		if n != n { // NaN
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
