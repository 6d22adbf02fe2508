/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package durations parses the engine's duration literals: positive integer
// milliseconds, or a string matching ^\d+(ms|s|m|h|d|w|y)$. Grounded on the
// teacher's timewheel.ISO8601DurationParser — same regex-driven, unit-table
// approach, generalized to the simpler suffix grammar spec.md §6 defines.
package durations

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var literalPattern = regexp.MustCompile(`^(\d+)(ms|s|m|h|d|w|y)$`)

// Year is fixed at exactly 365 days, never 365.25 or calendar-aware — an
// explicit decision recorded in SPEC_FULL.md's Open Questions.
const Year = 365 * 24 * time.Hour

var unitMillis = map[string]int64{
	"ms": 1,
	"s":  1000,
	"m":  60000,
	"h":  3600000,
	"d":  86400000,
	"w":  7 * 86400000,
	"y":  int64(Year / time.Millisecond),
}

// Parse accepts either a bare positive integer number of milliseconds
// (passed as a string) or a suffixed literal like "30s", "5m", "1d". It
// fails fast on anything else, per the InvalidConfiguration taxonomy.
func Parse(value string) (time.Duration, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %d", n)
		}
		return time.Duration(n) * time.Millisecond, nil
	}

	matches := literalPattern.FindStringSubmatch(value)
	if matches == nil {
		return 0, fmt.Errorf("invalid duration literal %q: want positive integer ms or ^\\d+(ms|s|m|h|d|w|y)$", value)
	}

	amount, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("invalid duration literal %q: amount must be a positive integer", value)
	}

	return time.Duration(amount*unitMillis[matches[2]]) * time.Millisecond, nil
}

// ParseMillis is Parse returning whole milliseconds, for callers that need
// an integer millisecond count.
func ParseMillis(value string) (int64, error) {
	d, err := Parse(value)
	if err != nil {
		return 0, err
	}
	return d.Milliseconds(), nil
}
