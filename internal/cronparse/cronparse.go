/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package cronparse implements the minimal 5-field cron grammar spec.md §6
// requires: literal numbers, "*", "*/n", lists, and day-of-week names
// MON..SUN. No cron library appears anywhere in the retrieval pack, so this
// is a small hand-rolled parser in the same regex/table style as the
// teacher's timewheel.ISO8601DurationParser (see DESIGN.md).
package cronparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed 5-field cron expression: minute hour dom month dow.
type Schedule struct {
	minute, hour, dom, month, dow fieldSet
	expr                          string
}

// fieldSet is the set of valid values for one cron field.
type fieldSet map[int]bool

var dowNames = map[string]int{
	"SUN": 0, "MON": 1, "TUE": 2, "WED": 3, "THU": 4, "FRI": 5, "SAT": 6,
}

// Parse validates and compiles a 5-field cron expression. Invalid
// expressions fail here, at configuration time, per spec.md §6/§7.
func Parse(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression %q must have 5 fields, got %d", expr, len(fields))
	}

	minute, err := parseField(fields[0], 0, 59, nil)
	if err != nil {
		return nil, fmt.Errorf("minute field: %w", err)
	}
	hour, err := parseField(fields[1], 0, 23, nil)
	if err != nil {
		return nil, fmt.Errorf("hour field: %w", err)
	}
	dom, err := parseField(fields[2], 1, 31, nil)
	if err != nil {
		return nil, fmt.Errorf("day-of-month field: %w", err)
	}
	month, err := parseField(fields[3], 1, 12, nil)
	if err != nil {
		return nil, fmt.Errorf("month field: %w", err)
	}
	dow, err := parseField(fields[4], 0, 6, dowNames)
	if err != nil {
		return nil, fmt.Errorf("day-of-week field: %w", err)
	}

	return &Schedule{minute: minute, hour: hour, dom: dom, month: month, dow: dow, expr: expr}, nil
}

// parseField handles "*", "*/n", a bare number, and comma-separated lists
// of either (names map optionally translates symbolic tokens first).
func parseField(raw string, min, max int, names map[string]int) (fieldSet, error) {
	set := fieldSet{}

	for _, part := range strings.Split(raw, ",") {
		if part == "*" {
			for v := min; v <= max; v++ {
				set[v] = true
			}
			continue
		}

		if strings.HasPrefix(part, "*/") {
			step, err := strconv.Atoi(part[2:])
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("invalid step %q", part)
			}
			for v := min; v <= max; v += step {
				set[v] = true
			}
			continue
		}

		token := strings.ToUpper(part)
		if names != nil {
			if v, ok := names[token]; ok {
				set[v] = true
				continue
			}
		}

		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", part)
		}
		if v < min || v > max {
			return nil, fmt.Errorf("value %d out of range [%d,%d]", v, min, max)
		}
		set[v] = true
	}

	return set, nil
}

// Next returns the first wall-clock time strictly after from that matches
// the schedule. Minutes is the finest granularity, matching conventional
// cron; the search is capped at four years out to guarantee termination on
// an unreachable combination (e.g. Feb 30).
func (s *Schedule) Next(from time.Time) time.Time {
	t := from.Truncate(time.Minute).Add(time.Minute)
	limit := from.AddDate(4, 0, 0)

	for t.Before(limit) {
		if s.month[int(t.Month())] && s.domMatches(t) && s.minute[t.Minute()] && s.hour[t.Hour()] {
			return t
		}
		t = t.Add(time.Minute)
	}

	// Unreachable in practice for valid expressions; callers treat this as
	// "never fires" by scheduling far in the future rather than failing.
	return limit
}

// domMatches applies the conventional cron OR-of-restrictions rule: if both
// day-of-month and day-of-week are restricted (not "*"), a match on either
// is sufficient.
func (s *Schedule) domMatches(t time.Time) bool {
	domAll := len(s.dom) == 31
	dowAll := len(s.dow) == 7

	domOK := s.dom[t.Day()]
	dowOK := s.dow[int(t.Weekday())]

	switch {
	case domAll && dowAll:
		return true
	case domAll:
		return dowOK
	case dowAll:
		return domOK
	default:
		return domOK || dowOK
	}
}

// String returns the original expression text.
func (s *Schedule) String() string { return s.expr }
