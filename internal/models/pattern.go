/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

import (
	"encoding/json"
	"fmt"
)

// PatternType is the closed, tagged-variant discriminator for the four CEP
// pattern families (spec.md §4.3). Modeled as a small string enum in the
// same idiom as the teacher's TimerType/TimerState constants.
type PatternType string

const (
	PatternSequence  PatternType = "sequence"
	PatternAbsence   PatternType = "absence"
	PatternCount     PatternType = "count"
	PatternAggregate PatternType = "aggregate"
)

// Comparison is the relational operator count/aggregate patterns evaluate
// against their threshold.
type Comparison string

const (
	ComparisonGTE Comparison = "gte"
	ComparisonLTE Comparison = "lte"
	ComparisonEQ  Comparison = "eq"
)

// Evaluate applies the comparison to (value, threshold).
func (c Comparison) Evaluate(value, threshold float64) bool {
	switch c {
	case ComparisonLTE:
		return value <= threshold
	case ComparisonEQ:
		return value == threshold
	case ComparisonGTE, "":
		return value >= threshold
	default:
		return false
	}
}

// AggregateFunction is the reduction applied to the windowed numeric slice.
type AggregateFunction string

const (
	FuncSum   AggregateFunction = "sum"
	FuncAvg   AggregateFunction = "avg"
	FuncMin   AggregateFunction = "min"
	FuncMax   AggregateFunction = "max"
	FuncCount AggregateFunction = "count"
)

// Pattern is the closed-set interface every pattern family implements. The
// processor performs an exhaustive switch on Kind(); adding a family is a
// localized change (spec.md §9).
type Pattern interface {
	Kind() PatternType
	Validate() error
}

// SequencePattern matches an ordered list of events within a deadline.
type SequencePattern struct {
	Matchers []EventMatcher `json:"matchers"`
	Within   string         `json:"within"`
	GroupBy  string         `json:"groupBy,omitempty"`
	Strict   bool           `json:"strict,omitempty"`
}

func (SequencePattern) Kind() PatternType { return PatternSequence }

// Validate implements spec.md §7 InvalidConfiguration fail-fast checks for
// the sequence family: at least one matcher and a within deadline.
func (p SequencePattern) Validate() error {
	if len(p.Matchers) == 0 {
		return fmt.Errorf("%w: sequence pattern has no matchers", ErrInvalidConfiguration)
	}
	if p.Within == "" {
		return fmt.Errorf("%w: sequence pattern missing within", ErrInvalidConfiguration)
	}
	return nil
}

// AbsencePattern matches an "after" event not followed by an "expected"
// event within a deadline.
type AbsencePattern struct {
	After    EventMatcher `json:"after"`
	Expected EventMatcher `json:"expected"`
	Within   string       `json:"within"`
	GroupBy  string       `json:"groupBy,omitempty"`
}

func (AbsencePattern) Kind() PatternType { return PatternAbsence }

// Validate implements spec.md §7 InvalidConfiguration fail-fast checks for
// the absence family: a within deadline is required.
func (p AbsencePattern) Validate() error {
	if p.Within == "" {
		return fmt.Errorf("%w: absence pattern missing within", ErrInvalidConfiguration)
	}
	return nil
}

// CountPattern fires opportunistically when a trailing window holds enough
// matching events.
type CountPattern struct {
	Matcher    EventMatcher `json:"matcher"`
	Threshold  int          `json:"threshold"`
	Comparison Comparison   `json:"comparison,omitempty"`
	Window     string       `json:"window"`
	GroupBy    string       `json:"groupBy,omitempty"`
}

func (CountPattern) Kind() PatternType { return PatternCount }

// Validate implements spec.md §7 InvalidConfiguration fail-fast checks for
// the count family: a non-negative threshold and a window are required.
func (p CountPattern) Validate() error {
	if p.Threshold < 0 {
		return fmt.Errorf("%w: count pattern has negative threshold %d", ErrInvalidConfiguration, p.Threshold)
	}
	if p.Window == "" {
		return fmt.Errorf("%w: count pattern missing window", ErrInvalidConfiguration)
	}
	switch p.Comparison {
	case "", ComparisonGTE, ComparisonLTE, ComparisonEQ:
	default:
		return fmt.Errorf("%w: count pattern has unknown comparison %q", ErrInvalidConfiguration, p.Comparison)
	}
	return nil
}

// AggregatePattern fires when a windowed numeric reduction crosses a
// threshold.
type AggregatePattern struct {
	Matcher    EventMatcher      `json:"matcher"`
	Field      string            `json:"field,omitempty"`
	Function   AggregateFunction `json:"function"`
	Threshold  float64           `json:"threshold"`
	Comparison Comparison        `json:"comparison,omitempty"`
	Window     string            `json:"window"`
	GroupBy    string            `json:"groupBy,omitempty"`
}

func (AggregatePattern) Kind() PatternType { return PatternAggregate }

// Validate implements spec.md §7 InvalidConfiguration fail-fast checks for
// the aggregate family: a non-negative threshold, a known function, and a
// window are required; non-count functions also require a field path.
func (p AggregatePattern) Validate() error {
	if p.Threshold < 0 {
		return fmt.Errorf("%w: aggregate pattern has negative threshold %v", ErrInvalidConfiguration, p.Threshold)
	}
	if p.Window == "" {
		return fmt.Errorf("%w: aggregate pattern missing window", ErrInvalidConfiguration)
	}
	switch p.Function {
	case FuncSum, FuncAvg, FuncMin, FuncMax:
		if p.Field == "" {
			return fmt.Errorf("%w: aggregate pattern function %q requires a field", ErrInvalidConfiguration, p.Function)
		}
	case FuncCount:
	default:
		return fmt.Errorf("%w: aggregate pattern has unknown function %q", ErrInvalidConfiguration, p.Function)
	}
	switch p.Comparison {
	case "", ComparisonGTE, ComparisonLTE, ComparisonEQ:
	default:
		return fmt.Errorf("%w: aggregate pattern has unknown comparison %q", ErrInvalidConfiguration, p.Comparison)
	}
	return nil
}

// taggedPattern is the wire envelope: every pattern object literally
// carries its family tag under "type" (spec.md §6).
type taggedPattern struct {
	Type PatternType `json:"type"`
}

// DecodePattern sniffs the "type" tag and unmarshals into the matching
// concrete Pattern. Used by rule registration at the REST boundary; the
// in-process registerRule API also accepts a Pattern built directly by a
// caller (the DSL/YAML surface in spec.md §6, out of scope here).
func DecodePattern(raw json.RawMessage) (Pattern, error) {
	var tag taggedPattern
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("%w: malformed pattern: %v", ErrInvalidConfiguration, err)
	}

	switch tag.Type {
	case PatternSequence:
		var p SequencePattern
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: malformed sequence pattern: %v", ErrInvalidConfiguration, err)
		}
		return p, nil
	case PatternAbsence:
		var p AbsencePattern
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: malformed absence pattern: %v", ErrInvalidConfiguration, err)
		}
		return p, nil
	case PatternCount:
		var p CountPattern
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: malformed count pattern: %v", ErrInvalidConfiguration, err)
		}
		return p, nil
	case PatternAggregate:
		var p AggregatePattern
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: malformed aggregate pattern: %v", ErrInvalidConfiguration, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown pattern type %q", ErrInvalidConfiguration, tag.Type)
	}
}

// EncodePattern re-attaches the "type" tag when serializing a Pattern back
// to JSON (e.g. in a Match or over the REST introspection endpoints).
func EncodePattern(p Pattern) ([]byte, error) {
	type tagged struct {
		Type PatternType `json:"type"`
		Pattern
	}
	return json.Marshal(tagged{Type: p.Kind(), Pattern: p})
}
