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

// Rule is the processor's read-only view of a registered temporal rule
// (spec.md §3).
type Rule struct {
	ID      string
	Enabled bool
	Pattern Pattern
}

// ruleWire mirrors the external rule shape from spec.md §6:
// {id, enabled, trigger: {type: "temporal", pattern: <one of the four>}}.
type ruleWire struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
	Trigger struct {
		Type    string          `json:"type"`
		Pattern json.RawMessage `json:"pattern"`
	} `json:"trigger"`
}

// DecodeRule parses the external rule JSON shape into a Rule, failing fast
// (ErrInvalidConfiguration) when the trigger isn't temporal or the pattern
// tag is unrecognized.
func DecodeRule(raw []byte) (*Rule, error) {
	var wire ruleWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: malformed rule: %v", ErrInvalidConfiguration, err)
	}

	if wire.Trigger.Type != "temporal" {
		return nil, fmt.Errorf("%w: rule %q has non-temporal trigger %q", ErrInvalidConfiguration, wire.ID, wire.Trigger.Type)
	}

	pattern, err := DecodePattern(wire.Trigger.Pattern)
	if err != nil {
		return nil, err
	}

	return &Rule{ID: wire.ID, Enabled: wire.Enabled, Pattern: pattern}, nil
}
