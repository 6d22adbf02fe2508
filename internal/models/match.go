/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

import "encoding/json"

// Match is emitted when a rule's pattern completes (spec.md §6).
type Match struct {
	RuleID         string   `json:"ruleId"`
	InstanceID     string   `json:"instanceId"`
	Pattern        Pattern  `json:"pattern"`
	MatchedEvents  []*Event `json:"matchedEvents"`
	GroupKey       *string  `json:"groupKey,omitempty"`
	AggregateValue *float64 `json:"aggregateValue,omitempty"`
	Count          *int     `json:"count,omitempty"`
}

// MarshalJSON re-attaches the pattern's "type" tag (spec.md §6 Match
// shape), the same way EncodePattern does for a standalone Pattern value —
// a plain encoding/json pass over the Pattern interface field would drop it.
func (m Match) MarshalJSON() ([]byte, error) {
	type alias Match
	patternJSON, err := EncodePattern(m.Pattern)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		alias
		Pattern json.RawMessage `json:"pattern"`
	}{alias: alias(m), Pattern: patternJSON})
}
