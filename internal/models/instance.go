/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

import (
	"encoding/json"
	"time"
)

// InstanceState is a pattern instance's lifecycle state (spec.md §3),
// modeled as a closed string enum in the teacher's TimerState idiom.
type InstanceState string

const (
	StatePending   InstanceState = "pending"
	StateMatching  InstanceState = "matching"
	StateCompleted InstanceState = "completed"
	StateExpired   InstanceState = "expired"
)

// PatternInstance is the live state machine for one in-flight sequence or
// absence match attempt (spec.md §3). Count and aggregate patterns never
// create instances — they evaluate statelessly on each qualifying arrival.
type PatternInstance struct {
	ID            string
	RuleID        string
	Pattern       Pattern
	GroupKey      string
	HasGroupKey   bool
	MatchedEvents []*Event
	StartedAt     time.Time
	ExpiresAt     time.Time
	State         InstanceState
}

// MarshalJSON re-attaches the pattern's "type" tag, mirroring Match's
// MarshalJSON — REST introspection of live instances needs the same
// tagged-variant shape as everywhere else the pattern crosses the wire.
func (inst PatternInstance) MarshalJSON() ([]byte, error) {
	type alias PatternInstance
	patternJSON, err := EncodePattern(inst.Pattern)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		alias
		Pattern json.RawMessage `json:"pattern"`
	}{alias: alias(inst), Pattern: patternJSON})
}

// GroupIndexKey is the byGroup index key format from spec.md §4.3:
// "<ruleId>:<groupKey>".
func GroupIndexKey(ruleID, groupKey string) string {
	return ruleID + ":" + groupKey
}

// TimerName is the temporal timer naming convention from spec.md §3/§4.3:
// "temporal:<instanceId>".
func TimerName(instanceID string) string {
	return "temporal:" + instanceID
}
