/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

// Event is an immutable record flowing through the engine: a typed topic,
// an arbitrary data payload, and an arrival timestamp.
type Event struct {
	ID        string                 `json:"id"`
	Topic     string                 `json:"topic"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"` // milliseconds since epoch
	Source    string                 `json:"source,omitempty"`
}

// EventMatcher specifies what an incoming event must look like to satisfy a
// pattern slot: a topic pattern and an optional field filter.
type EventMatcher struct {
	Topic  string                 `json:"topic"`
	Filter map[string]interface{} `json:"filter,omitempty"`
}

// Matches reports whether ev satisfies this matcher: topic pattern match
// and field filter match (see MatchTopic/MatchFilter in matching.go). Lives
// alongside Event so both eventstore and the temporal processor share one
// implementation instead of duplicating it.
func (m EventMatcher) Matches(ev *Event) bool {
	if !MatchTopic(m.Topic, ev.Topic) {
		return false
	}
	if len(m.Filter) == 0 {
		return true
	}
	return MatchFilter(m.Filter, ev.Data)
}
