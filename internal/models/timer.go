/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

import "time"

// OnExpire is the payload a timer delivers when it fires: an internal
// event topic + data (spec.md §3).
type OnExpire struct {
	Topic string                 `json:"topic"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// RepeatConfig is duration+repeat semantics: fixed-interval rescheduling
// from the previous fire. The fire-count ceiling lives on TimerConfig/Timer
// directly (MaxCount) since it applies equally to duration-repeat and cron
// timers, not just interval-driven ones.
type RepeatConfig struct {
	IntervalMs int64 `json:"intervalMs"`
}

// TimerConfig is the input to TimerManager.SetTimer (spec.md §4.2):
// exactly one of Duration or Cron must be set; Repeat (interval-based
// rescheduling) is mutually exclusive with Cron. MaxCount is independent of
// both — it bounds the fire count for either a duration-repeat or a cron
// timer (spec.md §8: "Cron maxCount=1 fires exactly once then removes
// itself").
type TimerConfig struct {
	Name     string        `json:"name"`
	Duration *string       `json:"duration,omitempty"` // duration literal, see internal/durations
	Cron     *string       `json:"cron,omitempty"`
	Repeat   *RepeatConfig `json:"repeat,omitempty"`
	MaxCount *int          `json:"maxCount,omitempty"`
	OnExpire OnExpire      `json:"onExpire"`
}

// Timer is the live, schedulable unit the manager tracks (spec.md §3).
type Timer struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	ExpiresAt     time.Time     `json:"expiresAt"`
	OnExpire      OnExpire      `json:"onExpire"`
	Repeat        *RepeatConfig `json:"repeat,omitempty"`
	Cron          *string       `json:"cron,omitempty"`
	MaxCount      *int          `json:"maxCount,omitempty"`
	CorrelationID string        `json:"correlationId,omitempty"`
}

// TimerMetadata is the persisted sidecar record the durable adapter stores
// (spec.md §3/§6): exactly one per live durable timer.
type TimerMetadata struct {
	Name             string        `json:"name"`
	DurableTimerID   string        `json:"durableTimerId"`
	TimerID          string        `json:"timerId"`
	OnExpire         OnExpire      `json:"onExpire"`
	FireCount        int           `json:"fireCount"`
	MaxCount         *int          `json:"maxCount,omitempty"`
	RepeatIntervalMs *int64        `json:"repeatIntervalMs,omitempty"`
	CronExpression   *string       `json:"cronExpression,omitempty"`
	CorrelationID    string        `json:"correlationId,omitempty"`
	ExpiresAtUnixMs  int64         `json:"expiresAtUnixMs"`
}

// MetadataEnvelope is the single-key persistence layout from spec.md §6:
// timer-manager:metadata -> {state:{entries:[...]}, metadata:{...}}.
type MetadataEnvelope struct {
	State    MetadataState `json:"state"`
	Metadata MetadataStamp `json:"metadata"`
}

// MetadataState wraps the entries array.
type MetadataState struct {
	Entries []TimerMetadata `json:"entries"`
}

// MetadataStamp carries the envelope's own bookkeeping.
type MetadataStamp struct {
	PersistedAt   time.Time `json:"persistedAt"`
	ServerID      string    `json:"serverId"`
	SchemaVersion int       `json:"schemaVersion"`
}

// CurrentSchemaVersion is the MetadataStamp.SchemaVersion this build writes.
const CurrentSchemaVersion = 1
