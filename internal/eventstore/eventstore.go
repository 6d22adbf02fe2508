/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package eventstore is the time-indexed append store from spec.md §4.1:
// events are retained in arrival order and queried by topic pattern and
// time range. Grounded on the teacher's in-memory index idiom (a single
// mutex-guarded slice plus a monotonic sequence counter, the same shape as
// timewheel.HierarchicalTimingWheel's slot lists) rather than the BadgerDB
// entity stores, since the event store's working set is bounded by
// retention and doesn't need durability across restarts.
package eventstore

import (
	"sort"
	"sync"
	"time"

	"cepengine/internal/logger"
	"cepengine/internal/models"
)

// Config bounds retention (spec.md §4.1: "must support time-windowed
// queries up to the largest pattern window in active rules").
type Config struct {
	MaxAge    time.Duration
	MaxEvents int
}

// DefaultConfig retains 24 hours or 100k events, whichever is smaller.
func DefaultConfig() Config {
	return Config{MaxAge: 24 * time.Hour, MaxEvents: 100_000}
}

// record pairs a stored event with its arrival sequence number, used to
// break timestamp ties in query order (spec.md §4.1: "ties broken by
// arrival sequence").
type record struct {
	event *models.Event
	seq   uint64
}

// EventStore is an append-only, retention-bounded event log.
type EventStore struct {
	mu      sync.RWMutex
	records []record
	nextSeq uint64
	cfg     Config
	log     logger.ComponentLogger
}

// New creates an EventStore with the given retention config.
func New(cfg Config, log logger.ComponentLogger) *EventStore {
	return &EventStore{cfg: cfg, log: log}
}

// Store appends event in arrival order, then evicts anything past
// retention.
func (s *EventStore) Store(event *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	s.records = append(s.records, record{event: event, seq: s.nextSeq})
	s.evictLocked()
}

// evictLocked drops events older than MaxAge (relative to the most recent
// timestamp seen) or beyond MaxEvents, whichever triggers first. Caller
// holds s.mu.
//
// Records are kept in arrival order, not timestamp order — spec.md S4
// allows events to arrive with non-monotonic timestamps (an old-then-new
// sequence), so age eviction can't binary-search for the cutoff the way it
// could if arrival implied a sorted timestamp. It instead scans once and
// keeps every record still within the window, wherever it sits in the
// slice.
func (s *EventStore) evictLocked() {
	if s.cfg.MaxEvents > 0 && len(s.records) > s.cfg.MaxEvents {
		drop := len(s.records) - s.cfg.MaxEvents
		s.records = s.records[drop:]
	}

	if s.cfg.MaxAge <= 0 || len(s.records) == 0 {
		return
	}

	var newest int64
	for _, r := range s.records {
		if r.event.Timestamp > newest {
			newest = r.event.Timestamp
		}
	}
	cutoff := newest - s.cfg.MaxAge.Milliseconds()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.event.Timestamp >= cutoff {
			kept = append(kept, r)
		}
	}
	s.records = kept
}

// GetInTimeRange returns every stored event whose timestamp is in
// [fromMs, toMs] and whose topic matches topicPattern (spec.md §4.1),
// ordered by (timestamp, arrival sequence).
func (s *EventStore) GetInTimeRange(topicPattern string, fromMs, toMs int64) []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []record
	for _, r := range s.records {
		if r.event.Timestamp < fromMs || r.event.Timestamp > toMs {
			continue
		}
		if !models.MatchTopic(topicPattern, r.event.Topic) {
			continue
		}
		hits = append(hits, r)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].event.Timestamp != hits[j].event.Timestamp {
			return hits[i].event.Timestamp < hits[j].event.Timestamp
		}
		return hits[i].seq < hits[j].seq
	})

	var out []*models.Event
	for _, r := range hits {
		out = append(out, r.event)
	}
	return out
}

// Size returns the number of retained events.
func (s *EventStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear drops all retained events.
func (s *EventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}
