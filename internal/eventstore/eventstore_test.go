/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cepengine/internal/config"
	"cepengine/internal/logger"
	"cepengine/internal/models"
)

func testLogger(t *testing.T) logger.ComponentLogger {
	t.Helper()
	base, err := logger.New(config.LoggerConfig{Level: "fatal"})
	require.NoError(t, err)
	return logger.NewComponentLogger(base, "eventstore-test")
}

func mkEvent(topic string, ts int64) *models.Event {
	return &models.Event{ID: models.GenerateID(), Topic: topic, Timestamp: ts, Data: map[string]interface{}{}}
}

func TestStore_RetainsEventsInArrivalOrder(t *testing.T) {
	s := New(DefaultConfig(), testLogger(t))
	s.Store(mkEvent("a", 100))
	s.Store(mkEvent("b", 100))

	got := s.GetInTimeRange("*", 0, 1000)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Topic)
	assert.Equal(t, "b", got[1].Topic)
}

func TestGetInTimeRange_FiltersByTopicAndWindow(t *testing.T) {
	s := New(DefaultConfig(), testLogger(t))
	s.Store(mkEvent("orders.created", 100))
	s.Store(mkEvent("orders.shipped", 200))
	s.Store(mkEvent("users.created", 150))

	got := s.GetInTimeRange("orders.*", 0, 1000)
	require.Len(t, got, 2)

	got = s.GetInTimeRange("orders.*", 0, 120)
	require.Len(t, got, 1)
	assert.Equal(t, "orders.created", got[0].Topic)
}

func TestEvict_ByMaxEvents(t *testing.T) {
	s := New(Config{MaxEvents: 2}, testLogger(t))
	s.Store(mkEvent("a", 1))
	s.Store(mkEvent("b", 2))
	s.Store(mkEvent("c", 3))

	assert.Equal(t, 2, s.Size())
	got := s.GetInTimeRange("*", 0, 100)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Topic)
	assert.Equal(t, "c", got[1].Topic)
}

func TestEvict_ByMaxAge(t *testing.T) {
	s := New(Config{MaxAge: 10 * time.Millisecond, MaxEvents: 1000}, testLogger(t))
	s.Store(mkEvent("old", 0))
	s.Store(mkEvent("new", 100))

	assert.Equal(t, 1, s.Size())
	got := s.GetInTimeRange("*", 0, 1000)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Topic)
}

// spec.md S4: events may arrive with non-monotonic timestamps (an
// old-then-new sequence). Age eviction must still keep every record within
// the window regardless of arrival position.
func TestEvict_ByMaxAge_OutOfOrderArrival(t *testing.T) {
	s := New(Config{MaxAge: 10 * time.Millisecond, MaxEvents: 1000}, testLogger(t))
	s.Store(mkEvent("newest", 100))
	s.Store(mkEvent("stale", 0))
	s.Store(mkEvent("also-recent", 95))

	got := s.GetInTimeRange("*", 0, 1000)
	require.Len(t, got, 2)
	topics := []string{got[0].Topic, got[1].Topic}
	assert.ElementsMatch(t, []string{"newest", "also-recent"}, topics)
}

func TestClear_DropsEverything(t *testing.T) {
	s := New(DefaultConfig(), testLogger(t))
	s.Store(mkEvent("a", 1))
	s.Clear()
	assert.Equal(t, 0, s.Size())
}
