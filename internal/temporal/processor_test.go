/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cepengine/internal/config"
	"cepengine/internal/eventstore"
	"cepengine/internal/logger"
	"cepengine/internal/models"
	"cepengine/internal/timer"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	base, err := logger.New(config.LoggerConfig{Level: "fatal"})
	require.NoError(t, err)
	return base
}

// newHarness wires an in-memory EventStore, a non-durable TimerManager, and
// a Processor together, started and ready to process events — the same
// minimal assembly internal/engine.New performs.
func newHarness(t *testing.T) (*Processor, *timer.Manager) {
	t.Helper()
	base := testLogger(t)
	store := eventstore.New(eventstore.DefaultConfig(), logger.NewComponentLogger(base, "eventstore"))
	timers := timer.New(nil, "test-instance", logger.NewComponentLogger(base, "timer"))
	require.NoError(t, timers.Start())
	t.Cleanup(func() { _ = timers.Stop() })

	proc := New(store, timers, logger.NewComponentLogger(base, "temporal"))
	return proc, timers
}

func mkEvent(topic string, data map[string]interface{}) *models.Event {
	return &models.Event{
		ID:        models.GenerateID(),
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// S1. Sequence match (spec.md §8).
func TestSequence_S1_BasicMatch(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-1",
		Enabled: true,
		Pattern: models.SequencePattern{
			Matchers: []models.EventMatcher{{Topic: "order.created"}, {Topic: "payment.received"}},
			Within:   "5m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	matches := proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	assert.Len(t, matches, 0)
	assert.Equal(t, 1, proc.Size())

	matches = proc.ProcessEvent(mkEvent("payment.received", map[string]interface{}{}))
	require.Len(t, matches, 1)
	assert.Len(t, matches[0].MatchedEvents, 2)
	assert.Equal(t, 0, proc.Size())
}

// S2. Sequence groupBy isolation (spec.md §8).
func TestSequence_S2_GroupByIsolation(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-2",
		Enabled: true,
		Pattern: models.SequencePattern{
			Matchers: []models.EventMatcher{{Topic: "order.created"}, {Topic: "payment.received"}},
			Within:   "5m",
			GroupBy:  "orderId",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{"orderId": "A"}))
	proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{"orderId": "B"}))
	assert.Equal(t, 2, proc.Size())

	matches := proc.ProcessEvent(mkEvent("payment.received", map[string]interface{}{"orderId": "A"}))
	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].GroupKey)
	assert.Equal(t, "A", *matches[0].GroupKey)
	assert.Equal(t, 1, proc.Size())
}

func TestSequence_SingleMatcherCompletesImmediately(t *testing.T) {
	proc, timers := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-single",
		Enabled: true,
		Pattern: models.SequencePattern{Matchers: []models.EventMatcher{{Topic: "order.created"}}, Within: "5m"},
	}
	require.NoError(t, proc.RegisterRule(rule))

	matches := proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	require.Len(t, matches, 1)
	assert.Equal(t, 0, proc.Size())
	assert.Equal(t, 0, timers.Size())
}

func TestSequence_NonStrictIgnoresUnrelatedEvents(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-nonstrict",
		Enabled: true,
		Pattern: models.SequencePattern{
			Matchers: []models.EventMatcher{{Topic: "order.created"}, {Topic: "payment.received"}},
			Within:   "5m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	proc.ProcessEvent(mkEvent("some.unrelated", map[string]interface{}{}))
	assert.Equal(t, 1, proc.Size())

	matches := proc.ProcessEvent(mkEvent("payment.received", map[string]interface{}{}))
	require.Len(t, matches, 1)
}

func TestSequence_StrictExpiresOnUnrelatedEvent(t *testing.T) {
	proc, timers := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-strict",
		Enabled: true,
		Pattern: models.SequencePattern{
			Matchers: []models.EventMatcher{{Topic: "order.created"}, {Topic: "payment.received"}},
			Within:   "5m",
			Strict:   true,
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	assert.Equal(t, 1, proc.Size())

	proc.ProcessEvent(mkEvent("some.unrelated", map[string]interface{}{}))
	assert.Equal(t, 0, proc.Size())
	assert.Equal(t, 0, timers.Size())
}

func TestSequence_RepeatedFirstMatcherWhileMatchingIsIgnored(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-repeat",
		Enabled: true,
		Pattern: models.SequencePattern{
			Matchers: []models.EventMatcher{{Topic: "order.created"}, {Topic: "payment.received"}},
			Within:   "5m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	assert.Equal(t, 1, proc.Size())

	// A second "order.created" while the instance is already matching must
	// not create a second instance (spec.md §9 Open Question decision).
	proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	assert.Equal(t, 1, proc.Size())
}

// S3. Absence timeout fires (spec.md §8).
func TestAbsence_S3_TimeoutFires(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "absence-1",
		Enabled: true,
		Pattern: models.AbsencePattern{
			After:    models.EventMatcher{Topic: "order.created"},
			Expected: models.EventMatcher{Topic: "payment.received"},
			Within:   "15m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	matches := proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	assert.Len(t, matches, 0)
	require.Equal(t, 1, proc.Size())

	instances := proc.GetActiveInstances()
	require.Len(t, instances, 1)

	match, ok := proc.HandleTimeout(instances[0].ID)
	require.True(t, ok)
	assert.Equal(t, rule.ID, match.RuleID)
	assert.Equal(t, 0, proc.Size())
}

func TestAbsence_ExpectedBeforeAfterEmitsNothing(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "absence-2",
		Enabled: true,
		Pattern: models.AbsencePattern{
			After:    models.EventMatcher{Topic: "order.created"},
			Expected: models.EventMatcher{Topic: "payment.received"},
			Within:   "15m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	matches := proc.ProcessEvent(mkEvent("payment.received", map[string]interface{}{}))
	assert.Len(t, matches, 0)
	assert.Equal(t, 0, proc.Size())
}

func TestAbsence_ExpectedArrivesInTimeCancelsInstance(t *testing.T) {
	proc, timers := newHarness(t)
	rule := &models.Rule{
		ID:      "absence-3",
		Enabled: true,
		Pattern: models.AbsencePattern{
			After:    models.EventMatcher{Topic: "order.created"},
			Expected: models.EventMatcher{Topic: "payment.received"},
			Within:   "15m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	assert.Equal(t, 1, proc.Size())

	matches := proc.ProcessEvent(mkEvent("payment.received", map[string]interface{}{}))
	assert.Len(t, matches, 0)
	assert.Equal(t, 0, proc.Size())
	assert.Equal(t, 0, timers.Size())
}

// S4. Count with old events (spec.md §8).
func TestCount_S4_OldEventsCountTowardWindow(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "count-1",
		Enabled: true,
		Pattern: models.CountPattern{
			Matcher:    models.EventMatcher{Topic: "order.failed"},
			Threshold:  3,
			Comparison: models.ComparisonGTE,
			Window:     "1m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	now := time.Now().UnixMilli()
	proc.ProcessEvent(&models.Event{ID: models.GenerateID(), Topic: "order.failed", Data: map[string]interface{}{}, Timestamp: now - 30_000})
	proc.ProcessEvent(&models.Event{ID: models.GenerateID(), Topic: "order.failed", Data: map[string]interface{}{}, Timestamp: now - 20_000})

	matches := proc.ProcessEvent(&models.Event{ID: models.GenerateID(), Topic: "order.failed", Data: map[string]interface{}{}, Timestamp: now})
	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].Count)
	assert.Equal(t, 3, *matches[0].Count)
	assert.Equal(t, 0, proc.Size(), "count patterns never create instances")
}

func TestCount_BelowThresholdEmitsNothing(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "count-2",
		Enabled: true,
		Pattern: models.CountPattern{
			Matcher:   models.EventMatcher{Topic: "order.failed"},
			Threshold: 3,
			Window:    "1m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	matches := proc.ProcessEvent(mkEvent("order.failed", map[string]interface{}{}))
	assert.Len(t, matches, 0)
}

// S5. Aggregate sum with mixed types (spec.md §8).
func TestAggregate_S5_SumSkipsNonNumeric(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "agg-1",
		Enabled: true,
		Pattern: models.AggregatePattern{
			Matcher:    models.EventMatcher{Topic: "data"},
			Field:      "value",
			Function:   models.FuncSum,
			Threshold:  10,
			Comparison: models.ComparisonGTE,
			Window:     "1m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	now := time.Now().UnixMilli()
	proc.ProcessEvent(&models.Event{ID: models.GenerateID(), Topic: "data", Timestamp: now, Data: map[string]interface{}{"value": "not a number"}})
	proc.ProcessEvent(&models.Event{ID: models.GenerateID(), Topic: "data", Timestamp: now, Data: map[string]interface{}{"value": float64(15)}})
	proc.ProcessEvent(&models.Event{ID: models.GenerateID(), Topic: "data", Timestamp: now, Data: map[string]interface{}{"value": nil}})

	matches := proc.ProcessEvent(&models.Event{ID: models.GenerateID(), Topic: "data", Timestamp: now, Data: map[string]interface{}{"value": float64(0)}})
	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].AggregateValue)
	assert.Equal(t, float64(15), *matches[0].AggregateValue)
	require.NotNil(t, matches[0].Count)
	assert.Equal(t, 4, *matches[0].Count)
	assert.Len(t, matches[0].MatchedEvents, 4)
}

func TestAggregate_EmptyNumericSliceNeverEmits(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "agg-2",
		Enabled: true,
		Pattern: models.AggregatePattern{
			Matcher:  models.EventMatcher{Topic: "data"},
			Field:    "value",
			Function: models.FuncSum,
			Window:   "1m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	matches := proc.ProcessEvent(mkEvent("data", map[string]interface{}{"value": "nope"}))
	assert.Len(t, matches, 0)
}

func TestAggregate_CountFunctionIgnoresField(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "agg-3",
		Enabled: true,
		Pattern: models.AggregatePattern{
			Matcher:    models.EventMatcher{Topic: "data"},
			Function:   models.FuncCount,
			Threshold:  1,
			Comparison: models.ComparisonGTE,
			Window:     "1m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))

	matches := proc.ProcessEvent(mkEvent("data", map[string]interface{}{}))
	require.Len(t, matches, 1)
	assert.Equal(t, float64(1), *matches[0].AggregateValue)
}

func TestUnregisterRule_RemovesInstancesAndTimers(t *testing.T) {
	proc, timers := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-unreg",
		Enabled: true,
		Pattern: models.SequencePattern{
			Matchers: []models.EventMatcher{{Topic: "order.created"}, {Topic: "payment.received"}},
			Within:   "5m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))
	proc.ProcessEvent(mkEvent("order.created", map[string]interface{}{}))
	require.Equal(t, 1, proc.Size())
	require.Equal(t, 1, timers.Size())

	ok := proc.UnregisterRule(rule.ID)
	assert.True(t, ok)
	assert.Equal(t, 0, proc.Size())
	assert.Equal(t, 0, timers.Size())
	assert.Len(t, proc.GetInstancesForRule(rule.ID), 0)

	assert.False(t, proc.UnregisterRule(rule.ID), "unregistering twice is a no-op, not an error")
}

func TestRegisterRule_RejectsMissingPattern(t *testing.T) {
	proc, _ := newHarness(t)
	err := proc.RegisterRule(&models.Rule{ID: "bad", Enabled: true})
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
}

func TestRegisterRule_RejectsInvalidPattern(t *testing.T) {
	proc, _ := newHarness(t)
	err := proc.RegisterRule(&models.Rule{
		ID:      "bad-count",
		Enabled: true,
		Pattern: models.CountPattern{Matcher: models.EventMatcher{Topic: "a"}, Threshold: -1, Window: "1m"},
	})
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
}

func TestOnMatch_CallbackInvokedSynchronously(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-cb",
		Enabled: true,
		Pattern: models.SequencePattern{Matchers: []models.EventMatcher{{Topic: "a"}}, Within: "5m"},
	}
	require.NoError(t, proc.RegisterRule(rule))

	var got models.Match
	called := false
	proc.OnMatch(func(m models.Match) {
		called = true
		got = m
	})

	proc.ProcessEvent(mkEvent("a", map[string]interface{}{}))
	assert.True(t, called)
	assert.Equal(t, rule.ID, got.RuleID)
}

func TestDisabledRuleNeverMatches(t *testing.T) {
	proc, _ := newHarness(t)
	rule := &models.Rule{
		ID:      "disabled",
		Enabled: false,
		Pattern: models.SequencePattern{Matchers: []models.EventMatcher{{Topic: "a"}}, Within: "5m"},
	}
	require.NoError(t, proc.RegisterRule(rule))

	matches := proc.ProcessEvent(mkEvent("a", map[string]interface{}{}))
	assert.Len(t, matches, 0)
}

func TestClear_RemovesEverything(t *testing.T) {
	proc, timers := newHarness(t)
	rule := &models.Rule{
		ID:      "seq-clear",
		Enabled: true,
		Pattern: models.SequencePattern{
			Matchers: []models.EventMatcher{{Topic: "a"}, {Topic: "b"}},
			Within:   "5m",
		},
	}
	require.NoError(t, proc.RegisterRule(rule))
	proc.ProcessEvent(mkEvent("a", map[string]interface{}{}))
	require.Equal(t, 1, proc.Size())

	proc.Clear()
	assert.Equal(t, 0, proc.Size())
	assert.Equal(t, 0, timers.Size())
	assert.Len(t, proc.GetActiveInstances(), 0)
}
