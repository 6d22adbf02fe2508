/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package engine wires EventStore, TimerManager, and TemporalProcessor
// together behind a single serialized command loop, per spec.md §5 and §9:
// "wrap the engine in a serialized command processor... a single worker
// consumes them from a queue." Grounded on the teacher's
// timewheel.Manager.processRequests command-channel idiom
// (src/timewheel/manager_core.go), generalized from a JSON request/response
// channel pair to a typed command queue.
package engine

import (
	"fmt"
	"sync"

	"cepengine/internal/config"
	"cepengine/internal/eventstore"
	"cepengine/internal/logger"
	"cepengine/internal/metrics"
	"cepengine/internal/models"
	"cepengine/internal/storage"
	"cepengine/internal/temporal"
	"cepengine/internal/timer"
)

// commandQueueSize bounds the engine loop's inbox. A full queue applies
// backpressure to producers rather than growing unbounded (spec.md §9).
const commandQueueSize = 1024

// command is the closed set of operations the engine loop serializes,
// per spec.md §9: "{IngestEvent, ScheduleTimer, CancelTimer, Unregister, ...}".
type command struct {
	kind commandKind
	done chan struct{}

	event      *models.Event
	rule       *models.Rule
	ruleID     string
	timerName  string
	instanceID string
	result     []models.Match
	boolResult bool
	errResult  error
}

type commandKind int

const (
	cmdIngestEvent commandKind = iota
	cmdRegisterRule
	cmdUnregisterRule
	cmdCancelTimer
	cmdHandleTimeout
)

// recentMatchesCap bounds the GET /v1/matches/recent observability
// ring buffer (spec.md §6 "not polled over REST" — this is an
// ambient convenience, not a durable record).
const recentMatchesCap = 200

// Engine is the top-level runtime: the assembled EventStore, TimerManager,
// and TemporalProcessor, driven by one command-loop goroutine so that all
// public operations are serialized (spec.md §5 "Scheduling model").
type Engine struct {
	store     *eventstore.EventStore
	timers    *timer.Manager
	processor *temporal.Processor
	metrics   *metrics.Registry
	log       logger.ComponentLogger

	commands chan *command
	stopCh   chan struct{}

	recentMu      sync.Mutex
	recentMatches []models.Match
}

// New assembles an Engine from configuration. adapter is the
// storage.Adapter selected by cfg.Storage.Type (nil is never passed —
// storage.New always returns a usable adapter, memory-backed by default).
// base is the shared *logger.Logger each subcomponent tags with its own
// component name.
func New(cfg *config.Config, adapter storage.Adapter, reg *metrics.Registry, base *logger.Logger) *Engine {
	store := eventstore.New(eventstore.DefaultConfig(), logger.NewComponentLogger(base, "eventstore"))
	timers := timer.New(adapter, cfg.InstanceName, logger.NewComponentLogger(base, "timer"))
	processor := temporal.New(store, timers, logger.NewComponentLogger(base, "temporal"))
	log := logger.NewComponentLogger(base, "engine")

	e := &Engine{
		store:     store,
		timers:    timers,
		processor: processor,
		metrics:   reg,
		log:       log,
		commands:  make(chan *command, commandQueueSize),
		stopCh:    make(chan struct{}),
	}

	processor.OnMatch(func(m models.Match) {
		e.log.Info("pattern matched", logger.String("ruleId", m.RuleID), logger.String("instanceId", m.InstanceID))
		if e.metrics != nil {
			e.metrics.MatchesEmitted.Inc()
		}
		e.recordRecentMatch(m)
	})

	// Every timer expiration — including a pattern instance's scheduled
	// deadline — is funneled back through the serialized command loop
	// instead of being handled on the timer manager's own firing-loop
	// goroutine (spec.md §5/§9: one input, event or timer expiration,
	// processed to completion before the next starts).
	timers.OnExpire(func(name string, onExpire models.OnExpire) {
		if onExpire.Topic != "temporal.timeout" {
			return
		}
		instanceID, _ := onExpire.Data["instanceId"].(string)
		if instanceID == "" {
			return
		}
		e.submit(&command{kind: cmdHandleTimeout, instanceID: instanceID})
	})

	return e
}

// recordRecentMatch appends m to the bounded observability ring buffer
// backing GET /v1/matches/recent.
func (e *Engine) recordRecentMatch(m models.Match) {
	e.recentMu.Lock()
	defer e.recentMu.Unlock()

	e.recentMatches = append(e.recentMatches, m)
	if len(e.recentMatches) > recentMatchesCap {
		e.recentMatches = e.recentMatches[len(e.recentMatches)-recentMatchesCap:]
	}
}

// RecentMatches returns the most recent matches emitted, newest last.
func (e *Engine) RecentMatches() []models.Match {
	e.recentMu.Lock()
	defer e.recentMu.Unlock()

	out := make([]models.Match, len(e.recentMatches))
	copy(out, e.recentMatches)
	return out
}

// Start launches the timer manager (performing durable recovery if
// configured) and the command loop.
func (e *Engine) Start() error {
	if err := e.timers.Start(); err != nil {
		return fmt.Errorf("start timer manager: %w", err)
	}
	go e.run()
	return nil
}

// Stop drains no further commands and shuts down the timer manager.
func (e *Engine) Stop() error {
	close(e.stopCh)
	return e.timers.Stop()
}

// run is the single command-processing goroutine (spec.md §9).
func (e *Engine) run() {
	for {
		select {
		case cmd := <-e.commands:
			e.dispatch(cmd)
			close(cmd.done)
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) dispatch(cmd *command) {
	switch cmd.kind {
	case cmdIngestEvent:
		cmd.result = e.processor.ProcessEvent(cmd.event)
		if e.metrics != nil {
			e.metrics.EventsProcessed.Inc()
		}
	case cmdRegisterRule:
		cmd.errResult = e.processor.RegisterRule(cmd.rule)
	case cmdUnregisterRule:
		cmd.boolResult = e.processor.UnregisterRule(cmd.ruleID)
	case cmdCancelTimer:
		cmd.boolResult = e.timers.CancelTimer(cmd.timerName)
		if cmd.boolResult && e.metrics != nil {
			e.metrics.TimersCancelled.Inc()
		}
	case cmdHandleTimeout:
		e.processor.HandleTimeout(cmd.instanceID)
	}

	if e.metrics != nil {
		e.metrics.ActiveInstances.Set(float64(e.processor.Size()))
		e.metrics.ActiveTimers.Set(float64(e.timers.Size()))
	}
}

// submit enqueues cmd and blocks until the engine loop has processed it.
func (e *Engine) submit(cmd *command) {
	cmd.done = make(chan struct{})
	e.commands <- cmd
	<-cmd.done
}

// IngestEvent stores event and dispatches it to every registered rule,
// returning every match produced synchronously (spec.md §4.3 processEvent).
func (e *Engine) IngestEvent(event *models.Event) []models.Match {
	cmd := &command{kind: cmdIngestEvent, event: event}
	e.submit(cmd)
	return cmd.result
}

// RegisterRule registers a temporal rule.
func (e *Engine) RegisterRule(rule *models.Rule) error {
	cmd := &command{kind: cmdRegisterRule, rule: rule}
	e.submit(cmd)
	return cmd.errResult
}

// UnregisterRule removes a rule and all its live instances/timers.
func (e *Engine) UnregisterRule(ruleID string) bool {
	cmd := &command{kind: cmdUnregisterRule, ruleID: ruleID}
	e.submit(cmd)
	return cmd.boolResult
}

// CancelTimer cancels a named timer directly (bypassing pattern logic —
// used by administrative surfaces, e.g. the REST API).
func (e *Engine) CancelTimer(name string) bool {
	cmd := &command{kind: cmdCancelTimer, timerName: name}
	e.submit(cmd)
	return cmd.boolResult
}

// GetActiveInstances, GetInstancesForRule, GetAllTimers, and GetTimer are
// read-only introspection calls. Per spec.md §5 they don't strictly need
// to be serialized through the command loop (they don't mutate state),
// so they go straight to the underlying components, which guard
// themselves with their own mutexes.

func (e *Engine) GetActiveInstances() []*models.PatternInstance {
	return e.processor.GetActiveInstances()
}

func (e *Engine) GetInstancesForRule(ruleID string) []*models.PatternInstance {
	return e.processor.GetInstancesForRule(ruleID)
}

func (e *Engine) GetAllTimers() []models.Timer {
	return e.timers.GetAll()
}

func (e *Engine) GetTimer(name string) (models.Timer, bool) {
	return e.timers.GetTimer(name)
}

func (e *Engine) InstanceCount() int {
	return e.processor.Size()
}

func (e *Engine) TimerCount() int {
	return e.timers.Size()
}
