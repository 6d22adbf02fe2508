/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package temporal is the TemporalProcessor from spec.md §4.3: the
// stateful, multi-instance matcher for the four CEP pattern families.
// Grounded on the teacher's arena-with-indices idiom (src/core/server's
// PID/process managers keep a primary map plus secondary lookup indices,
// updated together on create/remove) and on its single tagged-variant
// dispatch style (src/core/models token/timer type enums with an
// exhaustive switch).
package temporal

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"cepengine/internal/durations"
	"cepengine/internal/eventstore"
	"cepengine/internal/logger"
	"cepengine/internal/models"
	"cepengine/internal/timer"
)

// MatchFunc is the callback subscribed through OnMatch.
type MatchFunc func(match models.Match)

// Processor is the spec.md §4.3 TemporalProcessor.
type Processor struct {
	mu     sync.Mutex
	store  *eventstore.EventStore
	timers *timer.Manager
	log    logger.ComponentLogger

	rules   map[string]*models.Rule
	byId    map[string]*models.PatternInstance
	byRule  map[string]map[string]struct{}
	byGroup map[string]map[string]struct{}

	matchCallbacks []MatchFunc
}

// New wires a Processor to its EventStore and TimerManager. It does not
// itself subscribe to timer expirations: the owning engine is responsible
// for routing `temporal.timeout` firings into HandleTimeout through its own
// serialized command loop (spec.md §5/§9), so that a timer expiration never
// interleaves with an in-flight ProcessEvent call.
func New(store *eventstore.EventStore, timers *timer.Manager, log logger.ComponentLogger) *Processor {
	return &Processor{
		store:   store,
		timers:  timers,
		log:     log,
		rules:   make(map[string]*models.Rule),
		byId:    make(map[string]*models.PatternInstance),
		byRule:  make(map[string]map[string]struct{}),
		byGroup: make(map[string]map[string]struct{}),
	}
}

// RegisterRule implements spec.md §4.3 registerRule: the rule must carry a
// temporal trigger (already true by construction here, since models.Rule
// only models temporal triggers — see models.DecodeRule).
func (p *Processor) RegisterRule(rule *models.Rule) error {
	if rule.Pattern == nil {
		return fmt.Errorf("%w: rule has no pattern", models.ErrInvalidConfiguration)
	}
	if err := rule.Pattern.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules[rule.ID] = rule
	return nil
}

// UnregisterRule implements spec.md §4.3 unregisterRule: removes every
// live instance for the rule and cancels their timers.
func (p *Processor) UnregisterRule(ruleID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.rules[ruleID]; !exists {
		return false
	}
	delete(p.rules, ruleID)

	for instanceID := range p.byRule[ruleID] {
		p.removeInstanceLocked(instanceID)
	}
	delete(p.byRule, ruleID)
	return true
}

// OnMatch subscribes fn to future matches (spec.md §4.3).
func (p *Processor) OnMatch(fn MatchFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matchCallbacks = append(p.matchCallbacks, fn)
}

// GetActiveInstances returns every live pattern instance.
func (p *Processor) GetActiveInstances() []*models.PatternInstance {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*models.PatternInstance, 0, len(p.byId))
	for _, inst := range p.byId {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetInstancesForRule returns every live instance for ruleID.
func (p *Processor) GetInstancesForRule(ruleID string) []*models.PatternInstance {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := p.byRule[ruleID]
	out := make([]*models.PatternInstance, 0, len(ids))
	for id := range ids {
		out = append(out, p.byId[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear removes every rule and instance (test/administrative use).
func (p *Processor) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id := range p.byId {
		p.removeInstanceLocked(id)
	}
	p.rules = make(map[string]*models.Rule)
	p.byRule = make(map[string]map[string]struct{})
	p.byGroup = make(map[string]map[string]struct{})
}

// Size returns the number of live pattern instances.
func (p *Processor) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byId)
}

// ProcessEvent implements spec.md §4.3 processEvent: stores the event,
// dispatches it to every enabled rule's pattern handler in rule-id order
// (an implementation-defined but deterministic order per spec.md §5), and
// returns every match produced synchronously, invoking onMatch for each.
func (p *Processor) ProcessEvent(event *models.Event) []models.Match {
	p.store.Store(event)

	p.mu.Lock()
	ruleIDs := make([]string, 0, len(p.rules))
	for id, r := range p.rules {
		if r.Enabled {
			ruleIDs = append(ruleIDs, id)
		}
	}
	sort.Strings(ruleIDs)
	p.mu.Unlock()

	var matches []models.Match
	for _, ruleID := range ruleIDs {
		p.mu.Lock()
		rule, exists := p.rules[ruleID]
		p.mu.Unlock()
		if !exists {
			continue
		}

		var m *models.Match
		switch pat := rule.Pattern.(type) {
		case models.SequencePattern:
			m = p.processSequence(rule, pat, event)
		case models.AbsencePattern:
			m = p.processAbsence(rule, pat, event)
		case models.CountPattern:
			m = p.processCount(rule, pat, event)
		case models.AggregatePattern:
			m = p.processAggregate(rule, pat, event)
		}

		if m != nil {
			matches = append(matches, *m)
			p.dispatchMatch(*m)
		}
	}

	return matches
}

// HandleTimeout implements spec.md §4.3 handleTimeout: called by the owning
// engine (via its serialized command loop) when a pattern instance's
// scheduled timer fires. Returns no match (not an error) for an unknown
// instance id. Any match produced is dispatched to onMatch subscribers
// before returning, mirroring ProcessEvent.
func (p *Processor) HandleTimeout(instanceID string) (models.Match, bool) {
	p.mu.Lock()

	inst, exists := p.byId[instanceID]
	if !exists {
		p.mu.Unlock()
		return models.Match{}, false
	}

	switch inst.Pattern.(type) {
	case models.SequencePattern:
		p.removeInstanceLocked(instanceID)
		p.mu.Unlock()
		return models.Match{}, false

	case models.AbsencePattern:
		inst.State = models.StateCompleted
		match := models.Match{
			RuleID:        inst.RuleID,
			InstanceID:    inst.ID,
			Pattern:       inst.Pattern,
			MatchedEvents: inst.MatchedEvents,
		}
		if inst.HasGroupKey {
			gk := inst.GroupKey
			match.GroupKey = &gk
		}
		p.removeInstanceLocked(instanceID)
		p.mu.Unlock()
		p.dispatchMatch(match)
		return match, true

	default:
		// Count/aggregate patterns never create instances and so never
		// schedule timers; reaching here would be an internal error.
		p.removeInstanceLocked(instanceID)
		p.mu.Unlock()
		return models.Match{}, false
	}
}

// dispatchMatch invokes every onMatch subscriber in subscription order.
// MatchFunc has no error return and is called without recovery, so a
// panicking subscriber propagates out of the caller; the match itself is
// never retracted.
func (p *Processor) dispatchMatch(match models.Match) {
	p.mu.Lock()
	callbacks := make([]MatchFunc, len(p.matchCallbacks))
	copy(callbacks, p.matchCallbacks)
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(match)
	}
}

// removeInstanceLocked deletes inst from all three indices and cancels
// its timer (spec.md §4.3 "Instance indexing"). Caller holds p.mu.
func (p *Processor) removeInstanceLocked(instanceID string) {
	inst, exists := p.byId[instanceID]
	if !exists {
		return
	}
	delete(p.byId, instanceID)

	if ruleSet, ok := p.byRule[inst.RuleID]; ok {
		delete(ruleSet, instanceID)
	}
	if inst.HasGroupKey {
		key := models.GroupIndexKey(inst.RuleID, inst.GroupKey)
		if groupSet, ok := p.byGroup[key]; ok {
			delete(groupSet, instanceID)
		}
	}

	p.timers.CancelTimer(models.TimerName(instanceID))
}

// addInstanceLocked inserts inst into all three indices. Caller holds p.mu.
func (p *Processor) addInstanceLocked(inst *models.PatternInstance) {
	p.byId[inst.ID] = inst

	if p.byRule[inst.RuleID] == nil {
		p.byRule[inst.RuleID] = make(map[string]struct{})
	}
	p.byRule[inst.RuleID][inst.ID] = struct{}{}

	if inst.HasGroupKey {
		key := models.GroupIndexKey(inst.RuleID, inst.GroupKey)
		if p.byGroup[key] == nil {
			p.byGroup[key] = make(map[string]struct{})
		}
		p.byGroup[key][inst.ID] = struct{}{}
	}
}

// matchingInstanceLocked returns the single `matching` instance for
// (ruleId, groupKey), if any (spec.md §3 invariant (a)). Caller holds p.mu.
func (p *Processor) matchingInstanceLocked(ruleID, groupKey string, hasGroupKey bool) *models.PatternInstance {
	var candidates map[string]struct{}
	if hasGroupKey {
		candidates = p.byGroup[models.GroupIndexKey(ruleID, groupKey)]
	} else {
		candidates = p.byRule[ruleID]
	}
	for id := range candidates {
		inst := p.byId[id]
		if inst.State == models.StateMatching && inst.HasGroupKey == hasGroupKey && (!hasGroupKey || inst.GroupKey == groupKey) {
			return inst
		}
	}
	return nil
}

// scheduleInstanceTimer arms `temporal:<instanceId>` to fire after within,
// per spec.md §3 invariant (d).
func (p *Processor) scheduleInstanceTimer(instanceID string, within time.Duration) error {
	durMs := fmt.Sprintf("%dms", within.Milliseconds())
	_, err := p.timers.SetTimer(models.TimerConfig{
		Name:     models.TimerName(instanceID),
		Duration: &durMs,
		OnExpire: models.OnExpire{
			Topic: "temporal.timeout",
			Data:  map[string]interface{}{"instanceId": instanceID},
		},
	}, "")
	return err
}

// groupKeyOf extracts a pattern's group key from event data, or returns
// ("", false) when the pattern declares no groupBy (spec.md §4.3
// "Group-key extraction").
func groupKeyOf(groupBy string, event *models.Event) (string, bool) {
	if groupBy == "" {
		return "", false
	}
	return models.StringFieldAt(event.Data, groupBy), true
}

// parseWithin parses a within/window duration literal, wrapping any
// failure as ErrInvalidConfiguration.
func parseWithin(value string) (time.Duration, error) {
	d, err := durations.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrInvalidConfiguration, err)
	}
	return d, nil
}
