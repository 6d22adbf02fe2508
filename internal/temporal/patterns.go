/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package temporal

import (
	"time"

	"cepengine/internal/logger"
	"cepengine/internal/models"
)

// processSequence implements spec.md §4.3.1.
func (p *Processor) processSequence(rule *models.Rule, pat models.SequencePattern, event *models.Event) *models.Match {
	p.mu.Lock()
	defer p.mu.Unlock()

	groupKey, hasGroupKey := groupKeyOf(pat.GroupBy, event)

	// Step 1: advance the single matching instance for this (rule, group).
	if inst := p.matchingInstanceLocked(rule.ID, groupKey, hasGroupKey); inst != nil {
		nextMatcher := pat.Matchers[len(inst.MatchedEvents)]
		if nextMatcher.Matches(event) {
			inst.MatchedEvents = append(inst.MatchedEvents, event)
			if len(inst.MatchedEvents) == len(pat.Matchers) {
				inst.State = models.StateCompleted
				match := sequenceMatch(inst, hasGroupKey, groupKey)
				p.removeInstanceLocked(inst.ID)
				return &match
			}
			return nil
		}
		if pat.Strict {
			inst.State = models.StateExpired
			p.removeInstanceLocked(inst.ID)
		}
		// non-strict, non-match: instance keeps waiting.
		return nil
	}

	// Step 2: does this event start a new instance?
	if !pat.Matchers[0].Matches(event) {
		return nil
	}

	groupKey, hasGroupKey = groupKeyOf(pat.GroupBy, event)
	if p.matchingInstanceLocked(rule.ID, groupKey, hasGroupKey) != nil {
		// Open Question resolution: a repeated first-matcher arrival while
		// an instance is already in flight is ignored, no new instance.
		return nil
	}

	inst := &models.PatternInstance{
		ID:            models.GenerateID(),
		RuleID:        rule.ID,
		Pattern:       pat,
		GroupKey:      groupKey,
		HasGroupKey:   hasGroupKey,
		MatchedEvents: []*models.Event{event},
		StartedAt:     time.Now(),
		State:         models.StateMatching,
	}

	if len(pat.Matchers) == 1 {
		inst.State = models.StateCompleted
		match := sequenceMatch(inst, hasGroupKey, groupKey)
		return &match
	}

	within, err := parseWithin(pat.Within)
	if err != nil {
		p.log.Error("invalid sequence pattern within duration", logger.String("rule", rule.ID))
		return nil
	}
	inst.ExpiresAt = inst.StartedAt.Add(within)

	p.addInstanceLocked(inst)
	if err := p.scheduleInstanceTimer(inst.ID, within); err != nil {
		p.log.Error("failed to schedule sequence timer", logger.String("rule", rule.ID), logger.String("instance", inst.ID))
	}

	return nil
}

func sequenceMatch(inst *models.PatternInstance, hasGroupKey bool, groupKey string) models.Match {
	match := models.Match{
		RuleID:        inst.RuleID,
		InstanceID:    inst.ID,
		Pattern:       inst.Pattern,
		MatchedEvents: inst.MatchedEvents,
	}
	if hasGroupKey {
		gk := groupKey
		match.GroupKey = &gk
	}
	return match
}

// processAbsence implements spec.md §4.3.2.
func (p *Processor) processAbsence(rule *models.Rule, pat models.AbsencePattern, event *models.Event) *models.Match {
	p.mu.Lock()
	defer p.mu.Unlock()

	groupKey, hasGroupKey := groupKeyOf(pat.GroupBy, event)

	if pat.Expected.Matches(event) {
		if inst := p.matchingInstanceLocked(rule.ID, groupKey, hasGroupKey); inst != nil {
			inst.State = models.StateExpired
			p.removeInstanceLocked(inst.ID)
		}
		return nil
	}

	if !pat.After.Matches(event) {
		return nil
	}
	if p.matchingInstanceLocked(rule.ID, groupKey, hasGroupKey) != nil {
		return nil
	}

	inst := &models.PatternInstance{
		ID:            models.GenerateID(),
		RuleID:        rule.ID,
		Pattern:       pat,
		GroupKey:      groupKey,
		HasGroupKey:   hasGroupKey,
		MatchedEvents: []*models.Event{event},
		StartedAt:     time.Now(),
		State:         models.StateMatching,
	}

	within, err := parseWithin(pat.Within)
	if err != nil {
		p.log.Error("invalid absence pattern within duration", logger.String("rule", rule.ID))
		return nil
	}
	inst.ExpiresAt = inst.StartedAt.Add(within)

	p.addInstanceLocked(inst)
	if err := p.scheduleInstanceTimer(inst.ID, within); err != nil {
		p.log.Error("failed to schedule absence timer", logger.String("rule", rule.ID), logger.String("instance", inst.ID))
	}

	return nil
}

// windowedSlice gathers the trailing window for count/aggregate patterns,
// per spec.md §4.3.3/§4.3.4: query the EventStore over [now-window, now]
// for the matcher's topic, then narrow by groupBy when declared.
func (p *Processor) windowedSlice(matcher models.EventMatcher, window time.Duration, groupBy string, groupKey string, hasGroupKey bool) []*models.Event {
	now := time.Now().UnixMilli()
	from := now - window.Milliseconds()

	candidates := p.store.GetInTimeRange(matcher.Topic, from, now)

	out := make([]*models.Event, 0, len(candidates))
	for _, ev := range candidates {
		if !matcher.Matches(ev) {
			continue
		}
		if hasGroupKey && models.StringFieldAt(ev.Data, groupBy) != groupKey {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// processCount implements spec.md §4.3.3. Stateless: no PatternInstance is
// ever created.
func (p *Processor) processCount(rule *models.Rule, pat models.CountPattern, event *models.Event) *models.Match {
	if !pat.Matcher.Matches(event) {
		return nil
	}

	window, err := parseWithin(pat.Window)
	if err != nil {
		p.log.Error("invalid count pattern window", logger.String("rule", rule.ID))
		return nil
	}

	groupKey, hasGroupKey := groupKeyOf(pat.GroupBy, event)
	slice := p.windowedSlice(pat.Matcher, window, pat.GroupBy, groupKey, hasGroupKey)

	comparison := pat.Comparison
	if comparison == "" {
		comparison = models.ComparisonGTE
	}
	if !comparison.Evaluate(float64(len(slice)), float64(pat.Threshold)) {
		return nil
	}

	count := len(slice)
	match := &models.Match{
		RuleID:        rule.ID,
		InstanceID:    models.GenerateID(),
		Pattern:       pat,
		MatchedEvents: slice,
		Count:         &count,
	}
	if hasGroupKey {
		gk := groupKey
		match.GroupKey = &gk
	}
	return match
}

// processAggregate implements spec.md §4.3.4. Stateless, same windowing as
// count.
func (p *Processor) processAggregate(rule *models.Rule, pat models.AggregatePattern, event *models.Event) *models.Match {
	if !pat.Matcher.Matches(event) {
		return nil
	}

	window, err := parseWithin(pat.Window)
	if err != nil {
		p.log.Error("invalid aggregate pattern window", logger.String("rule", rule.ID))
		return nil
	}

	groupKey, hasGroupKey := groupKeyOf(pat.GroupBy, event)
	slice := p.windowedSlice(pat.Matcher, window, pat.GroupBy, groupKey, hasGroupKey)

	var aggregateValue float64
	if pat.Function == models.FuncCount {
		aggregateValue = float64(len(slice))
	} else {
		values := make([]float64, 0, len(slice))
		for _, ev := range slice {
			if n, ok := models.NumberAt(ev.Data, pat.Field); ok {
				values = append(values, n)
			}
		}
		if len(values) == 0 {
			return nil
		}
		aggregateValue = reduce(pat.Function, values)
	}

	comparison := pat.Comparison
	if comparison == "" {
		comparison = models.ComparisonGTE
	}
	if !comparison.Evaluate(aggregateValue, pat.Threshold) {
		return nil
	}

	count := len(slice)
	match := &models.Match{
		RuleID:         rule.ID,
		InstanceID:     models.GenerateID(),
		Pattern:        pat,
		MatchedEvents:  slice,
		AggregateValue: &aggregateValue,
		Count:          &count,
	}
	if hasGroupKey {
		gk := groupKey
		match.GroupKey = &gk
	}
	return match
}

// reduce applies function over a non-empty numeric slice (spec.md §4.3.4
// "ordinary IEEE-754 double arithmetic").
func reduce(function models.AggregateFunction, values []float64) float64 {
	switch function {
	case models.FuncSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	case models.FuncAvg:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	case models.FuncMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case models.FuncMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	default:
		return float64(len(values))
	}
}
