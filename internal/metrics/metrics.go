/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package metrics exposes the engine's Prometheus instrumentation,
// mounted at GET /metrics by internal/restapi. prometheus/client_golang
// is wired the same way in cklxx-elephant.ai and purpleidea-mgmt; this is
// the DOMAIN STACK wiring recorded in SPEC_FULL.md for observability.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every counter/gauge the engine emits, plus the
// underlying *prometheus.Registry so internal/restapi can mount it as a
// Gatherer behind GET /metrics.
type Registry struct {
	Gatherer *prometheus.Registry

	EventsProcessed prometheus.Counter
	MatchesEmitted  prometheus.Counter
	TimersScheduled prometheus.Counter
	TimersFired     prometheus.Counter
	TimersCancelled prometheus.Counter
	ActiveInstances prometheus.Gauge
	ActiveTimers    prometheus.Gauge
}

// New builds and registers a fresh Registry against reg.
func New(reg *prometheus.Registry) *Registry {
	r := &Registry{
		Gatherer: reg,
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cepengine_events_processed_total",
			Help: "Total events ingested by the temporal processor.",
		}),
		MatchesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cepengine_matches_emitted_total",
			Help: "Total pattern matches emitted.",
		}),
		TimersScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cepengine_timers_scheduled_total",
			Help: "Total timers scheduled via setTimer.",
		}),
		TimersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cepengine_timers_fired_total",
			Help: "Total timer expirations delivered.",
		}),
		TimersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cepengine_timers_cancelled_total",
			Help: "Total timers cancelled.",
		}),
		ActiveInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cepengine_active_pattern_instances",
			Help: "Current number of live pattern instances.",
		}),
		ActiveTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cepengine_active_timers",
			Help: "Current number of live timers.",
		}),
	}

	reg.MustRegister(
		r.EventsProcessed,
		r.MatchesEmitted,
		r.TimersScheduled,
		r.TimersFired,
		r.TimersCancelled,
		r.ActiveInstances,
		r.ActiveTimers,
	)

	return r
}
