/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package timer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"cepengine/internal/cronparse"
	"cepengine/internal/durations"
	"cepengine/internal/logger"
	"cepengine/internal/models"
	"cepengine/internal/storage"
)

// MetadataKey is the spec's single well-known persistence key.
const MetadataKey = "timer-manager:metadata"

// ExpireFunc is the callback subscribed through OnExpire.
type ExpireFunc func(name string, onExpire models.OnExpire)

// liveTimer is the manager's in-memory record for one live timer — the
// spec's Timer snapshot plus the bookkeeping the expiration handler needs.
type liveTimer struct {
	timer         models.Timer
	fireCount     int
	cron          *cronparse.Schedule
	correlationID string
}

// Manager is the spec.md §4.2 TimerManager: named, optionally durable
// scheduler. Grounded on the teacher's Manager/HierarchicalTimingWheel
// split (src/timewheel/manager_core.go) — a scheduling primitive (wheel)
// driven by a single command goroutine, with a pluggable storage adapter
// standing in for the teacher's durable timer service.
type Manager struct {
	mu       sync.Mutex
	wheel    *wheel
	timers   map[string]*liveTimer
	adapter  storage.Adapter // nil => in-memory mode
	log      logger.ComponentLogger
	serverID string // stamped into MetadataStamp.ServerID on every persist

	callbacks []ExpireFunc

	timerCh  chan struct{} // wakes the firing loop when the next-due time changes
	stopCh   chan struct{}
	stopped  bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Manager. adapter may be nil for in-memory (non-durable)
// mode; otherwise Start performs the spec's recovery protocol. serverID
// identifies this process in the persisted metadata envelope's
// MetadataStamp (spec.md §6) — typically the engine's configured
// instance name.
func New(adapter storage.Adapter, serverID string, log logger.ComponentLogger) *Manager {
	return &Manager{
		wheel:    newWheel(),
		timers:   make(map[string]*liveTimer),
		adapter:  adapter,
		serverID: serverID,
		log:      log,
		timerCh:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Start performs durable-mode recovery (spec.md §4.2 "Recovery protocol")
// then launches the firing loop. In-memory mode (adapter == nil) just
// launches the firing loop.
func (m *Manager) Start() error {
	if m.adapter != nil {
		if err := m.recover(); err != nil {
			return err
		}
	}
	m.wg.Add(1)
	go m.run()
	return nil
}

// recover implements spec.md §4.2 recovery. There is no separate durable
// timer service whose records could go missing, so there is no orphan
// check: every persisted entry is rescheduled, except an entry whose cron
// expression no longer parses, which is logged and dropped. Cron
// recomputes from now; repeat/one-shot use remaining-time =
// max(0, storedFireAt-now).
func (m *Manager) recover() error {
	env, err := storage.LoadMetadataEnvelope(m.adapter, MetadataKey)
	if err != nil {
		return fmt.Errorf("%w: load timer metadata: %v", models.ErrStorageFailure, err)
	}

	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, meta := range env.State.Entries {
		lt := &liveTimer{
			timer: models.Timer{
				ID:            meta.TimerID,
				Name:          meta.Name,
				OnExpire:      meta.OnExpire,
				CorrelationID: meta.CorrelationID,
				Cron:          meta.CronExpression,
			},
			fireCount:     meta.FireCount,
			correlationID: meta.CorrelationID,
		}
		lt.timer.MaxCount = meta.MaxCount

		if meta.RepeatIntervalMs != nil {
			lt.timer.Repeat = &models.RepeatConfig{IntervalMs: *meta.RepeatIntervalMs}
		}

		var fireAt time.Time
		if meta.CronExpression != nil {
			sched, err := cronparse.Parse(*meta.CronExpression)
			if err != nil {
				m.log.Warn("dropping recovered timer with invalid cron", logger.String("name", meta.Name), logger.Err(err))
				continue
			}
			lt.cron = sched
			fireAt = sched.Next(now)
		} else {
			stored := time.UnixMilli(meta.ExpiresAtUnixMs)
			remaining := stored.Sub(now)
			if remaining < 0 {
				remaining = 0
			}
			fireAt = now.Add(remaining)
		}

		lt.timer.ExpiresAt = fireAt
		m.timers[meta.Name] = lt
		m.wheel.schedule(meta.Name, fireAt)
		m.log.Info("recovered durable timer", logger.String("name", meta.Name), logger.Any("fireAt", fireAt))
	}

	return m.persistLocked()
}

// SetTimer implements spec.md §4.2 setTimer.
func (m *Manager) SetTimer(cfg models.TimerConfig, correlationID string) (models.Timer, error) {
	if (cfg.Duration == nil) == (cfg.Cron == nil) {
		return models.Timer{}, fmt.Errorf("%w: exactly one of duration or cron must be set", models.ErrInvalidConfiguration)
	}
	if cfg.Cron != nil && cfg.Repeat != nil {
		return models.Timer{}, fmt.Errorf("%w: repeat is mutually exclusive with cron", models.ErrInvalidConfiguration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.timers[cfg.Name]; exists {
		m.cancelLocked(cfg.Name)
	}

	now := time.Now()
	lt := &liveTimer{
		timer: models.Timer{
			ID:            models.GenerateID(),
			Name:          cfg.Name,
			OnExpire:      cfg.OnExpire,
			Repeat:        cfg.Repeat,
			Cron:          cfg.Cron,
			MaxCount:      cfg.MaxCount,
			CorrelationID: correlationID,
		},
		correlationID: correlationID,
	}

	var fireAt time.Time
	if cfg.Cron != nil {
		sched, err := cronparse.Parse(*cfg.Cron)
		if err != nil {
			return models.Timer{}, fmt.Errorf("%w: %v", models.ErrInvalidConfiguration, err)
		}
		lt.cron = sched
		fireAt = sched.Next(now)
	} else {
		d, err := durations.Parse(*cfg.Duration)
		if err != nil {
			return models.Timer{}, fmt.Errorf("%w: %v", models.ErrInvalidConfiguration, err)
		}
		fireAt = now.Add(d)
	}
	lt.timer.ExpiresAt = fireAt

	m.timers[cfg.Name] = lt
	m.wheel.schedule(cfg.Name, fireAt)

	if err := m.persistLocked(); err != nil {
		return models.Timer{}, err
	}
	m.wake()

	return lt.timer, nil
}

// CancelTimer implements spec.md §4.2 cancelTimer: idempotent, true if
// something was actually removed.
func (m *Manager) CancelTimer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelLocked(name)
}

func (m *Manager) cancelLocked(name string) bool {
	if _, exists := m.timers[name]; !exists {
		return false
	}
	delete(m.timers, name)
	m.wheel.remove(name)
	_ = m.persistLocked()
	return true
}

// GetTimer returns the current snapshot for name, and whether it exists.
// Absence is not an error (spec.md §7 NotFound).
func (m *Manager) GetTimer(name string) (models.Timer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lt, exists := m.timers[name]
	if !exists {
		return models.Timer{}, false
	}
	return lt.timer, true
}

// GetAll returns every live timer, ordered by name for determinism.
func (m *Manager) GetAll() []models.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Timer, 0, len(m.timers))
	for _, lt := range m.timers {
		out = append(out, lt.timer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Size returns the number of live timers.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// OnExpire subscribes fn to every future expiration (spec.md §4.2).
func (m *Manager) OnExpire(fn ExpireFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Stop cancels every handle and shuts the firing loop down. Idempotent.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	m.wg.Wait()

	if m.adapter != nil {
		return m.adapter.Close()
	}
	return nil
}

// wake nudges the firing loop to re-evaluate its sleep deadline.
func (m *Manager) wake() {
	select {
	case m.timerCh <- struct{}{}:
	default:
	}
}

// run is the single firing-loop goroutine, grounded on the teacher's
// processRequests command-loop idiom (src/timewheel/manager_core.go),
// here driven by a timer instead of a request channel.
func (m *Manager) run() {
	defer m.wg.Done()

	for {
		wait := 5 * time.Second
		if next, ok := m.wheel.nextFireAt(); ok {
			if d := time.Until(next); d > 0 {
				wait = d
			} else {
				wait = 0
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-m.stopCh:
			timer.Stop()
			return
		case <-m.timerCh:
			timer.Stop()
			continue
		case <-timer.C:
		}

		m.fireDue()
	}
}

// fireDue pops everything due and runs its expiration handling.
func (m *Manager) fireDue() {
	now := time.Now()
	for _, name := range m.wheel.popDue(now) {
		m.fireOne(name)
	}
}

// fireOne implements the expiration semantics of spec.md §4.2: one-shot
// delete, duration+repeat fixed-interval reschedule, cron recompute.
func (m *Manager) fireOne(name string) {
	m.mu.Lock()
	lt, exists := m.timers[name]
	if !exists {
		m.mu.Unlock()
		return
	}
	onExpire := lt.timer.OnExpire
	m.mu.Unlock()

	m.invokeCallbacks(name, onExpire)

	m.mu.Lock()
	defer m.mu.Unlock()

	// The callback may have raced a concurrent CancelTimer; re-check
	// presence before rearming (spec.md §9 "Cancellation races").
	lt, exists = m.timers[name]
	if !exists {
		return
	}

	lt.fireCount++

	if lt.timer.MaxCount != nil && lt.fireCount >= *lt.timer.MaxCount {
		delete(m.timers, name)
		_ = m.persistLocked()
		return
	}

	switch {
	case lt.cron != nil:
		next := lt.cron.Next(time.Now())
		lt.timer.ExpiresAt = next
		m.wheel.schedule(name, next)

	case lt.timer.Repeat != nil:
		next := lt.timer.ExpiresAt.Add(time.Duration(lt.timer.Repeat.IntervalMs) * time.Millisecond)
		lt.timer.ExpiresAt = next
		m.wheel.schedule(name, next)

	default:
		delete(m.timers, name)
	}

	_ = m.persistLocked()
}

func (m *Manager) invokeCallbacks(name string, onExpire models.OnExpire) {
	m.mu.Lock()
	callbacks := make([]ExpireFunc, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(name, onExpire)
	}
}

// persistLocked writes the full metadata snapshot (spec.md §6 persistence
// layout). Caller holds m.mu. A storage failure here leaves the in-memory
// timer intact per spec.md §7 StorageFailure policy — it is logged, not
// panicked.
func (m *Manager) persistLocked() error {
	if m.adapter == nil {
		return nil
	}

	entries := make([]models.TimerMetadata, 0, len(m.timers))
	for _, lt := range m.timers {
		meta := models.TimerMetadata{
			Name:            lt.timer.Name,
			DurableTimerID:  lt.timer.ID,
			TimerID:         lt.timer.ID,
			OnExpire:        lt.timer.OnExpire,
			FireCount:       lt.fireCount,
			CorrelationID:   lt.correlationID,
			CronExpression:  lt.timer.Cron,
			MaxCount:        lt.timer.MaxCount,
			ExpiresAtUnixMs: lt.timer.ExpiresAt.UnixMilli(),
		}
		if lt.timer.Repeat != nil {
			meta.RepeatIntervalMs = &lt.timer.Repeat.IntervalMs
		}
		entries = append(entries, meta)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	env := models.MetadataEnvelope{
		State: models.MetadataState{Entries: entries},
		Metadata: models.MetadataStamp{
			PersistedAt:   time.Now(),
			ServerID:      m.serverID,
			SchemaVersion: models.CurrentSchemaVersion,
		},
	}

	if err := m.adapter.Save(MetadataKey, env); err != nil {
		m.log.Error("failed to persist timer metadata snapshot", logger.Err(err))
		return fmt.Errorf("%w: %v", models.ErrStorageFailure, err)
	}
	return nil
}
