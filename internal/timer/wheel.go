/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package timer is the durable timer manager from spec.md §3/§4.2: named,
// crash-recoverable timers in one-shot, interval-repeat, or cron mode.
// Grounded on the teacher's HierarchicalTimingWheel
// (src/timewheel/wheel_core.go, wheel_operations.go): the same
// index-by-ID-for-O(log n)-removal idiom, narrowed from a multi-level
// bucket wheel to a single container/heap priority queue, since spec.md
// doesn't require the O(1)-insert guarantee a multi-level wheel buys and a
// heap is the idiomatic Go shape for "next-to-fire" scheduling.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// wheelEntry is one scheduled firing, grounded on the teacher's TimerEntry.
type wheelEntry struct {
	id     string
	fireAt time.Time
	index  int // heap.Interface bookkeeping
}

type entryHeap []*wheelEntry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x interface{}) {
	e := x.(*wheelEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// wheel is the O(log n) priority-queue scheduling primitive. It owns no
// goroutines of its own — the owning Manager drives it from a single
// command-processing goroutine, the teacher's processRequests idiom
// (src/timewheel/manager_core.go).
type wheel struct {
	mu   sync.Mutex
	pq   entryHeap
	byID map[string]*wheelEntry
}

func newWheel() *wheel {
	return &wheel{byID: make(map[string]*wheelEntry)}
}

// schedule inserts or reschedules id to fire at fireAt.
func (w *wheel) schedule(id string, fireAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e, exists := w.byID[id]; exists {
		e.fireAt = fireAt
		heap.Fix(&w.pq, e.index)
		return
	}
	e := &wheelEntry{id: id, fireAt: fireAt}
	heap.Push(&w.pq, e)
	w.byID[id] = e
}

// remove drops id from the wheel. A no-op if id isn't scheduled.
func (w *wheel) remove(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e, exists := w.byID[id]
	if !exists {
		return
	}
	heap.Remove(&w.pq, e.index)
	delete(w.byID, id)
}

// nextFireAt returns the earliest scheduled fire time, or false if empty.
func (w *wheel) nextFireAt() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pq) == 0 {
		return time.Time{}, false
	}
	return w.pq[0].fireAt, true
}

// popDue pops and returns every entry due at or before now.
func (w *wheel) popDue(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var due []string
	for len(w.pq) > 0 && !w.pq[0].fireAt.After(now) {
		e := heap.Pop(&w.pq).(*wheelEntry)
		delete(w.byID, e.id)
		due = append(due, e.id)
	}
	return due
}

// size returns the number of scheduled entries.
func (w *wheel) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pq)
}
