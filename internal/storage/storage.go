/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package storage is the pluggable StorageAdapter from spec.md §3/§6: the
// durable timer manager persists its metadata envelope through this
// interface, and a crash-recovery pass reads it back on startup. Grounded
// on the teacher's Storage interface shape (src/storage/storage.go) but
// narrowed to the spec's generic get/set/delete/prefix-scan contract
// instead of the teacher's per-entity method sprawl.
package storage

import "cepengine/internal/models"

// Adapter is the StorageAdapter contract from spec.md §3: a durable
// key/value store the timer manager uses to persist its metadata
// envelope and recover it after a restart.
type Adapter interface {
	// Save writes value, JSON-encoded, under key.
	Save(key string, value interface{}) error
	// Load reads the JSON value stored under key into target. It reports
	// ok=false (no error) when key is absent.
	Load(key string, target interface{}) (ok bool, err error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// ListKeys returns every key with the given prefix.
	ListKeys(prefix string) ([]string, error)
	// Close releases any resources held by the adapter.
	Close() error
}

// LoadMetadataEnvelope is the crash-recovery entry point from spec.md §6:
// it reads the single "timer-manager:metadata" key, returning a zero-value
// envelope (not an error) if nothing has ever been persisted.
func LoadMetadataEnvelope(a Adapter, key string) (models.MetadataEnvelope, error) {
	var env models.MetadataEnvelope
	ok, err := a.Load(key, &env)
	if err != nil {
		return models.MetadataEnvelope{}, err
	}
	if !ok {
		return models.MetadataEnvelope{}, nil
	}
	return env, nil
}
