/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"cepengine/internal/logger"
)

// BadgerAdapter is the durable Adapter backed by BadgerDB, grounded on the
// teacher's BadgerStorage (src/storage/storage_badger.go,
// src/storage/storage_helpers.go) — same saveJSON/loadJSON/deleteKey/
// iterateWithPrefix shape, narrowed to the StorageAdapter contract and
// upgraded to badger/v4.
type BadgerAdapter struct {
	db  *badger.DB
	log logger.ComponentLogger
}

// NewBadgerAdapter opens (or creates) a BadgerDB database at dir.
func NewBadgerAdapter(dir string, log logger.ComponentLogger) (*BadgerAdapter, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db at %s: %w", dir, err)
	}
	log.Info("badger storage opened", logger.String("directory", dir))
	return &BadgerAdapter{db: db, log: log}, nil
}

func (b *BadgerAdapter) Save(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for key %s: %w", key, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

func (b *BadgerAdapter) Load(key string, target interface{}) (bool, error) {
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return fmt.Errorf("get key %s: %w", key, err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, target)
		})
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (b *BadgerAdapter) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *BadgerAdapter) ListKeys(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (b *BadgerAdapter) Close() error {
	return b.db.Close()
}
