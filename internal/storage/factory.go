/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package storage

import (
	"fmt"

	"cepengine/internal/config"
	"cepengine/internal/logger"
)

// New builds the Adapter selected by cfg.Storage.Type. config.Validate
// already rejected any value other than "memory"/"badger" before this
// runs.
func New(cfg config.StorageConfig, log logger.ComponentLogger) (Adapter, error) {
	switch cfg.Type {
	case "badger":
		return NewBadgerAdapter(cfg.Directory, log)
	case "memory", "":
		return NewMemoryAdapter(), nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
