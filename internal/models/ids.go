/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package models holds the wire and in-memory shapes shared by EventStore,
// TimerManager, and TemporalProcessor: events, rules, pattern variants,
// pattern instances, timers, and matches.
package models

import "github.com/google/uuid"

// GenerateID returns a new random identifier, used for event, instance, and
// timer IDs alike. The teacher hand-rolls a node-prefixed NanoID
// (src/core/models/id_generation.go); purpleidea-mgmt instead pulls in
// google/uuid for the same concern, and that ecosystem choice wins here
// (see DESIGN.md).
func GenerateID() string {
	return uuid.NewString()
}
