/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupIndexKey(t *testing.T) {
	assert.Equal(t, "rule-1:customer-9", GroupIndexKey("rule-1", "customer-9"))
}

func TestTimerName(t *testing.T) {
	assert.Equal(t, "temporal:inst-1", TimerName("inst-1"))
}
