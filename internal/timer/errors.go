/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package timer

import "fmt"

// Grounded on the teacher's timewheel error set (src/timewheel/errors.go).
var (
	ErrTimerAlreadyExists = fmt.Errorf("timer already exists")
	ErrInvalidTimerConfig = fmt.Errorf("invalid timer configuration")
)

func errSchedulingFailed(name string, err error) error {
	return fmt.Errorf("failed to schedule timer %s: %w", name, err)
}
