/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package models

import (
	"errors"
	"fmt"
)

// Error taxonomy from spec.md §7. NotFound is deliberately absent: per
// spec.md, an unknown cancelTimer name or handleTimeout instance id is a
// normal false/nil return, never an error value.
var (
	// ErrInvalidConfiguration marks a bad duration, bad cron, a
	// duration+cron conflict, a negative threshold, or a non-temporal
	// trigger passed to registerRule. Raised at the call site that
	// accepted the input; fail-fast.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrStorageFailure marks a propagated StorageAdapter error. It is
	// non-recoverable locally and surfaced to the caller of the
	// originating public operation.
	ErrStorageFailure = errors.New("storage failure")
)

// CallbackError wraps a failing onMatch/onExpire handler error. Per spec.md
// §7, the match or timer-expiration state is never retracted because a
// callback failed — this only tags the error for callers that want to
// distinguish "my handler blew up" from an engine-internal fault.
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string { return fmt.Sprintf("callback failed: %v", e.Err) }
func (e *CallbackError) Unwrap() error { return e.Err }

// NewCallbackError wraps err, or returns nil if err is nil.
func NewCallbackError(err error) error {
	if err == nil {
		return nil
	}
	return &CallbackError{Err: err}
}
