// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError represents an input validation error: the caller supplied
// something that violates a business rule. Never retried automatically.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConsistencyError represents a violated structural invariant found in stored
// state (an object with two parents, an object missing its access record).
// It is fatal to the operation that detected it and is never repaired by
// picking an arbitrary value.
type ConsistencyError struct {
	Entity  string
	Message string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency violation on %s: %s", e.Entity, e.Message)
}
