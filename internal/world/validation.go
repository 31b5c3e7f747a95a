// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// MaxShortNameLength bounds object short names.
const MaxShortNameLength = 100

// ValidateShortName checks that an object short name is valid. Short names
// must be non-empty, valid UTF-8, free of control characters, and within the
// length limit. Uniqueness is enforced by the store, not here.
func ValidateShortName(name string) error {
	if name == "" {
		return &ValidationError{Field: "shortname", Message: "cannot be empty"}
	}
	if !utf8.ValidString(name) {
		return &ValidationError{Field: "shortname", Message: "must be valid UTF-8"}
	}
	if len(name) > MaxShortNameLength {
		return &ValidationError{Field: "shortname", Message: fmt.Sprintf("exceeds maximum length of %d", MaxShortNameLength)}
	}
	if hasControlChars(name) {
		return &ValidationError{Field: "shortname", Message: "cannot contain control characters"}
	}
	return nil
}

// hasControlChars returns true if the string contains control characters.
func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
