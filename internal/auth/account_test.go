// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemush/tidemush/internal/auth"
	"github.com/tidemush/tidemush/internal/world"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		expectErr bool
	}{
		{"plain", "alice", false},
		{"with dash and digits", "alice-42", false},
		{"empty", "", true},
		{"colon", "ali:ce", true},
		{"single quote", "ali'ce", true},
		{"double quote", `ali"ce`, true},
		{"semicolon", "alice;", true},
		{"percent", "ali%ce", true},
		{"too long", strings.Repeat("a", auth.MaxUsernameLength+1), true},
		{"at limit", strings.Repeat("a", auth.MaxUsernameLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.expectErr {
				var verr *world.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "username", verr.Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, auth.ValidatePassword("supersecretpw1"))
	assert.NoError(t, auth.ValidatePassword("exactly12char"))

	var verr *world.ValidationError
	err := auth.ValidatePassword("short")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	err = auth.ValidatePassword("elevenchars")
	assert.Error(t, err)
}
