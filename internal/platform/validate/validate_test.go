// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/noriva/internal/platform/apperr"
	"github.com/taibuivan/noriva/internal/platform/validate"
)

/*
TestValidator_Required verifies empty and whitespace-only values fail.
*/
func TestValidator_Required(t *testing.T) {
	testCases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid value", value: "hello", wantErr: false},
		{name: "empty string", value: "", wantErr: true},
		{name: "whitespace only", value: "   ", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.Required("username", testCase.value).Err()

			if !testCase.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "MISSING_REQUIRED_PARAMETER", appError.Code)
			assert.Equal(t, "username", appError.Data["field"])
		})
	}
}

/*
TestValidator_Lengths verifies rune-count based length rules.
*/
func TestValidator_Lengths(t *testing.T) {
	v := &validate.Validator{}
	err := v.MinLen("password", "abc", 8).Err()

	require.Error(t, err)
	assert.Equal(t, "OUT_OF_RANGE", apperr.As(err).Code)

	// Multi-byte characters count as single runes
	v = &validate.Validator{}
	assert.NoError(t, v.MaxLen("bio", "日本語テキスト", 10).Err())
}

/*
TestValidator_Email verifies RFC 5322 address parsing.
*/
func TestValidator_Email(t *testing.T) {
	v := &validate.Validator{}
	assert.NoError(t, v.Email("email", "reader@noriva.app").Err())

	v = &validate.Validator{}
	err := v.Email("email", "not-an-email").Err()
	require.Error(t, err)
	assert.Equal(t, "OUT_OF_RANGE", apperr.As(err).Code)
}

/*
TestValidator_UUID verifies UUID format acceptance, case-insensitive.
*/
func TestValidator_UUID(t *testing.T) {
	v := &validate.Validator{}
	assert.NoError(t, v.UUID("id", "0190abcd-1234-7def-8abc-1234567890ab").Err())

	v = &validate.Validator{}
	assert.NoError(t, v.UUID("id", "0190ABCD-1234-7DEF-8ABC-1234567890AB").Err())

	v = &validate.Validator{}
	assert.Error(t, v.UUID("id", "not-a-uuid").Err())
}

/*
TestValidator_FirstErrorWins verifies that a chain reports its first failure.
*/
func TestValidator_FirstErrorWins(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("username", "").
		Email("email", "broken").
		Err()

	require.Error(t, err)
	assert.Equal(t, "MISSING_REQUIRED_PARAMETER", apperr.As(err).Code)
	assert.True(t, v.HasErrors())
}
