// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputValidator_ValidValues(t *testing.T) {
	for _, v := range []string{"text", "json", "raw", "yaml"} {
		assert.NoError(t, OutputValidator(v), v)
	}
}

func TestOutputValidator_InvalidValue(t *testing.T) {
	assert.Error(t, OutputValidator("csv"))
	assert.Error(t, OutputValidator(""))
}

func TestRetentionValidator_ValidWindows(t *testing.T) {
	assert.NoError(t, RetentionValidator(1))
	assert.NoError(t, RetentionValidator(30))
	assert.NoError(t, RetentionValidator(int64(400)))
}

func TestRetentionValidator_RejectsNonPositive(t *testing.T) {
	assert.Error(t, RetentionValidator(0))
	assert.Error(t, RetentionValidator(-7))
	assert.Error(t, RetentionValidator(int64(0)))
}

func TestRetentionValidator_RejectsNonInteger(t *testing.T) {
	assert.Error(t, RetentionValidator("thirty"))
}

func TestJammedFlagValidator(t *testing.T) {
	assert.NoError(t, JammedFlagValidator("vol-123"))
	assert.Error(t, JammedFlagValidator("--filter"))
}

func TestFlagValidators_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	first := func(any) error { calls++; return boom }
	second := func(any) error { calls++; return nil }

	err := FlagValidators("x", first, second)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
