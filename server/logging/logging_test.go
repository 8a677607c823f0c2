/*
 * Copyright 2026 The learn-supabase Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logging

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	kerrors "github.com/ZeroCho/learn-supabase/pkg/errors"
)

func TestLevelOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected zapcore.Level
	}{
		{name: "nil error", err: nil, expected: zapcore.DebugLevel},
		{name: "context canceled", err: fmt.Errorf("read: %w", context.Canceled), expected: zapcore.DebugLevel},
		{name: "invalid argument", err: kerrors.InvalidArgument("bad"), expected: zapcore.InfoLevel},
		{name: "not found", err: kerrors.NotFound("missing"), expected: zapcore.InfoLevel},
		{name: "unauthenticated", err: kerrors.Unauthenticated("no token"), expected: zapcore.WarnLevel},
		{name: "permission denied", err: kerrors.PermissionDenied("nope"), expected: zapcore.WarnLevel},
		{name: "resource exhausted", err: kerrors.ResourceExhausted("full"), expected: zapcore.WarnLevel},
		{name: "internal", err: kerrors.Internal("broken"), expected: zapcore.ErrorLevel},
		{name: "unavailable", err: kerrors.Unavailable("closing"), expected: zapcore.ErrorLevel},
		{name: "plain error", err: errors.New("boom"), expected: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, levelOf(tt.err))
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	assert.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
	assert.Error(t, SetLogLevel("verbose"))
	assert.Error(t, SetFormat("xml"))
}

func TestContext(t *testing.T) {
	logger := New("test", NewField("channel", "board"))
	ctx := With(context.Background(), logger)

	assert.Same(t, logger, From(ctx))
	assert.Same(t, DefaultLogger(), From(context.Background()))
}

func TestConfig(t *testing.T) {
	conf := &Config{Level: "debug", Format: "xml"}
	assert.ErrorIs(t, conf.Validate(), ErrInvalidFormat)

	conf.Level = "loud"
	conf.Format = "json"
	assert.Error(t, conf.Validate())

	conf.Level = "info"
	conf.Format = "console"
	assert.NoError(t, conf.Validate())
	assert.NoError(t, conf.Apply())
	assert.True(t, Enabled(zapcore.InfoLevel))
	assert.False(t, Enabled(zapcore.DebugLevel))
}
