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
	"time"

	"go.uber.org/zap/zapcore"

	kerrors "github.com/ZeroCho/learn-supabase/pkg/errors"
)

// levelOf determines the severity of a failed request from its status.
func levelOf(err error) zapcore.Level {
	if err == nil || errors.Is(err, context.Canceled) {
		return zapcore.DebugLevel
	}

	switch kerrors.StatusOf(err) {
	case kerrors.ErrCodeInvalidArgument, kerrors.ErrCodeNotFound:
		return zapcore.InfoLevel
	case kerrors.ErrCodeUnauthenticated,
		kerrors.ErrCodePermissionDenied,
		kerrors.ErrCodeFailedPrecondition,
		kerrors.ErrCodeResourceExhausted:
		return zapcore.WarnLevel
	case kerrors.ErrCodeInternal, kerrors.ErrCodeUnavailable:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// LogRequest logs a finished request. Successful requests are logged at
// debug level and failures at a level chosen by their status.
func LogRequest(logger Logger, method, path string, duration time.Duration, err error) {
	if err == nil {
		logger.Debugf("HTTP : %s %q %s", method, path, duration)
		return
	}

	logger.Logf(levelOf(err), "HTTP : %s %q %s => %q", method, path, duration, err)
}

// LogFrame logs a websocket frame that failed to be handled.
func LogFrame(logger Logger, frameType, channel string, err error) {
	logger.Logf(levelOf(err), "WS : %s on %q => %q", frameType, channel, err)
}
