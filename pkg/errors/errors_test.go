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

package errors_test

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZeroCho/learn-supabase/pkg/errors"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code       errors.StatusCode
		name       string
		httpStatus int
	}{
		{errors.ErrCodeInvalidArgument, "invalid_argument", http.StatusBadRequest},
		{errors.ErrCodeNotFound, "not_found", http.StatusNotFound},
		{errors.ErrCodePermissionDenied, "permission_denied", http.StatusForbidden},
		{errors.ErrCodeResourceExhausted, "resource_exhausted", http.StatusTooManyRequests},
		{errors.ErrCodeFailedPrecondition, "failed_precondition", http.StatusPreconditionFailed},
		{errors.ErrCodeInternal, "internal", http.StatusInternalServerError},
		{errors.ErrCodeUnavailable, "unavailable", http.StatusServiceUnavailable},
		{errors.ErrCodeUnauthenticated, "unauthenticated", http.StatusUnauthorized},
		{errors.StatusCode(999), "unknown", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.code.String())
			assert.Equal(t, tt.httpStatus, tt.code.HTTPStatus())
			if tt.name != "unknown" {
				assert.Equal(t, tt.code, errors.StatusFromHTTP(tt.httpStatus))
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	errNotFound := errors.NotFound("presence not found").WithCode("ErrPresenceNotFound")

	t.Run("wrapped status is found", func(t *testing.T) {
		err := fmt.Errorf("delete presence: %w", errNotFound)

		assert.ErrorIs(t, err, errNotFound)
		assert.Equal(t, errors.ErrCodeNotFound, errors.StatusOf(err))
		assert.Equal(t, "ErrPresenceNotFound", errors.CodeOf(err))
		assert.True(t, errors.IsStatus(err, errors.ErrCodeNotFound))
		assert.Equal(t, "delete presence: presence not found", err.Error())
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		err := goerrors.New("boom")

		assert.Equal(t, errors.ErrCodeInternal, errors.StatusOf(err))
		assert.Equal(t, "", errors.CodeOf(err))
		assert.Equal(t, errors.StatusCode(0), errors.StatusOf(nil))
	})

	t.Run("new with status", func(t *testing.T) {
		err := errors.New("channel is full", errors.StatusFromHTTP(http.StatusTooManyRequests)).WithCode("ErrTooManySubscribers")
		assert.True(t, errors.IsStatus(err, errors.ErrCodeResourceExhausted))
		assert.Equal(t, "channel is full", err.Error())
	})

	t.Run("with code keeps status", func(t *testing.T) {
		base := errors.Unauthenticated("token is required")
		coded := base.WithCode("ErrTokenRequired")

		assert.Equal(t, base.Status(), coded.Status())
		assert.Equal(t, "", base.Code())
		assert.Equal(t, "ErrTokenRequired", coded.Code())
	})
}
