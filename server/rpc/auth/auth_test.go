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

package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroCho/learn-supabase/pkg/errors"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

func TestTokenManager(t *testing.T) {
	manager := auth.NewTokenManager("secret", time.Hour)

	t.Run("generate and verify test", func(t *testing.T) {
		token, err := manager.Generate("alice", "alice@example.com")
		require.NoError(t, err)

		claims, err := manager.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.UserID())
		assert.Equal(t, "alice@example.com", claims.Email)
	})

	t.Run("empty subject test", func(t *testing.T) {
		_, err := manager.Generate("", "")
		assert.ErrorIs(t, err, auth.ErrEmptySubject)
	})

	t.Run("wrong secret test", func(t *testing.T) {
		token, err := auth.NewTokenManager("other", time.Hour).Generate("alice", "")
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
		assert.Equal(t, errors.ErrCodeUnauthenticated, errors.StatusOf(err))
	})

	t.Run("expired token test", func(t *testing.T) {
		token, err := auth.NewTokenManager("secret", -time.Minute).Generate("alice", "")
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("unexpected signing method test", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = manager.Verify(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestAuthenticate(t *testing.T) {
	manager := auth.NewTokenManager("secret", time.Hour)
	token, err := manager.Generate("alice", "")
	require.NoError(t, err)

	t.Run("header and query test", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/channels/board/ws", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		claims, err := auth.Authenticate(manager, req)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.UserID())

		req = httptest.NewRequest(http.MethodGet, "/channels/board/ws?token="+token, nil)
		claims, err = auth.Authenticate(manager, req)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.UserID())
	})

	t.Run("missing token test", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/channels/board/ws", nil)
		_, err := auth.Authenticate(manager, req)
		assert.ErrorIs(t, err, auth.ErrTokenRequired)
	})

	t.Run("disabled test", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/channels/board/ws", nil)
		claims, err := auth.Authenticate(nil, req)
		assert.NoError(t, err)
		assert.Nil(t, claims)
	})
}

func TestAuthorize(t *testing.T) {
	claims := &auth.UserClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}

	assert.NoError(t, auth.Authorize(claims, presence.Record{UserID: "alice"}))
	assert.ErrorIs(t, auth.Authorize(claims, presence.Record{UserID: "bob"}), auth.ErrPermissionDenied)
	assert.NoError(t, auth.Authorize(nil, presence.Record{UserID: "bob"}))

	ctx := auth.CtxWithClaims(context.Background(), claims)
	assert.Same(t, claims, auth.ClaimsFromCtx(ctx))
	assert.Nil(t, auth.ClaimsFromCtx(context.Background()))
}
