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

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ZeroCho/learn-supabase/pkg/errors"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
)

var (
	// ErrTokenRequired is returned when a request carries no token.
	ErrTokenRequired = errors.Unauthenticated("token is required").WithCode("ErrTokenRequired")

	// ErrPermissionDenied is returned when publishing presence for another user.
	ErrPermissionDenied = errors.PermissionDenied("cannot publish presence of another user").WithCode("ErrPermissionDenied")
)

const tokenQueryKey = "token"

// TokenFromRequest returns the bearer token of the request, read from the
// Authorization header or, for browsers opening WebSockets, from the token
// query parameter.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	return strings.TrimSpace(r.URL.Query().Get(tokenQueryKey))
}

// Authenticate returns the claims of the token carried by the request. It
// returns nil claims when the manager is nil, that is, when authentication is
// disabled.
func Authenticate(m *TokenManager, r *http.Request) (*UserClaims, error) {
	if m == nil {
		return nil, nil
	}

	token := TokenFromRequest(r)
	if token == "" {
		return nil, ErrTokenRequired
	}

	return m.Verify(token)
}

// Authorize checks that the bearer of the claims may publish the record.
// Nil claims authorize everything.
func Authorize(claims *UserClaims, record presence.Record) error {
	if claims == nil {
		return nil
	}

	if claims.UserID() != record.UserID {
		return fmt.Errorf("%q as %q: %w", claims.UserID(), record.UserID, ErrPermissionDenied)
	}

	return nil
}

type claimsKey struct{}

// CtxWithClaims creates a new context with the given claims.
func CtxWithClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromCtx returns the claims stored in the context, or nil.
func ClaimsFromCtx(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(claimsKey{}).(*UserClaims)
	return claims
}
