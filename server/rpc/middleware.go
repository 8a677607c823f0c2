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

package rpc

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/errors"
	"github.com/ZeroCho/learn-supabase/server/logging"
	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

// requestLogger logs every request and counts it in the metrics. It also
// puts a logger into the request context.
func (s *Server) requestLogger() gin.HandlerFunc {
	logger := logging.New("RPC")

	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logging.With(c.Request.Context(), logger))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		var err error
		if last := c.Errors.Last(); last != nil {
			err = last.Err
		}

		logging.LogRequest(logger, c.Request.Method, route, time.Since(start), err)
		s.backend.Metrics.AddServerHandledCounter(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		)
	}
}

// authenticate verifies the token of the request when authentication is
// enabled and stores its claims in the request context.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.Authenticate(s.tokenManager, c.Request)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(auth.CtxWithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// abortWithError writes the error with the HTTP status matching its status
// code.
func abortWithError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := errors.StatusOf(err)
	if code == "" {
		code = status.String()
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status.HTTPStatus(), types.ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}
