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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		conf := &auth.Config{SecretKey: "secret", TokenDuration: "1h"}
		assert.NoError(t, conf.Validate())
		assert.Equal(t, time.Hour, conf.ParseTokenDuration())

		conf.TokenDuration = "soon"
		assert.ErrorIs(t, conf.Validate(), auth.ErrInvalidTokenDuration)

		conf.TokenDuration = "-1s"
		assert.ErrorIs(t, conf.Validate(), auth.ErrInvalidTokenDuration)
	})

	t.Run("token manager from config test", func(t *testing.T) {
		var nilConf *auth.Config
		assert.False(t, nilConf.Enabled())
		assert.Nil(t, auth.NewTokenManagerFromConfig(nilConf))
		assert.Nil(t, auth.NewTokenManagerFromConfig(&auth.Config{TokenDuration: "1h"}))

		manager := auth.NewTokenManagerFromConfig(&auth.Config{SecretKey: "secret", TokenDuration: "1h"})
		assert.NotNil(t, manager)

		token, err := manager.Generate("alice", "")
		assert.NoError(t, err)
		claims, err := manager.Verify(token)
		assert.NoError(t, err)
		assert.Equal(t, "alice", claims.UserID())
	})
}
