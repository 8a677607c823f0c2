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
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTokenDuration is returned when the token duration is not a
// positive duration.
var ErrInvalidTokenDuration = errors.New("invalid token duration")

// Config is the configuration of the authentication. An empty secret key
// disables authentication.
type Config struct {
	// SecretKey is the key for signing and verifying tokens.
	SecretKey string `yaml:"SecretKey"`

	// TokenDuration is the lifetime of tokens minted by the server.
	TokenDuration string `yaml:"TokenDuration"`
}

// Enabled returns whether connections must present a token.
func (c *Config) Enabled() bool {
	return c != nil && c.SecretKey != ""
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	d, err := time.ParseDuration(c.TokenDuration)
	if err != nil || d <= 0 {
		return fmt.Errorf(
			`invalid argument "%s" for "--auth-token-duration" flag: %w`,
			c.TokenDuration,
			ErrInvalidTokenDuration,
		)
	}

	return nil
}

// ParseTokenDuration returns the token duration.
func (c *Config) ParseTokenDuration() time.Duration {
	result, _ := time.ParseDuration(c.TokenDuration)
	return result
}

// NewTokenManagerFromConfig returns the token manager of the given config, or
// nil when authentication is disabled.
func NewTokenManagerFromConfig(c *Config) *TokenManager {
	if !c.Enabled() {
		return nil
	}

	return NewTokenManager(c.SecretKey, c.ParseTokenDuration())
}
