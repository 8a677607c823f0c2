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

package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSubscriptionLimit is returned when the subscription limit is
	// negative.
	ErrInvalidSubscriptionLimit = errors.New("subscription limit must not be negative")

	// ErrInvalidBufferSize is returned when the buffer size is not positive.
	ErrInvalidBufferSize = errors.New("subscription buffer size must be positive")
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// Hostname is the hostname of the server. If not provided, the hostname
	// of the machine is used.
	Hostname string `yaml:"Hostname"`

	// SubscriptionLimitPerChannel is the maximum number of connections
	// subscribed to one channel. Zero means no limit.
	SubscriptionLimitPerChannel int `yaml:"SubscriptionLimitPerChannel"`

	// SubscriptionBufferSize is the number of events buffered for each
	// connection before events are dropped for it.
	SubscriptionBufferSize int `yaml:"SubscriptionBufferSize"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.SubscriptionLimitPerChannel < 0 {
		return fmt.Errorf("given %d: %w", c.SubscriptionLimitPerChannel, ErrInvalidSubscriptionLimit)
	}

	if c.SubscriptionBufferSize < 1 {
		return fmt.Errorf("given %d: %w", c.SubscriptionBufferSize, ErrInvalidBufferSize)
	}

	return nil
}
