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

package redis

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyAddr is returned when the address of the redis server is empty.
	ErrEmptyAddr = errors.New("redis address is empty")

	// ErrEmptyKeyPrefix is returned when the key prefix is empty.
	ErrEmptyKeyPrefix = errors.New("redis key prefix is empty")

	// ErrNonPositiveRecordTTL is returned when the record TTL is not positive.
	ErrNonPositiveRecordTTL = errors.New("redis record TTL must be positive")
)

const (
	defaultChannelTTL = 24 * time.Hour
	defaultRecordTTL  = time.Minute
)

// Config is the configuration for creating a Client instance.
type Config struct {
	Addr              string `yaml:"Addr"`
	Password          string `yaml:"Password"`
	DB                int    `yaml:"DB"`
	KeyPrefix         string `yaml:"KeyPrefix"`
	ChannelTTL        string `yaml:"ChannelTTL"`
	ConnectionTimeout string `yaml:"ConnectionTimeout"`

	// RecordTTL is how long a record stays visible without being refreshed.
	// Records of a crashed server disappear once it passes.
	RecordTTL string `yaml:"RecordTTL"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrEmptyAddr
	}

	if c.KeyPrefix == "" {
		return ErrEmptyKeyPrefix
	}

	if _, err := time.ParseDuration(c.ChannelTTL); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--redis-channel-ttl" flag: %w`,
			c.ChannelTTL,
			err,
		)
	}

	if _, err := time.ParseDuration(c.ConnectionTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--redis-connection-timeout" flag: %w`,
			c.ConnectionTimeout,
			err,
		)
	}

	if ttl, err := time.ParseDuration(c.RecordTTL); err != nil || ttl <= 0 {
		if err == nil {
			err = ErrNonPositiveRecordTTL
		}
		return fmt.Errorf(
			`invalid argument "%s" for "--redis-record-ttl" flag: %w`,
			c.RecordTTL,
			err,
		)
	}

	return nil
}

// ParseChannelTTL returns how long a channel is kept after its last write.
func (c *Config) ParseChannelTTL() time.Duration {
	result, _ := time.ParseDuration(c.ChannelTTL)
	return result
}

// ParseRecordTTL returns how long a record stays visible without refresh.
func (c *Config) ParseRecordTTL() time.Duration {
	result, _ := time.ParseDuration(c.RecordTTL)
	return result
}

// ParseConnectionTimeout returns connection timeout duration.
func (c *Config) ParseConnectionTimeout() time.Duration {
	result, _ := time.ParseDuration(c.ConnectionTimeout)
	return result
}

// DefaultConfig returns a configuration connecting to a local Redis.
func DefaultConfig() *Config {
	return &Config{
		Addr:              "localhost:6379",
		KeyPrefix:         "presence",
		ChannelTTL:        defaultChannelTTL.String(),
		ConnectionTimeout: "5s",
		RecordTTL:         defaultRecordTTL.String(),
	}
}
