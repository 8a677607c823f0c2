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
package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ZeroCho/learn-supabase/server/backend"
	"github.com/ZeroCho/learn-supabase/server/backend/database/redis"
	"github.com/ZeroCho/learn-supabase/server/logging"
	"github.com/ZeroCho/learn-supabase/server/profiling"
	"github.com/ZeroCho/learn-supabase/server/rpc"
	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

// Below are the values of the default values of the server config.
const (
	DefaultRPCPort          = 8080
	DefaultRPCMaxFrameBytes = 64 * 1024
	DefaultRPCWriteTimeout  = 10 * time.Second
	DefaultRPCPingInterval  = 30 * time.Second

	DefaultProfilingPort = 8081

	DefaultSubscriptionLimitPerChannel = 0
	DefaultSubscriptionBufferSize      = 64

	DefaultRedisAddr              = "localhost:6379"
	DefaultRedisKeyPrefix         = "presence"
	DefaultRedisChannelTTL        = 24 * time.Hour
	DefaultRedisConnectionTimeout = 5 * time.Second
	DefaultRedisRecordTTL         = time.Minute

	DefaultTokenDuration = 24 * time.Hour

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultHostname = ""
)

// Config is the configuration for creating a presence server.
type Config struct {
	RPC       *rpc.Config       `yaml:"RPC"`
	Profiling *profiling.Config `yaml:"Profiling"`
	Backend   *backend.Config   `yaml:"Backend"`
	Redis     *redis.Config     `yaml:"Redis"`
	Auth      *auth.Config      `yaml:"Auth"`
	Logging   *logging.Config   `yaml:"Logging"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRPCPort, DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RPCAddr returns the RPC address.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("localhost:%d", c.RPC.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.RPC.Validate(); err != nil {
		return err
	}

	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}

	if c.Auth.Enabled() {
		if err := c.Auth.Validate(); err != nil {
			return err
		}
	}

	return c.Logging.Validate()
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.RPC == nil {
		c.RPC = &rpc.Config{}
	}
	if c.RPC.Port == 0 {
		c.RPC.Port = DefaultRPCPort
	}
	if c.RPC.MaxFrameBytes == 0 {
		c.RPC.MaxFrameBytes = DefaultRPCMaxFrameBytes
	}
	if c.RPC.WriteTimeout == "" {
		c.RPC.WriteTimeout = DefaultRPCWriteTimeout.String()
	}
	if c.RPC.PingInterval == "" {
		c.RPC.PingInterval = DefaultRPCPingInterval.String()
	}

	if c.Profiling == nil {
		c.Profiling = &profiling.Config{}
	}
	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Backend == nil {
		c.Backend = &backend.Config{}
	}
	if c.Backend.SubscriptionBufferSize == 0 {
		c.Backend.SubscriptionBufferSize = DefaultSubscriptionBufferSize
	}

	if c.Redis != nil {
		if c.Redis.Addr == "" {
			c.Redis.Addr = DefaultRedisAddr
		}
		if c.Redis.KeyPrefix == "" {
			c.Redis.KeyPrefix = DefaultRedisKeyPrefix
		}
		if c.Redis.ChannelTTL == "" {
			c.Redis.ChannelTTL = DefaultRedisChannelTTL.String()
		}
		if c.Redis.ConnectionTimeout == "" {
			c.Redis.ConnectionTimeout = DefaultRedisConnectionTimeout.String()
		}
		if c.Redis.RecordTTL == "" {
			c.Redis.RecordTTL = DefaultRedisRecordTTL.String()
		}
	}

	if c.Auth == nil {
		c.Auth = &auth.Config{}
	}
	if c.Auth.TokenDuration == "" {
		c.Auth.TokenDuration = DefaultTokenDuration.String()
	}

	if c.Logging == nil {
		c.Logging = &logging.Config{}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

func newConfig(port int, profilingPort int) *Config {
	return &Config{
		RPC: &rpc.Config{
			Port:          port,
			MaxFrameBytes: DefaultRPCMaxFrameBytes,
			WriteTimeout:  DefaultRPCWriteTimeout.String(),
			PingInterval:  DefaultRPCPingInterval.String(),
		},
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
		Backend: &backend.Config{
			Hostname:                    DefaultHostname,
			SubscriptionLimitPerChannel: DefaultSubscriptionLimitPerChannel,
			SubscriptionBufferSize:      DefaultSubscriptionBufferSize,
		},
		Auth: &auth.Config{
			TokenDuration: DefaultTokenDuration.String(),
		},
		Logging: &logging.Config{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
