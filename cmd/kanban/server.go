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
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZeroCho/learn-supabase/server"
	"github.com/ZeroCho/learn-supabase/server/backend/database/redis"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath string

	rpcWriteTimeout   time.Duration
	rpcPingInterval   time.Duration
	authTokenDuration time.Duration
	redisChannelTTL   time.Duration
	redisConnTimeout  time.Duration
	redisRecordTTL    time.Duration
	redisAddr         string
	redisPassword     string
	redisDB           int
	redisKeyPrefix    string

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start the presence server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.RPC.WriteTimeout = rpcWriteTimeout.String()
			conf.RPC.PingInterval = rpcPingInterval.String()
			conf.Auth.TokenDuration = authTokenDuration.String()

			if redisAddr != "" {
				conf.Redis = &redis.Config{
					Addr:              redisAddr,
					Password:          redisPassword,
					DB:                redisDB,
					KeyPrefix:         redisKeyPrefix,
					ChannelTTL:        redisChannelTTL.String(),
					ConnectionTimeout: redisConnTimeout.String(),
					RecordTTL:         redisRecordTTL.String(),
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			k, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := k.Start(); err != nil {
				return err
			}

			if code := handleSignal(k); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(k *server.Kanban) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-k.ShutdownCh():
		// the server is already shut down
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := k.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&conf.Logging.Level,
		"log-level",
		"l",
		server.DefaultLogLevel,
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().StringVar(
		&conf.Logging.Format,
		"log-format",
		server.DefaultLogFormat,
		"Log format: console, json",
	)
	cmd.Flags().IntVar(
		&conf.RPC.Port,
		"rpc-port",
		server.DefaultRPCPort,
		"RPC port",
	)
	cmd.Flags().StringVar(
		&conf.RPC.CertFile,
		"rpc-cert-file",
		"",
		"RPC certification file's path",
	)
	cmd.Flags().StringVar(
		&conf.RPC.KeyFile,
		"rpc-key-file",
		"",
		"RPC key file's path",
	)
	cmd.Flags().Int64Var(
		&conf.RPC.MaxFrameBytes,
		"rpc-max-frame-bytes",
		server.DefaultRPCMaxFrameBytes,
		"Maximum frame size in bytes the server will accept from a client.",
	)
	cmd.Flags().DurationVar(
		&rpcWriteTimeout,
		"rpc-write-timeout",
		server.DefaultRPCWriteTimeout,
		"How long writing a frame to a connection may take.",
	)
	cmd.Flags().DurationVar(
		&rpcPingInterval,
		"rpc-ping-interval",
		server.DefaultRPCPingInterval,
		"Interval of pings sent to idle connections.",
	)
	cmd.Flags().StringSliceVar(
		&conf.RPC.AllowedOrigins,
		"rpc-allowed-origins",
		nil,
		"Origins allowed to open WebSockets. Empty allows any origin.",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Hostname,
		"hostname",
		server.DefaultHostname,
		"Hostname of the server",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SubscriptionLimitPerChannel,
		"subscription-limit-per-channel",
		server.DefaultSubscriptionLimitPerChannel,
		"Maximum number of connections per channel. 0 means no limit.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SubscriptionBufferSize,
		"subscription-buffer-size",
		server.DefaultSubscriptionBufferSize,
		"Number of events buffered for each connection.",
	)
	cmd.Flags().StringVar(
		&redisAddr,
		"redis-addr",
		"",
		"Redis address. Presences are kept in memory when empty.",
	)
	cmd.Flags().StringVar(
		&redisPassword,
		"redis-password",
		"",
		"Redis password",
	)
	cmd.Flags().IntVar(
		&redisDB,
		"redis-db",
		0,
		"Redis database number",
	)
	cmd.Flags().StringVar(
		&redisKeyPrefix,
		"redis-key-prefix",
		server.DefaultRedisKeyPrefix,
		"Prefix of the keys written to Redis",
	)
	cmd.Flags().DurationVar(
		&redisChannelTTL,
		"redis-channel-ttl",
		server.DefaultRedisChannelTTL,
		"How long a channel is kept in Redis after its last write.",
	)
	cmd.Flags().DurationVar(
		&redisConnTimeout,
		"redis-connection-timeout",
		server.DefaultRedisConnectionTimeout,
		"Redis connection timeout",
	)
	cmd.Flags().DurationVar(
		&redisRecordTTL,
		"redis-record-ttl",
		server.DefaultRedisRecordTTL,
		"How long a record stays visible in Redis without being refreshed.",
	)
	cmd.Flags().StringVar(
		&conf.Auth.SecretKey,
		"auth-secret-key",
		"",
		"Secret key for verifying tokens. Authentication is disabled when empty.",
	)
	cmd.Flags().DurationVar(
		&authTokenDuration,
		"auth-token-duration",
		server.DefaultTokenDuration,
		"Lifetime of tokens minted with the secret key.",
	)

	rootCmd.AddCommand(cmd)
}
