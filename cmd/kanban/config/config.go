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
// Package config provides the settings of the kanban CLI, read from flags,
// environment variables and the CLI config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// DefaultRPCAddr is the address of a local presence server.
	DefaultRPCAddr = "localhost:8080"

	envPrefix = "KANBAN"
)

var (
	// RPCAddr is the address of the rpc server.
	RPCAddr string

	// Token is the token presented to the rpc server.
	Token string

	// ErrInvalidOutput is returned when the output format is not supported.
	ErrInvalidOutput = errors.New(`--output must be 'yaml' or 'json'`)
)

// Dir returns the directory of the CLI config file.
func Dir() string {
	return filepath.Join(os.Getenv("HOME"), ".kanban")
}

// Preload reads the CLI config file and binds the flags of the given command
// so that flags take precedence over the environment, which takes precedence
// over the file.
func Preload(cmd *cobra.Command, _ []string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(Dir())
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	for key, flag := range map[string]string{
		"rpcAddr": "rpc-addr",
		"token":   "token",
		"output":  "output",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind %s: %w", flag, err)
			}
		}
	}

	return nil
}

// ValidateOutput validates the given output format.
func ValidateOutput(output string) error {
	if output != "" && output != "yaml" && output != "json" {
		return ErrInvalidOutput
	}

	return nil
}
