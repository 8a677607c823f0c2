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
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZeroCho/learn-supabase/server"
	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

var (
	tokenSecretKey string
	tokenEmail     string
	tokenDuration  time.Duration
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token [user-id] --secret [secret-key]",
		Short: "Mint a token allowing the user to publish presence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenSecretKey == "" {
				return errors.New("--secret is required")
			}

			token, err := auth.NewTokenManager(tokenSecretKey, tokenDuration).Generate(args[0], tokenEmail)
			if err != nil {
				return err
			}

			cmd.Println(token)
			return nil
		},
	}
}

func init() {
	cmd := newTokenCmd()
	cmd.Flags().StringVar(
		&tokenSecretKey,
		"secret",
		"",
		"Secret key the server verifies tokens with",
	)
	cmd.Flags().StringVar(
		&tokenEmail,
		"email",
		"",
		"Email of the user",
	)
	cmd.Flags().DurationVar(
		&tokenDuration,
		"duration",
		server.DefaultTokenDuration,
		"Lifetime of the token",
	)
	rootCmd.AddCommand(cmd)
}
