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
// Package main is the entry point of the kanban CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ZeroCho/learn-supabase/cmd/kanban/config"
)

var rootCmd = &cobra.Command{
	Use:          "kanban",
	Short:        "Presence server for collaborative kanban boards",
	SilenceUsage: true,
}

// Run executes CLI.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}

	return 0
}

func main() {
	os.Exit(Run())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&config.RPCAddr, "rpc-addr", config.DefaultRPCAddr, "Address of the rpc server")
	rootCmd.PersistentFlags().StringVar(&config.Token, "token", "", "Token presented to the rpc server")
}
