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
	"context"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ZeroCho/learn-supabase/client"
	"github.com/ZeroCho/learn-supabase/cmd/kanban/config"
)

var channelsOutput string

func newChannelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "channels",
		Short:   "List the channels with online users",
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := viper.GetString("output")
			if err := config.ValidateOutput(output); err != nil {
				return err
			}

			ctx := context.Background()
			channels, err := client.ListChannels(
				ctx,
				viper.GetString("rpcAddr"),
				client.WithToken(viper.GetString("token")),
			)
			if err != nil {
				return err
			}

			switch output {
			case "":
				tw := table.NewWriter()
				tw.Style().Options.DrawBorder = false
				tw.Style().Options.SeparateColumns = false
				tw.Style().Options.SeparateHeader = false
				tw.AppendHeader(table.Row{"CHANNEL"})
				for _, channel := range channels {
					tw.AppendRow(table.Row{channel})
				}
				cmd.Printf("%s\n", tw.Render())
			case "json":
				marshalled, err := json.MarshalIndent(channels, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal JSON: %w", err)
				}
				cmd.Println(string(marshalled))
			case "yaml":
				marshalled, err := yaml.Marshal(channels)
				if err != nil {
					return fmt.Errorf("marshal YAML: %w", err)
				}
				cmd.Println(string(marshalled))
			}

			return nil
		},
	}
}

func init() {
	cmd := newChannelsCmd()
	cmd.Flags().StringVarP(
		&channelsOutput,
		"output",
		"o",
		"",
		"One of 'yaml' or 'json'.",
	)
	rootCmd.AddCommand(cmd)
}
