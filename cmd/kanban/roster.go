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
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/client"
	"github.com/ZeroCho/learn-supabase/cmd/kanban/config"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
)

var rosterOutput string

func newRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "roster [channel]",
		Short:   "Print who is online on the channel and what they edit",
		Args:    cobra.ExactArgs(1),
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := viper.GetString("output")
			if err := config.ValidateOutput(output); err != nil {
				return err
			}

			ctx := context.Background()
			resp, err := client.GetPresence(
				ctx,
				viper.GetString("rpcAddr"),
				args[0],
				client.WithToken(viper.GetString("token")),
			)
			if err != nil {
				return err
			}

			return printRoster(cmd, output, resp)
		},
	}
}

func printRoster(cmd *cobra.Command, output string, resp *types.PresenceResponse) error {
	switch output {
	case "":
		cmd.Printf("%s\n", renderRoster(resp.Roster, resp.Editing))
	case "json":
		marshalled, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(marshalled))
	case "yaml":
		marshalled, err := yaml.Marshal(resp)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Println(string(marshalled))
	default:
		return config.ErrInvalidOutput
	}

	return nil
}

// renderRoster renders one row per live connection of each user.
func renderRoster(roster presence.Roster, editing presence.EditingMap) string {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	tw.AppendHeader(table.Row{
		"USER",
		"EMAIL",
		"EDITING",
		"ONLINE",
	})

	now := time.Now().UTC()
	for _, userID := range roster.Users() {
		for _, record := range roster[userID] {
			tw.AppendRow(table.Row{
				userID,
				record.Email,
				editingOf(record, editing),
				now.Sub(record.OnlineAt).Round(time.Second).String(),
			})
		}
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d users", len(roster)), "", fmt.Sprintf("%d items", len(editing)), ""})

	return tw.Render()
}

// editingOf marks a claim the user lost to another user with an asterisk.
func editingOf(record presence.Record, editing presence.EditingMap) string {
	if !record.IsEditing() {
		return "-"
	}

	if holder := editing[record.EditingItemID]; holder != record.UserID {
		return record.EditingItemID + "*"
	}
	return record.EditingItemID
}

func init() {
	cmd := newRosterCmd()
	cmd.Flags().StringVarP(
		&rosterOutput,
		"output",
		"o",
		"",
		"One of 'yaml' or 'json'.",
	)
	rootCmd.AddCommand(cmd)
}
