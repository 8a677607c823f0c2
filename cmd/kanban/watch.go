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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZeroCho/learn-supabase/client"
	"github.com/ZeroCho/learn-supabase/cmd/kanban/config"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
	"github.com/ZeroCho/learn-supabase/server/logging"
)

var (
	watchUserID         string
	watchEmail          string
	watchEditItemID     string
	watchLeaveOwnerOnly bool
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "watch [channel] --user [user-id]",
		Short:   "Join the channel and print the roster whenever it changes",
		Args:    cobra.ExactArgs(1),
		PreRunE: config.Preload,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchUserID == "" {
				return errors.New("--user is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := logging.New("CLI", logging.NewField("channel", args[0]))
			ch, err := client.Dial(
				ctx,
				viper.GetString("rpcAddr"),
				args[0],
				client.WithToken(viper.GetString("token")),
				client.WithLogger(logger.Desugar()),
			)
			if err != nil {
				return err
			}

			board := newWatchBoard(cmd, logger)
			// a board that fails to start closes the channel itself
			if err := board.Start(ctx, ch); err != nil {
				return err
			}

			if watchEditItemID != "" {
				if err := board.StartEditing(ctx, watchEditItemID); err != nil {
					return errors.Join(err, board.Stop())
				}
			}

			done := board.Done()
			for {
				select {
				case err := <-ch.Errors():
					logger.Warnf("server rejected a frame: %v", err)
				case <-done:
					return board.Err()
				case <-ctx.Done():
					return board.Stop()
				}
			}
		},
	}
}

// newWatchBoard creates the board of the watch command from its flags. The
// board prints the roster to the output of cmd on every change.
func newWatchBoard(cmd *cobra.Command, logger logging.Logger) *presence.Board {
	policy := presence.LeaveUnconditional
	if watchLeaveOwnerOnly {
		policy = presence.LeaveOwnerOnly
	}

	return presence.NewBoard(
		watchUserID,
		watchEmail,
		presence.WithLeavePolicy(policy),
		presence.WithLogger(logger),
		presence.WithChangeHandler(func(roster presence.Roster, editing presence.EditingMap) {
			cmd.Printf("%s\n\n", renderRoster(roster, editing))
		}),
	)
}

func init() {
	cmd := newWatchCmd()
	cmd.Flags().StringVar(
		&watchUserID,
		"user",
		"",
		"User ID published as the presence of this connection",
	)
	cmd.Flags().StringVar(
		&watchEmail,
		"email",
		"",
		"Email published with the presence",
	)
	cmd.Flags().StringVar(
		&watchEditItemID,
		"edit",
		"",
		"Item to claim for editing while watching",
	)
	cmd.Flags().BoolVar(
		&watchLeaveOwnerOnly,
		"leave-owner-only",
		false,
		"Release a claim on leave only if the leaving user still holds it",
	)
	rootCmd.AddCommand(cmd)
}
