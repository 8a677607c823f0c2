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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/client"
	"github.com/ZeroCho/learn-supabase/internal/version"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
	"github.com/ZeroCho/learn-supabase/server"
	"github.com/ZeroCho/learn-supabase/server/logging"
	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// syncBuffer is written by the change handler of a running watch command
// while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startWatch runs the watch command in the background until ctx is done.
func startWatch(t *testing.T, ctx context.Context, args ...string) (*syncBuffer, <-chan error) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	// cobra keeps the first context a subcommand ran with.
	watchCmd, _, err := rootCmd.Find([]string{"watch"})
	require.NoError(t, err)
	rootCmd.SetContext(ctx)
	watchCmd.SetContext(ctx)
	t.Cleanup(func() {
		rootCmd.SetContext(context.Background())
		watchCmd.SetContext(context.Background())
		watchUserID, watchEmail, watchEditItemID, watchLeaveOwnerOnly = "", "", "", false
	})

	out := &syncBuffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(append([]string{"watch"}, args...))

	errCh := make(chan error, 1)
	go func() { errCh <- rootCmd.Execute() }()
	return out, errCh
}

func newTestKanban(t *testing.T) *server.Kanban {
	t.Helper()

	conf := server.NewConfig()
	conf.RPC.Port = 0
	conf.Profiling.Port = 0

	k, err := server.New(conf)
	require.NoError(t, err)
	require.NoError(t, k.Start())
	return k
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--output", "json")
	require.NoError(t, err)

	var info versionInfo
	assert.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)

	_, err = execute(t, "version", "--output", "xml")
	assert.Error(t, err)
}

func TestTokenCmd(t *testing.T) {
	out, err := execute(t, "token", "alice", "--secret", "cli-secret", "--email", "alice@example.com")
	require.NoError(t, err)

	claims, err := auth.NewTokenManager("cli-secret", time.Hour).Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID())
	assert.Equal(t, "alice@example.com", claims.Email)

	tokenSecretKey = ""
	_, err = execute(t, "token", "alice")
	assert.Error(t, err)
}

func TestRosterCmd(t *testing.T) {
	k := newTestKanban(t)
	defer func() { assert.NoError(t, k.Shutdown(true)) }()

	ctx := context.Background()
	ch, err := client.Dial(ctx, k.RPCAddr(), "kanban")
	require.NoError(t, err)
	defer func() { assert.NoError(t, ch.Close()) }()

	require.NoError(t, ch.Track(ctx, presence.Record{
		UserID:        "alice",
		Email:         "alice@example.com",
		EditingItemID: "card-1",
		OnlineAt:      time.Now(),
	}))
	assert.Eventually(t, func() bool {
		resp, err := client.GetPresence(ctx, k.RPCAddr(), "kanban")
		return err == nil && len(resp.Roster) == 1
	}, time.Second, 10*time.Millisecond)

	t.Run("table output test", func(t *testing.T) {
		rosterOutput = ""
		out, err := execute(t, "roster", "kanban", "--rpc-addr", k.RPCAddr())
		require.NoError(t, err)
		assert.Contains(t, out, "alice@example.com")
		assert.Contains(t, out, "card-1")
	})

	t.Run("json output test", func(t *testing.T) {
		out, err := execute(t, "roster", "kanban", "--rpc-addr", k.RPCAddr(), "--output", "json")
		require.NoError(t, err)

		var resp types.PresenceResponse
		assert.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, "alice", resp.Editing["card-1"])
	})

	t.Run("channels test", func(t *testing.T) {
		channelsOutput = ""
		out, err := execute(t, "channels", "--rpc-addr", k.RPCAddr())
		require.NoError(t, err)
		assert.Contains(t, out, "kanban")
	})
}

func TestWatchCmd(t *testing.T) {
	t.Run("claims an item and prints the roster test", func(t *testing.T) {
		k := newTestKanban(t)
		defer func() { assert.NoError(t, k.Shutdown(true)) }()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		out, errCh := startWatch(t, ctx,
			"kanban",
			"--user", "alice",
			"--email", "alice@example.com",
			"--edit", "card-1",
			"--leave-owner-only",
			"--rpc-addr", k.RPCAddr(),
		)

		assert.Eventually(t, func() bool {
			resp, err := client.GetPresence(context.Background(), k.RPCAddr(), "kanban")
			return err == nil && resp.Editing["card-1"] == "alice"
		}, 2*time.Second, 10*time.Millisecond)
		assert.Eventually(t, func() bool {
			printed := out.String()
			return strings.Contains(printed, "alice@example.com") && strings.Contains(printed, "card-1")
		}, 2*time.Second, 10*time.Millisecond)
		assert.True(t, watchLeaveOwnerOnly)

		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not stop on cancel")
		}

		assert.Eventually(t, func() bool {
			resp, err := client.GetPresence(context.Background(), k.RPCAddr(), "kanban")
			return err == nil && len(resp.Roster) == 0 && len(resp.Editing) == 0
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("fails when the server goes away test", func(t *testing.T) {
		k := newTestKanban(t)

		_, errCh := startWatch(t, context.Background(),
			"kanban",
			"--user", "bob",
			"--rpc-addr", k.RPCAddr(),
		)
		assert.Eventually(t, func() bool {
			resp, err := client.GetPresence(context.Background(), k.RPCAddr(), "kanban")
			return err == nil && len(resp.Roster["bob"]) == 1
		}, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, k.Shutdown(true))
		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, presence.ErrChannelEnded)
		case <-time.After(2 * time.Second):
			t.Fatal("watch kept running after the server shut down")
		}
	})

	t.Run("leave owner only flag test", func(t *testing.T) {
		defer func() { watchLeaveOwnerOnly = false }()

		cmd := &cobra.Command{}
		cmd.SetOut(io.Discard)
		state := presence.Snapshot{"conn-c": {{UserID: "carol", EditingItemID: "card-2"}}}
		join := presence.Event{Type: presence.EventJoin, State: state}
		leave := presence.Event{
			Type:    presence.EventLeave,
			Records: []presence.Record{{UserID: "bob", EditingItemID: "card-2"}},
			State:   state,
		}

		for _, ownerOnly := range []bool{false, true} {
			watchLeaveOwnerOnly = ownerOnly
			board := newWatchBoard(cmd, logging.New("CLI"))
			board.Apply(join)
			board.Apply(leave)

			_, kept := board.EditorOf("card-2")
			assert.Equal(t, ownerOnly, kept)
		}
	})

	t.Run("requires user test", func(t *testing.T) {
		_, err := execute(t, "watch", "kanban")
		assert.ErrorContains(t, err, "--user is required")
	})
}

func TestEditingOf(t *testing.T) {
	editing := presence.EditingMap{"card-1": "bob"}

	assert.Equal(t, "-", editingOf(presence.Record{UserID: "alice"}, editing))
	assert.Equal(t, "card-1", editingOf(presence.Record{UserID: "bob", EditingItemID: "card-1"}, editing))
	assert.Equal(t, "card-1*", editingOf(presence.Record{UserID: "alice", EditingItemID: "card-1"}, editing))
}
