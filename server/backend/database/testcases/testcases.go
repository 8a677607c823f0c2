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

// Package testcases contains testcases shared by the database implementations.
package testcases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
	"github.com/ZeroCho/learn-supabase/server/backend/database"
)

func newInfo(channel, key, userID string) *database.PresenceInfo {
	return &database.PresenceInfo{
		ID:      types.NewID(),
		Channel: channel,
		Key:     key,
		Record: presence.Record{
			UserID:   userID,
			OnlineAt: time.Unix(1700000000, 0).UTC(),
		},
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// RunUpsertPresenceTest runs the UpsertPresence test for the given db.
func RunUpsertPresenceTest(t *testing.T, db database.Database, channel string) {
	ctx := context.Background()

	t.Run("insert then replace test", func(t *testing.T) {
		info := newInfo(channel, "k1", "alice")

		prev, err := db.UpsertPresence(ctx, info)
		require.NoError(t, err)
		assert.Nil(t, prev)

		updated := info.DeepCopy()
		updated.Record.EditingItemID = "todo-1"
		prev, err = db.UpsertPresence(ctx, updated)
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, "", prev.Record.EditingItemID)

		infos, err := db.FindPresences(ctx, channel)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "todo-1", infos[0].Record.EditingItemID)
		assert.True(t, info.Record.OnlineAt.Equal(infos[0].Record.OnlineAt))
	})

	t.Run("stored info is not aliased test", func(t *testing.T) {
		info := newInfo(channel, "k2", "bob")
		_, err := db.UpsertPresence(ctx, info)
		require.NoError(t, err)

		info.Record.UserID = "mallory"
		infos, err := db.FindPresences(ctx, channel)
		require.NoError(t, err)
		for _, found := range infos {
			assert.NotEqual(t, "mallory", found.Record.UserID)
		}
	})

	t.Run("invalid info test", func(t *testing.T) {
		_, err := db.UpsertPresence(ctx, &database.PresenceInfo{Channel: channel, Key: "k"})
		assert.ErrorIs(t, err, database.ErrInvalidPresence)
	})
}

// RunFindPresencesTest runs the FindPresences and FindChannels test for the
// given db.
func RunFindPresencesTest(t *testing.T, db database.Database, channel string) {
	ctx := context.Background()
	other := channel + "-other"

	first := newInfo(channel, "k1", "alice")
	second := newInfo(channel, "k2", "bob")
	third := newInfo(other, "k3", "carol")

	// Insert out of ID order to check that results are sorted.
	for _, info := range []*database.PresenceInfo{second, third, first} {
		_, err := db.UpsertPresence(ctx, info)
		require.NoError(t, err)
	}

	infos, err := db.FindPresences(ctx, channel)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, first.ID, infos[0].ID)
	assert.Equal(t, second.ID, infos[1].ID)

	infos, err = db.FindPresences(ctx, channel+"-empty")
	require.NoError(t, err)
	assert.Empty(t, infos)

	channels, err := db.FindChannels(ctx)
	require.NoError(t, err)
	assert.Contains(t, channels, channel)
	assert.Contains(t, channels, other)
}

// RunDeletePresenceTest runs the DeletePresence test for the given db.
func RunDeletePresenceTest(t *testing.T, db database.Database, channel string) {
	ctx := context.Background()

	info := newInfo(channel, "k1", "alice")
	_, err := db.UpsertPresence(ctx, info)
	require.NoError(t, err)

	deleted, err := db.DeletePresence(ctx, channel, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", deleted.Record.UserID)

	_, err = db.DeletePresence(ctx, channel, info.ID)
	assert.ErrorIs(t, err, database.ErrPresenceNotFound)

	infos, err := db.FindPresences(ctx, channel)
	require.NoError(t, err)
	assert.Empty(t, infos)

	channels, err := db.FindChannels(ctx)
	require.NoError(t, err)
	assert.NotContains(t, channels, channel)
}
