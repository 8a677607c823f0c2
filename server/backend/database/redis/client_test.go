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

package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
	"github.com/ZeroCho/learn-supabase/server/backend/database"
	"github.com/ZeroCho/learn-supabase/server/backend/database/redis"
	"github.com/ZeroCho/learn-supabase/server/backend/database/testcases"
)

func TestClient(t *testing.T) {
	config := redis.DefaultConfig()
	if addr := os.Getenv("KANBAN_REDIS_ADDR"); addr != "" {
		config.Addr = addr
	}
	config.ConnectionTimeout = "1s"
	config.KeyPrefix = "kanban-test-" + xid.New().String()
	assert.NoError(t, config.Validate())

	cli, err := redis.Dial(config)
	if err != nil {
		t.Skipf("skip: redis not available: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		raw := goredis.NewClient(&goredis.Options{Addr: config.Addr})
		iter := raw.Scan(ctx, 0, config.KeyPrefix+":*", 0).Iterator()
		for iter.Next(ctx) {
			raw.Del(ctx, iter.Val())
		}
		assert.NoError(t, raw.Close())
		assert.NoError(t, cli.Close())
	})

	t.Run("RunUpsertPresence test", func(t *testing.T) {
		testcases.RunUpsertPresenceTest(t, cli, "upsert")
	})

	t.Run("RunFindPresences test", func(t *testing.T) {
		testcases.RunFindPresencesTest(t, cli, "find")
	})

	t.Run("RunDeletePresence test", func(t *testing.T) {
		testcases.RunDeletePresenceTest(t, cli, "delete")
	})

	t.Run("stale presences are left out test", func(t *testing.T) {
		ctx := context.Background()
		now := time.Now().UTC()
		fresh := &database.PresenceInfo{
			ID:        types.NewID(),
			Channel:   "stale",
			Key:       "conn-fresh",
			Record:    presence.Record{UserID: "alice"},
			UpdatedAt: now,
		}
		ghost := &database.PresenceInfo{
			ID:        types.NewID(),
			Channel:   "stale",
			Key:       "conn-ghost",
			Record:    presence.Record{UserID: "bob"},
			UpdatedAt: now.Add(-2 * config.ParseRecordTTL()),
		}
		_, err := cli.UpsertPresence(ctx, fresh)
		require.NoError(t, err)
		_, err = cli.UpsertPresence(ctx, ghost)
		require.NoError(t, err)

		infos, err := cli.FindPresences(ctx, "stale")
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, fresh.ID, infos[0].ID)

		_, err = cli.DeletePresence(ctx, "stale", ghost.ID)
		assert.ErrorIs(t, err, database.ErrPresenceNotFound)
	})
}

func TestClientRelay(t *testing.T) {
	config := redis.DefaultConfig()
	if addr := os.Getenv("KANBAN_REDIS_ADDR"); addr != "" {
		config.Addr = addr
	}
	config.ConnectionTimeout = "1s"
	config.KeyPrefix = "kanban-test-" + xid.New().String()

	nodeA, err := redis.Dial(config)
	if err != nil {
		t.Skipf("skip: redis not available: %v", err)
	}
	defer func() { assert.NoError(t, nodeA.Close()) }()
	nodeB, err := redis.Dial(config)
	require.NoError(t, err)
	defer func() { assert.NoError(t, nodeB.Close()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan relayedEvent, 8)
	handler := func(channel string, event presence.Event) {
		received <- relayedEvent{channel: channel, event: event}
	}
	require.NoError(t, nodeA.SubscribeEvents(ctx, handler))
	require.NoError(t, nodeB.SubscribeEvents(ctx, handler))

	event := presence.Event{
		Type:    presence.EventJoin,
		Key:     "conn-a",
		Records: []presence.Record{{UserID: "alice", EditingItemID: "card-1"}},
	}
	require.NoError(t, nodeA.PublishEvent(ctx, "kanban", event))

	select {
	case got := <-received:
		assert.Equal(t, "kanban", got.channel)
		assert.Equal(t, event.Type, got.event.Type)
		assert.Equal(t, event.Key, got.event.Key)
		assert.Equal(t, "card-1", got.event.Records[0].EditingItemID)
	case <-time.After(time.Second):
		t.Fatal("event was not relayed")
	}

	// the publisher does not receive its own events
	select {
	case got := <-received:
		assert.Fail(t, "unexpected event", "%+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

type relayedEvent struct {
	channel string
	event   presence.Event
}

func TestConfig(t *testing.T) {
	config := redis.DefaultConfig()
	assert.NoError(t, config.Validate())

	config.ChannelTTL = "1 day"
	assert.Error(t, config.Validate())

	config = redis.DefaultConfig()
	config.RecordTTL = "0s"
	assert.ErrorIs(t, config.Validate(), redis.ErrNonPositiveRecordTTL)
	config.RecordTTL = "soon"
	assert.Error(t, config.Validate())

	config = redis.DefaultConfig()
	config.Addr = ""
	assert.ErrorIs(t, config.Validate(), redis.ErrEmptyAddr)

	config = redis.DefaultConfig()
	config.KeyPrefix = ""
	assert.ErrorIs(t, config.Validate(), redis.ErrEmptyKeyPrefix)
}
