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

// Package redis implements the database interface using Redis. Servers
// sharing a Redis see the same presences and relay their events to each
// other through Redis Pub/Sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/server/backend/database"
	"github.com/ZeroCho/learn-supabase/server/logging"
)

var _ database.Database = (*Client)(nil)

// Client is a client that connects to Redis.
type Client struct {
	config *Config
	client *goredis.Client

	// node identifies this client in relayed events, so that it skips its
	// own ones.
	node string

	mu     sync.Mutex
	relays []*goredis.PubSub
}

// Dial creates an instance of Client and dials the given Redis.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	client := goredis.NewClient(&goredis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logging.DefaultLogger().Infof("Redis connected, Addr: %s, DB: %d", conf.Addr, conf.DB)

	return &Client{
		config: conf,
		client: client,
		node:   types.NewID().String(),
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	c.mu.Lock()
	relays := c.relays
	c.relays = nil
	c.mu.Unlock()

	for _, relay := range relays {
		// NOTE: a relay whose context is done may already be closed.
		_ = relay.Close()
	}

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

func (c *Client) channelKey(channel string) string {
	return c.config.KeyPrefix + ":channel:" + channel
}

func (c *Client) channelPattern() string {
	return c.config.KeyPrefix + ":channel:*"
}

// UpsertPresence stores the given presence, replacing the one with the same ID.
func (c *Client) UpsertPresence(
	ctx context.Context,
	info *database.PresenceInfo,
) (*database.PresenceInfo, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("marshal presence of %s: %w", info.ID, err)
	}

	key := c.channelKey(info.Channel)
	var prevCmd *goredis.StringCmd
	if _, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		prevCmd = pipe.HGet(ctx, key, info.ID.String())
		pipe.HSet(ctx, key, info.ID.String(), data)
		pipe.Expire(ctx, key, c.config.ParseChannelTTL())
		return nil
	}); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("upsert presence of %s: %w", info.ID, err)
	}

	return decodeInfo(prevCmd)
}

// DeletePresence deletes the presence of the given ID.
func (c *Client) DeletePresence(
	ctx context.Context,
	channel string,
	id types.ID,
) (*database.PresenceInfo, error) {
	key := c.channelKey(channel)
	var prevCmd *goredis.StringCmd
	if _, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		prevCmd = pipe.HGet(ctx, key, id.String())
		pipe.HDel(ctx, key, id.String())
		return nil
	}); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("delete presence of %s: %w", id, err)
	}

	info, err := decodeInfo(prevCmd)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%s in %s: %w", id, channel, database.ErrPresenceNotFound)
	}

	return info, nil
}

// FindPresences returns the presences of the given channel ordered by ID.
// Presences not refreshed within the record TTL are left out and removed.
func (c *Client) FindPresences(
	ctx context.Context,
	channel string,
) ([]*database.PresenceInfo, error) {
	key := c.channelKey(channel)
	values, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("find presences of %s: %w", channel, err)
	}

	var cutoff time.Time
	if ttl := c.config.ParseRecordTTL(); ttl > 0 {
		cutoff = time.Now().Add(-ttl)
	}

	var stale []string
	infos := make([]*database.PresenceInfo, 0, len(values))
	for id, value := range values {
		info := &database.PresenceInfo{}
		if err := json.Unmarshal([]byte(value), info); err != nil {
			return nil, fmt.Errorf("unmarshal presence of %s: %w", id, err)
		}
		if info.UpdatedAt.Before(cutoff) {
			stale = append(stale, id)
			continue
		}
		infos = append(infos, info)
	}

	if len(stale) > 0 {
		if err := c.client.HDel(ctx, key, stale...).Err(); err != nil {
			logging.From(ctx).Warnf("remove stale presences of %s: %v", channel, err)
		}
	}

	slices.SortFunc(infos, func(a, b *database.PresenceInfo) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return infos, nil
}

// FindChannels returns the names of channels having presences.
func (c *Client) FindChannels(ctx context.Context) ([]string, error) {
	prefix := c.channelKey("")

	var channels []string
	iter := c.client.Scan(ctx, 0, c.channelPattern(), 0).Iterator()
	for iter.Next(ctx) {
		channels = append(channels, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("find channels: %w", err)
	}

	slices.Sort(channels)
	return slices.Compact(channels), nil
}

// decodeInfo decodes the presence read by the given command. It returns nil
// when the field did not exist.
func decodeInfo(cmd *goredis.StringCmd) (*database.PresenceInfo, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presence: %w", err)
	}

	info := &database.PresenceInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("unmarshal presence: %w", err)
	}

	return info, nil
}
