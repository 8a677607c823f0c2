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

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ZeroCho/learn-supabase/pkg/presence"
	"github.com/ZeroCho/learn-supabase/server/logging"
)

// envelope is a presence event relayed between servers.
type envelope struct {
	Node    string         `json:"node"`
	Channel string         `json:"channel"`
	Event   presence.Event `json:"event"`
}

func (c *Client) eventsKey() string {
	return c.config.KeyPrefix + ":events"
}

// PublishEvent relays the given event of the channel to the other servers.
func (c *Client) PublishEvent(ctx context.Context, channel string, event presence.Event) error {
	data, err := json.Marshal(envelope{
		Node:    c.node,
		Channel: channel,
		Event:   event,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event of %s: %w", event.Type, channel, err)
	}

	if err := c.client.Publish(ctx, c.eventsKey(), data).Err(); err != nil {
		return fmt.Errorf("publish %s event of %s: %w", event.Type, channel, err)
	}
	return nil
}

// SubscribeEvents calls handler with the events the other servers relay until
// ctx is done or the client is closed. Events published by this client are
// skipped. It returns once the subscription is confirmed by Redis.
func (c *Client) SubscribeEvents(
	ctx context.Context,
	handler func(channel string, event presence.Event),
) error {
	relay := c.client.Subscribe(ctx, c.eventsKey())
	if _, err := relay.Receive(ctx); err != nil {
		_ = relay.Close()
		return fmt.Errorf("subscribe %s: %w", c.eventsKey(), err)
	}

	c.mu.Lock()
	c.relays = append(c.relays, relay)
	c.mu.Unlock()

	logger := logging.From(ctx)
	messages := relay.Channel()
	go func() {
		defer func() { _ = relay.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					logger.Warnf("unmarshal relayed event: %v", err)
					continue
				}
				if env.Node == c.node {
					continue
				}
				handler(env.Channel, env.Event)
			}
		}
	}()

	return nil
}
