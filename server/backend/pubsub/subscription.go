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

package pubsub

import (
	"context"
	"sync"
	gotime "time"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
)

const (
	// publishTimeout is the timeout for publishing an event.
	publishTimeout = 100 * gotime.Millisecond
)

// Subscription represents a connection subscribed to the presence of a
// channel. It implements presence.Channel.
type Subscription struct {
	id      types.ID
	channel string
	key     string
	pubSub  *PubSub

	// record is the tracked record. It is guarded by the lock of the
	// channel.
	record *presence.Record

	mu     sync.Mutex
	closed bool
	events chan presence.Event
}

func newSubscription(pubSub *PubSub, channel, key string, bufSize int) *Subscription {
	return &Subscription{
		id:      types.NewID(),
		channel: channel,
		key:     key,
		pubSub:  pubSub,
		events:  make(chan presence.Event, bufSize),
	}
}

// ID returns the id of this subscription.
func (s *Subscription) ID() types.ID {
	return s.id
}

// Channel returns the name of the subscribed channel.
func (s *Subscription) Channel() string {
	return s.channel
}

// Key returns the connection key the records of this subscription are
// published under.
func (s *Subscription) Key() string {
	return s.key
}

// Events returns the event channel of this subscription.
func (s *Subscription) Events() <-chan presence.Event {
	return s.events
}

// Track publishes the given record as the presence of this subscription.
func (s *Subscription) Track(ctx context.Context, record presence.Record) error {
	return s.pubSub.Track(ctx, s, record)
}

// Untrack removes the presence of this subscription.
func (s *Subscription) Untrack(ctx context.Context) error {
	return s.pubSub.Untrack(ctx, s)
}

// Close unsubscribes this subscription from the channel.
func (s *Subscription) Close() error {
	return s.pubSub.Unsubscribe(context.Background(), s)
}

// IsClosed returns whether this subscription has ended.
func (s *Subscription) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// close closes the event channel. It reports whether this call closed it.
func (s *Subscription) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.closed = true
	close(s.events)
	return true
}

// publish publishes the given event to the subscriber.
func (s *Subscription) publish(event presence.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	// NOTE: A subscriber that stops draining its events misses them
	// instead of blocking the channel.
	select {
	case s.events <- event:
		return true
	case <-gotime.After(publishTimeout):
		return false
	}
}
