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

// Package pubsub fans out presence changes of channels to their subscribers.
package pubsub

import (
	"context"
	"fmt"
	"sync"
	gotime "time"

	"go.uber.org/zap"

	"github.com/ZeroCho/learn-supabase/internal/validation"
	"github.com/ZeroCho/learn-supabase/pkg/errors"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
	"github.com/ZeroCho/learn-supabase/server/backend/database"
	"github.com/ZeroCho/learn-supabase/server/logging"
	"github.com/ZeroCho/learn-supabase/server/profiling/prometheus"
)

var (
	// ErrTooManySubscribers is returned when the subscription limit is exceeded.
	ErrTooManySubscribers = errors.ResourceExhausted("subscription limit exceeded").WithCode("ErrTooManySubscribers")

	// ErrSubscriptionClosed is returned when tracking on a closed subscription.
	ErrSubscriptionClosed = errors.FailedPrecond("subscription closed").WithCode("ErrSubscriptionClosed")

	// ErrInvalidRecord is returned when a tracked record is invalid.
	ErrInvalidRecord = errors.InvalidArgument("invalid presence record").WithCode("ErrInvalidRecord")

	// ErrInvalidChannel is returned when the channel name is invalid.
	ErrInvalidChannel = errors.InvalidArgument("invalid channel name").WithCode("ErrInvalidChannel")
)

// Options are the options of PubSub.
type Options struct {
	// SubscriptionLimit is the maximum number of subscriptions per channel.
	// Zero means no limit.
	SubscriptionLimit int

	// BufferSize is the size of the event buffer of each subscription.
	BufferSize int

	// Broker relays events to the servers sharing the database. Without it,
	// events reach the subscribers of this server only.
	Broker Broker
}

// Broker relays the events of channels between servers.
type Broker interface {
	// PublishEvent relays the given event of the channel to the other servers.
	PublishEvent(ctx context.Context, channel string, event presence.Event) error

	// SubscribeEvents calls handler with the events relayed by the other
	// servers until ctx is done.
	SubscribeEvents(ctx context.Context, handler func(channel string, event presence.Event)) error
}

// subscriptions is the set of subscriptions of one channel. Its lock
// serializes the changes of the channel, so every subscriber receives the
// events of the channel in the same order.
type subscriptions struct {
	mu      sync.Mutex
	removed bool
	subs    map[string]*Subscription
}

// PubSub manages the presence of channels and the subscriptions to them.
type PubSub struct {
	db      database.Database
	metrics *prometheus.Metrics
	options Options

	mu       sync.Mutex
	channels map[string]*subscriptions
}

// New creates an instance of PubSub.
func New(db database.Database, metrics *prometheus.Metrics, options Options) *PubSub {
	if options.BufferSize < 1 {
		options.BufferSize = 1
	}

	return &PubSub{
		db:       db,
		metrics:  metrics,
		options:  options,
		channels: make(map[string]*subscriptions),
	}
}

// acquire returns the locked subscriptions of the given channel, creating
// them if needed.
func (m *PubSub) acquire(channel string) *subscriptions {
	for {
		m.mu.Lock()
		subs, ok := m.channels[channel]
		if !ok {
			subs = &subscriptions{subs: make(map[string]*Subscription)}
			m.channels[channel] = subs
		}
		m.mu.Unlock()

		subs.mu.Lock()
		if !subs.removed {
			return subs
		}
		subs.mu.Unlock()
	}
}

// release unlocks the given subscriptions, dropping them when the channel
// has no subscriber left.
func (m *PubSub) release(channel string, subs *subscriptions) {
	if len(subs.subs) > 0 {
		subs.mu.Unlock()
		return
	}

	subs.removed = true
	subs.mu.Unlock()

	m.mu.Lock()
	if m.channels[channel] == subs {
		delete(m.channels, channel)
	}
	m.mu.Unlock()
}

// Subscribe subscribes a connection with the given key to the given channel.
// The new subscription first receives a sync event with the current state.
func (m *PubSub) Subscribe(
	ctx context.Context,
	channel string,
	key string,
) (*Subscription, error) {
	if err := validation.ValidateValue(channel, "required,channel,max=128"); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrInvalidChannel)
	}

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) Start`, channel, key)
	}

	subs := m.acquire(channel)
	defer m.release(channel, subs)

	limit := m.options.SubscriptionLimit
	if limit > 0 && len(subs.subs) >= limit {
		return nil, fmt.Errorf(
			"%d subscribers allowed per channel: %w",
			limit,
			ErrTooManySubscribers,
		)
	}

	state, err := m.Snapshot(ctx, channel)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(m, channel, key, m.options.BufferSize)
	sub.events <- presence.Event{Type: presence.EventSync, State: state}
	subs.subs[sub.ID().String()] = sub

	m.metrics.AddPresenceConnections(channel)
	m.metrics.AddPresenceEvents(string(presence.EventSync), 1)

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) End`, channel, sub.ID())
	}

	return sub, nil
}

// Unsubscribe untracks and closes the given subscription. Unsubscribing a
// closed subscription does nothing.
func (m *PubSub) Unsubscribe(ctx context.Context, sub *Subscription) error {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) Start`, sub.channel, sub.ID())
	}

	subs := m.acquire(sub.channel)
	defer m.release(sub.channel, subs)

	if !sub.close() {
		return nil
	}
	delete(subs.subs, sub.ID().String())
	m.metrics.RemovePresenceConnections(sub.channel)

	if err := m.untrack(ctx, subs, sub); err != nil {
		return err
	}

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) End`, sub.channel, sub.ID())
	}

	return nil
}

// Track stores the given record as the presence of the given subscription
// and notifies the subscribers of the channel with join, leave of the
// replaced record if any, then sync.
func (m *PubSub) Track(
	ctx context.Context,
	sub *Subscription,
	record presence.Record,
) error {
	if err := validation.ValidateStruct(record); err != nil {
		m.metrics.AddPresenceTrack("error")
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidRecord)
	}

	now := gotime.Now().UTC()
	if record.OnlineAt.IsZero() {
		record.OnlineAt = now
	}

	subs := m.acquire(sub.channel)
	defer m.release(sub.channel, subs)

	if sub.IsClosed() {
		m.metrics.AddPresenceTrack("error")
		return ErrSubscriptionClosed
	}

	prev, err := m.db.UpsertPresence(ctx, &database.PresenceInfo{
		ID:        sub.ID(),
		Channel:   sub.channel,
		Key:       sub.key,
		Record:    record,
		UpdatedAt: now,
	})
	if err != nil {
		m.metrics.AddPresenceTrack("error")
		return err
	}
	m.metrics.AddPresenceTrack("ok")
	sub.record = &record

	state, err := m.Snapshot(ctx, sub.channel)
	if err != nil {
		return err
	}

	m.broadcast(ctx, sub.channel, subs, presence.Event{
		Type:    presence.EventJoin,
		Key:     sub.key,
		Records: []presence.Record{record},
		State:   state,
	})
	if prev != nil {
		m.broadcast(ctx, sub.channel, subs, presence.Event{
			Type:    presence.EventLeave,
			Key:     sub.key,
			Records: []presence.Record{prev.Record},
			State:   state,
		})
	}
	m.broadcast(ctx, sub.channel, subs, presence.Event{Type: presence.EventSync, State: state})

	return nil
}

// Untrack removes the presence of the given subscription and notifies the
// subscribers with leave then sync. It does nothing if nothing was tracked.
func (m *PubSub) Untrack(ctx context.Context, sub *Subscription) error {
	subs := m.acquire(sub.channel)
	defer m.release(sub.channel, subs)

	return m.untrack(ctx, subs, sub)
}

func (m *PubSub) untrack(ctx context.Context, subs *subscriptions, sub *Subscription) error {
	sub.record = nil
	prev, err := m.db.DeletePresence(ctx, sub.channel, sub.ID())
	if errors.IsStatus(err, errors.ErrCodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	state, err := m.Snapshot(ctx, sub.channel)
	if err != nil {
		return err
	}

	m.broadcast(ctx, sub.channel, subs, presence.Event{
		Type:    presence.EventLeave,
		Key:     sub.key,
		Records: []presence.Record{prev.Record},
		State:   state,
	})
	m.broadcast(ctx, sub.channel, subs, presence.Event{Type: presence.EventSync, State: state})

	return nil
}

// Relay delivers the events relayed by the other servers to the subscribers
// of this server until ctx is done. It does nothing without a broker.
func (m *PubSub) Relay(ctx context.Context) error {
	if m.options.Broker == nil {
		return nil
	}

	return m.options.Broker.SubscribeEvents(ctx, func(channel string, event presence.Event) {
		m.deliver(ctx, channel, event)
	})
}

// Heartbeat refreshes the stored records of the subscriptions of this server
// without notifying anyone, so that they are not taken as stale.
func (m *PubSub) Heartbeat(ctx context.Context) error {
	m.mu.Lock()
	channels := make([]string, 0, len(m.channels))
	for channel := range m.channels {
		channels = append(channels, channel)
	}
	m.mu.Unlock()

	var firstErr error
	for _, channel := range channels {
		err := m.refresh(ctx, channel)
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		logging.From(ctx).Warnf("heartbeat of %s: %v", channel, err)
	}
	return firstErr
}

func (m *PubSub) refresh(ctx context.Context, channel string) error {
	subs := m.acquire(channel)
	defer m.release(channel, subs)

	now := gotime.Now().UTC()
	for _, sub := range subs.subs {
		if sub.record == nil {
			continue
		}

		if _, err := m.db.UpsertPresence(ctx, &database.PresenceInfo{
			ID:        sub.ID(),
			Channel:   sub.channel,
			Key:       sub.key,
			Record:    *sub.record,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("refresh presence of %s: %w", sub.ID(), err)
		}
	}

	return nil
}

// deliver publishes an event relayed by another server to the subscribers of
// the channel on this server, if any.
func (m *PubSub) deliver(ctx context.Context, channel string, event presence.Event) {
	m.mu.Lock()
	subs, ok := m.channels[channel]
	m.mu.Unlock()
	if !ok {
		return
	}

	subs.mu.Lock()
	defer subs.mu.Unlock()
	if subs.removed {
		return
	}
	m.publish(ctx, subs, event)
}

// Snapshot returns the current presence state of the given channel.
func (m *PubSub) Snapshot(ctx context.Context, channel string) (presence.Snapshot, error) {
	infos, err := m.db.FindPresences(ctx, channel)
	if err != nil {
		return nil, err
	}

	return database.ToSnapshot(infos), nil
}

// Channels returns the names of channels having presences.
func (m *PubSub) Channels(ctx context.Context) ([]string, error) {
	return m.db.FindChannels(ctx)
}

// Subscribers returns the number of subscriptions of the given channel.
func (m *PubSub) Subscribers(channel string) int {
	m.mu.Lock()
	subs, ok := m.channels[channel]
	m.mu.Unlock()
	if !ok {
		return 0
	}

	subs.mu.Lock()
	defer subs.mu.Unlock()
	return len(subs.subs)
}

// broadcast publishes the given event to the locked subscriptions and relays
// it to the other servers.
func (m *PubSub) broadcast(
	ctx context.Context,
	channel string,
	subs *subscriptions,
	event presence.Event,
) {
	m.publish(ctx, subs, event)

	if m.options.Broker == nil {
		return
	}
	if err := m.options.Broker.PublishEvent(ctx, channel, event); err != nil {
		logging.From(ctx).Warnf("relay %s event of %s: %v", event.Type, channel, err)
	}
}

// publish publishes the given event to every subscription of the locked
// subscriptions.
func (m *PubSub) publish(ctx context.Context, subs *subscriptions, event presence.Event) {
	delivered, dropped := 0, 0
	for _, sub := range subs.subs {
		if sub.publish(event) {
			delivered++
			continue
		}

		dropped++
		logging.From(ctx).Warnf(
			"publish(%s,%s) to %s timeout or closed",
			event.Type,
			sub.channel,
			sub.ID(),
		)
	}

	m.metrics.AddPresenceEvents(string(event.Type), delivered)
	if dropped > 0 {
		m.metrics.AddDroppedPresenceEvents(string(event.Type), dropped)
	}
}
