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

package presence

import "context"

// EventType represents the type of presence event delivered by a channel.
type EventType string

const (
	// EventSync delivers the full presence state of the channel.
	EventSync EventType = "sync"

	// EventJoin delivers records that appeared on the channel.
	EventJoin EventType = "join"

	// EventLeave delivers records that disappeared from the channel.
	EventLeave EventType = "leave"
)

// Event is a presence notification of a channel.
type Event struct {
	// Type is the type of the event.
	Type EventType `json:"type"`

	// Key is the connection key the joined or departed records belong to.
	// It is empty for sync events.
	Key string `json:"key,omitempty"`

	// Records are the joined or departed records.
	Records []Record `json:"records,omitempty"`

	// State is the full state of the channel when the event was emitted.
	State Snapshot `json:"state,omitempty"`
}

// Channel is a subscription to the presence state of a realtime channel.
type Channel interface {
	// Events returns the events of the channel in delivery order. The
	// returned channel is closed once the subscription ends.
	Events() <-chan Event

	// Track publishes the given record as this connection's presence.
	Track(ctx context.Context, record Record) error

	// Close ends the subscription.
	Close() error
}
