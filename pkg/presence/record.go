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

// Package presence derives the online roster and the editing claims of a
// collaboration board from the presence state shared on a realtime channel.
package presence

import (
	"maps"
	"slices"
	"time"
)

// Record is the presence state a connection publishes on a channel.
type Record struct {
	// UserID is the ID of the user owning the connection.
	UserID string `json:"user_id" yaml:"user_id" validate:"required"`

	// OnlineAt is when the connection published this state.
	OnlineAt time.Time `json:"online_at" yaml:"online_at"`

	// EditingItemID is the item the user is editing. Empty means no claim.
	EditingItemID string `json:"editing_item_id,omitempty" yaml:"editing_item_id,omitempty" validate:"item_id"`

	// Email is the email of the user, if shared.
	Email string `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
}

// IsEditing returns whether this record claims an item.
func (r Record) IsEditing() bool {
	return r.EditingItemID != ""
}

// Snapshot is the full presence state of a channel, keyed by connection key.
type Snapshot map[string][]Record

// Keys returns the connection keys in ascending order. Every reducer walks a
// snapshot in this order, so a later key wins when two keys claim one item.
func (s Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns a deep copy of this snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}

	clone := make(Snapshot, len(s))
	for key, records := range s {
		clone[key] = slices.Clone(records)
	}
	return clone
}

// Len returns the total number of records in this snapshot.
func (s Snapshot) Len() int {
	n := 0
	for _, records := range s {
		n += len(records)
	}
	return n
}

// Roster maps a user ID to the records of that user's live connections.
type Roster map[string][]Record

// Users returns the IDs of the online users in ascending order.
func (r Roster) Users() []string {
	return slices.Sorted(maps.Keys(r))
}

// Clone returns a deep copy of this roster.
func (r Roster) Clone() Roster {
	clone := make(Roster, len(r))
	for userID, records := range r {
		clone[userID] = slices.Clone(records)
	}
	return clone
}

// EditingMap maps an item ID to the user currently editing it.
type EditingMap map[string]string

// Clone returns a copy of this map.
func (m EditingMap) Clone() EditingMap {
	clone := make(EditingMap, len(m))
	maps.Copy(clone, m)
	return clone
}
