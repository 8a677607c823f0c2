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

package database

import (
	"fmt"
	"time"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
)

// PresenceInfo is a presence record stored for one connection of a channel.
type PresenceInfo struct {
	// ID is the ID of the connection.
	ID types.ID `json:"id"`

	// Channel is the name of the channel.
	Channel string `json:"channel"`

	// Key is the connection key the record is published under.
	Key string `json:"key"`

	// Record is the published state.
	Record presence.Record `json:"record"`

	// UpdatedAt is when the record was last stored.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that the info can be stored.
func (i *PresenceInfo) Validate() error {
	if i == nil || i.Channel == "" || i.Key == "" {
		return ErrInvalidPresence
	}
	if err := i.ID.Validate(); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalidPresence)
	}
	return nil
}

// DeepCopy returns a deep copy of this info.
func (i *PresenceInfo) DeepCopy() *PresenceInfo {
	if i == nil {
		return nil
	}

	clone := *i
	return &clone
}

// ToSnapshot groups the given presences by key. Infos are expected in ID
// order, which is kept within each key.
func ToSnapshot(infos []*PresenceInfo) presence.Snapshot {
	snapshot := presence.Snapshot{}
	for _, info := range infos {
		snapshot[info.Key] = append(snapshot[info.Key], info.Record)
	}
	return snapshot
}
