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

// Package database provides the storage interface of presence records.
package database

import (
	"context"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/errors"
)

var (
	// ErrPresenceNotFound is returned when the presence could not be found.
	ErrPresenceNotFound = errors.NotFound("presence not found").WithCode("ErrPresenceNotFound")

	// ErrInvalidPresence is returned when a presence to store lacks its
	// identity.
	ErrInvalidPresence = errors.InvalidArgument("invalid presence").WithCode("ErrInvalidPresence")
)

// Database represents database which reads or saves presence records.
type Database interface {
	// Close all resources of this database.
	Close() error

	// UpsertPresence stores the given presence, replacing the one with the
	// same ID. It returns the replaced presence, or nil if there was none.
	UpsertPresence(ctx context.Context, info *PresenceInfo) (*PresenceInfo, error)

	// DeletePresence deletes the presence of the given ID and returns it.
	DeletePresence(ctx context.Context, channel string, id types.ID) (*PresenceInfo, error)

	// FindPresences returns the presences of the given channel ordered by ID.
	FindPresences(ctx context.Context, channel string) ([]*PresenceInfo, error)

	// FindChannels returns the names of channels having presences, in
	// ascending order.
	FindChannels(ctx context.Context) ([]string, error)
}
