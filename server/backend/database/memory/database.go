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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-memdb"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/server/backend/database"
)

// DB is an in-memory database for a single server or testing.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// UpsertPresence stores the given presence, replacing the one with the same ID.
func (d *DB) UpsertPresence(
	_ context.Context,
	info *database.PresenceInfo,
) (*database.PresenceInfo, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblPresences, "id", info.ID.String())
	if err != nil {
		return nil, fmt.Errorf("find presence of %s: %w", info.ID, err)
	}

	var prev *database.PresenceInfo
	if raw != nil {
		prev = raw.(*database.PresenceInfo).DeepCopy()
	}

	if err := txn.Insert(tblPresences, info.DeepCopy()); err != nil {
		return nil, fmt.Errorf("upsert presence of %s: %w", info.ID, err)
	}
	txn.Commit()

	return prev, nil
}

// DeletePresence deletes the presence of the given ID.
func (d *DB) DeletePresence(
	_ context.Context,
	channel string,
	id types.ID,
) (*database.PresenceInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblPresences, "id", id.String())
	if err != nil {
		return nil, fmt.Errorf("find presence of %s: %w", id, err)
	}
	if raw == nil || raw.(*database.PresenceInfo).Channel != channel {
		return nil, fmt.Errorf("%s in %s: %w", id, channel, database.ErrPresenceNotFound)
	}

	if err := txn.Delete(tblPresences, raw); err != nil {
		return nil, fmt.Errorf("delete presence of %s: %w", id, err)
	}
	txn.Commit()

	return raw.(*database.PresenceInfo).DeepCopy(), nil
}

// FindPresences returns the presences of the given channel ordered by ID.
func (d *DB) FindPresences(
	_ context.Context,
	channel string,
) ([]*database.PresenceInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblPresences, "channel", channel)
	if err != nil {
		return nil, fmt.Errorf("find presences of %s: %w", channel, err)
	}

	var infos []*database.PresenceInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		infos = append(infos, raw.(*database.PresenceInfo).DeepCopy())
	}

	slices.SortFunc(infos, func(a, b *database.PresenceInfo) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return infos, nil
}

// FindChannels returns the names of channels having presences.
func (d *DB) FindChannels(_ context.Context) ([]string, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblPresences, "channel_prefix", "")
	if err != nil {
		return nil, fmt.Errorf("find channels: %w", err)
	}

	var channels []string
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		channel := raw.(*database.PresenceInfo).Channel
		if len(channels) == 0 || channels[len(channels)-1] != channel {
			channels = append(channels, channel)
		}
	}

	return channels, nil
}
