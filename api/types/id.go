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

// Package types provides the types exchanged between the presence server and
// its clients.
package types

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
)

// ErrInvalidID is returned when the given ID is not an xid.
var ErrInvalidID = errors.New("invalid ID")

// ID identifies a connection on a channel. IDs are time-sortable, so
// ordering them orders connections by when they were created.
type ID string

// NewID creates a new unique ID.
func NewID() ID {
	return ID(xid.New().String())
}

// String returns a string representation of this ID.
func (id ID) String() string {
	return string(id)
}

// Validate returns error if this ID is invalid.
func (id ID) Validate() error {
	if _, err := xid.FromString(string(id)); err != nil {
		return fmt.Errorf("%s: %w", id, ErrInvalidID)
	}
	return nil
}
