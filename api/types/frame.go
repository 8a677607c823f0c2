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

package types

import (
	"fmt"

	"github.com/ZeroCho/learn-supabase/pkg/errors"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
)

// FrameType is the type of a WebSocket frame.
type FrameType string

const (
	// FrameTrack publishes the presence record of the sending connection.
	FrameTrack FrameType = "track"

	// FrameUntrack removes the presence record of the sending connection.
	FrameUntrack FrameType = "untrack"

	// FrameSync carries the full state of the channel.
	FrameSync FrameType = FrameType(presence.EventSync)

	// FrameJoin carries records that appeared on the channel.
	FrameJoin FrameType = FrameType(presence.EventJoin)

	// FrameLeave carries records that disappeared from the channel.
	FrameLeave FrameType = FrameType(presence.EventLeave)

	// FrameError reports a failed client frame.
	FrameError FrameType = "error"
)

// ErrUnexpectedFrame is returned when a frame does not carry an event.
var ErrUnexpectedFrame = errors.InvalidArgument("unexpected frame").WithCode("ErrUnexpectedFrame")

// ClientFrame is a frame sent from a client to the server.
type ClientFrame struct {
	Type   FrameType        `json:"type"`
	Record *presence.Record `json:"record,omitempty"`
}

// ServerFrame is a frame sent from the server to a client.
type ServerFrame struct {
	Type    FrameType         `json:"type"`
	Key     string            `json:"key,omitempty"`
	Records []presence.Record `json:"records,omitempty"`
	State   presence.Snapshot `json:"state,omitempty"`
	Status  errors.StatusCode `json:"status,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// NewEventFrame creates a frame delivering the given event.
func NewEventFrame(event presence.Event) ServerFrame {
	return ServerFrame{
		Type:    FrameType(event.Type),
		Key:     event.Key,
		Records: event.Records,
		State:   event.State,
	}
}

// NewErrorFrame creates a frame reporting the given error. The code is the
// code name of the error when it has one, or its status otherwise.
func NewErrorFrame(err error) ServerFrame {
	code := errors.CodeOf(err)
	if code == "" {
		code = errors.StatusOf(err).String()
	}

	return ServerFrame{
		Type:    FrameError,
		Status:  errors.StatusOf(err),
		Code:    code,
		Message: err.Error(),
	}
}

// Event converts this frame to a presence event.
func (f ServerFrame) Event() (presence.Event, error) {
	switch f.Type {
	case FrameSync, FrameJoin, FrameLeave:
	default:
		return presence.Event{}, fmt.Errorf("%s: %w", f.Type, ErrUnexpectedFrame)
	}

	state := f.State
	if state == nil {
		state = presence.Snapshot{}
	}

	return presence.Event{
		Type:    presence.EventType(f.Type),
		Key:     f.Key,
		Records: f.Records,
		State:   state,
	}, nil
}

// PresenceResponse is the roster and editing state of a channel.
type PresenceResponse struct {
	Channel string              `json:"channel" yaml:"channel"`
	Roster  presence.Roster     `json:"roster" yaml:"roster"`
	Editing presence.EditingMap `json:"editing" yaml:"editing"`
}

// HealthResponse is the response of the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of a failed HTTP request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
