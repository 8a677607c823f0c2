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

package types_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/errors"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
)

func TestFrame(t *testing.T) {
	t.Run("event frame test", func(t *testing.T) {
		record := presence.Record{UserID: "alice", OnlineAt: time.Unix(100, 0).UTC(), EditingItemID: "todo-1"}
		event := presence.Event{
			Type:    presence.EventJoin,
			Key:     "k1",
			Records: []presence.Record{record},
			State:   presence.Snapshot{"k1": {record}},
		}

		data, err := json.Marshal(types.NewEventFrame(event))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"type":"join"`)
		assert.Contains(t, string(data), `"editing_item_id":"todo-1"`)

		var frame types.ServerFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		decoded, err := frame.Event()
		require.NoError(t, err)
		assert.Equal(t, event, decoded)
	})

	t.Run("sync frame without state test", func(t *testing.T) {
		var frame types.ServerFrame
		require.NoError(t, json.Unmarshal([]byte(`{"type":"sync"}`), &frame))

		event, err := frame.Event()
		require.NoError(t, err)
		assert.Equal(t, presence.EventSync, event.Type)
		assert.NotNil(t, event.State)
		assert.Empty(t, event.State)
	})

	t.Run("error frame test", func(t *testing.T) {
		errDenied := errors.PermissionDenied("denied").WithCode("ErrPermissionDenied")
		frame := types.NewErrorFrame(fmt.Errorf("track: %w", errDenied))

		assert.Equal(t, types.FrameError, frame.Type)
		assert.Equal(t, "ErrPermissionDenied", frame.Code)
		assert.Equal(t, errors.ErrCodePermissionDenied, frame.Status)
		assert.Equal(t, "track: denied", frame.Message)

		_, err := frame.Event()
		assert.ErrorIs(t, err, types.ErrUnexpectedFrame)

		plain := types.NewErrorFrame(fmt.Errorf("boom"))
		assert.Equal(t, "internal", plain.Code)
	})

	t.Run("client frame test", func(t *testing.T) {
		var frame types.ClientFrame
		require.NoError(t, json.Unmarshal([]byte(`{"type":"track","record":{"user_id":"bob"}}`), &frame))
		assert.Equal(t, types.FrameTrack, frame.Type)
		require.NotNil(t, frame.Record)
		assert.Equal(t, "bob", frame.Record.UserID)
		assert.False(t, frame.Record.IsEditing())
	})
}
