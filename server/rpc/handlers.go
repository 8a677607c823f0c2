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

package rpc

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/internal/validation"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
	"github.com/ZeroCho/learn-supabase/server/backend/pubsub"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{Status: "ok"})
}

func (s *Server) listChannels(c *gin.Context) {
	channels, err := s.backend.PubSub.Channels(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	if channels == nil {
		channels = []string{}
	}
	c.JSON(http.StatusOK, channels)
}

// getPresence returns the roster and the editing state of the channel,
// computed the same way clients compute them from a sync event.
func (s *Server) getPresence(c *gin.Context) {
	channel := c.Param("channel")
	if err := validation.ValidateValue(channel, "required,channel,max=128"); err != nil {
		abortWithError(c, pubsub.ErrInvalidChannel)
		return
	}

	state, err := s.backend.PubSub.Snapshot(c.Request.Context(), channel)
	if err != nil {
		abortWithError(c, err)
		return
	}

	roster, editing := presence.ApplySync(state)
	c.JSON(http.StatusOK, types.PresenceResponse{
		Channel: channel,
		Roster:  roster,
		Editing: editing,
	})
}

// watchPresence subscribes the connection to the channel and upgrades it to
// a WebSocket session.
func (s *Server) watchPresence(c *gin.Context) {
	ctx := c.Request.Context()
	channel := c.Param("channel")
	key := c.Query("key")
	if key == "" {
		key = types.NewID().String()
	}

	if !s.beginSession() {
		abortWithError(c, ErrShuttingDown)
		return
	}
	defer s.sessions.Done()

	sub, err := s.backend.PubSub.Subscribe(ctx, channel, key)
	if err != nil {
		abortWithError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already replied to the client.
		_ = c.Error(err)
		if err := sub.Close(); err != nil {
			_ = c.Error(err)
		}
		return
	}

	newSession(s, conn, sub).run(ctx)
}
