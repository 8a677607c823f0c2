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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/errors"
	"github.com/ZeroCho/learn-supabase/server/backend/pubsub"
	"github.com/ZeroCho/learn-supabase/server/logging"
	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

// errFrameBufferSize is the number of error frames waiting to be written
// before further ones are dropped.
const errFrameBufferSize = 8

var (
	// ErrInvalidFrame is returned when a client sends a frame that cannot be
	// handled.
	ErrInvalidFrame = errors.InvalidArgument("invalid frame").WithCode("ErrInvalidFrame")

	// ErrShuttingDown is returned for sessions requested after shutdown began.
	ErrShuttingDown = errors.Unavailable("server is shutting down").WithCode("ErrServerShuttingDown")
)

// session relays the presence of a subscription over a WebSocket. Frames are
// read by run and written by writeLoop only.
type session struct {
	server    *Server
	conn      *websocket.Conn
	sub       *pubsub.Subscription
	errFrames chan types.ServerFrame
}

func newSession(server *Server, conn *websocket.Conn, sub *pubsub.Subscription) *session {
	return &session{
		server:    server,
		conn:      conn,
		sub:       sub,
		errFrames: make(chan types.ServerFrame, errFrameBufferSize),
	}
}

// run serves the session until the client goes away or the server shuts
// down. The subscription is closed when it returns.
func (s *session) run(ctx context.Context) {
	logger := logging.From(ctx)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		s.writeLoop()
	}()

	stop := context.AfterFunc(s.server.serviceCtx, func() {
		_ = s.conn.Close()
	})
	defer stop()

	s.readLoop(ctx)

	if err := s.sub.Close(); err != nil {
		logger.Warnf("close subscription %s: %v", s.sub.ID(), err)
	}
	<-writeDone
	_ = s.conn.Close()
}

func (s *session) readLoop(ctx context.Context) {
	logger := logging.From(ctx)
	claims := auth.ClaimsFromCtx(ctx)
	deadline := 2 * s.server.conf.ParsePingInterval()

	if s.server.conf.MaxFrameBytes > 0 {
		s.conn.SetReadLimit(s.server.conf.MaxFrameBytes)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(deadline))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, reader, err := s.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("WS : read %s: %v", s.sub.Channel(), err)
			}
			return
		}

		var frame types.ClientFrame
		if err := json.NewDecoder(reader).Decode(&frame); err != nil {
			s.sendError(fmt.Errorf("decode frame: %s: %w", err.Error(), ErrInvalidFrame))
			continue
		}

		if err := s.handle(ctx, claims, frame); err != nil {
			logging.LogFrame(logger, string(frame.Type), s.sub.Channel(), err)
			s.sendError(err)
		}
	}
}

func (s *session) handle(ctx context.Context, claims *auth.UserClaims, frame types.ClientFrame) error {
	switch frame.Type {
	case types.FrameTrack:
		if frame.Record == nil {
			return fmt.Errorf("track without record: %w", ErrInvalidFrame)
		}
		if err := auth.Authorize(claims, *frame.Record); err != nil {
			return err
		}
		return s.sub.Track(ctx, *frame.Record)
	case types.FrameUntrack:
		return s.sub.Untrack(ctx)
	default:
		return fmt.Errorf("frame type %q: %w", frame.Type, ErrInvalidFrame)
	}
}

func (s *session) sendError(err error) {
	select {
	case s.errFrames <- types.NewErrorFrame(err):
	default:
	}
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(s.server.conf.ParsePingInterval())
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-s.sub.Events():
			if !ok {
				_ = s.conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(s.server.conf.ParseWriteTimeout()),
				)
				return
			}
			if err := s.write(types.NewEventFrame(event)); err != nil {
				_ = s.conn.Close()
				return
			}
		case frame := <-s.errFrames:
			if err := s.write(frame); err != nil {
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(
				websocket.PingMessage,
				nil,
				time.Now().Add(s.server.conf.ParseWriteTimeout()),
			); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

func (s *session) write(frame types.ServerFrame) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.server.conf.ParseWriteTimeout())); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
