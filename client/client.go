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

// Package client provides a client of the presence server. A Channel joins
// the presence of a channel over WebSocket and can drive a presence.Board.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ZeroCho/learn-supabase/api/types"
	"github.com/ZeroCho/learn-supabase/pkg/errors"
	"github.com/ZeroCho/learn-supabase/pkg/presence"
)

const (
	defaultWriteTimeout = 10 * time.Second
	closeTimeout        = 3 * time.Second
	errorBufferSize     = 8
)

var (
	// ErrChannelClosed is returned when using a closed channel.
	ErrChannelClosed = errors.FailedPrecond("channel is closed").WithCode("ErrChannelClosed")

	// ErrInvalidAddr is returned when the address of the server cannot be used.
	ErrInvalidAddr = errors.InvalidArgument("invalid server address").WithCode("ErrInvalidAddr")
)

// Channel is a connection subscribed to the presence of a channel. It
// implements presence.Channel.
type Channel struct {
	conn    *websocket.Conn
	channel string
	key     string
	logger  *zap.Logger

	events chan presence.Event
	errs   chan error

	writeMu  sync.Mutex
	closing  chan struct{}
	readDone chan struct{}
	once     sync.Once
}

// Dial subscribes to the presence of the given channel of the server at
// rpcAddr, e.g. "http://localhost:8080".
func Dial(ctx context.Context, rpcAddr, channel string, opts ...Option) (*Channel, error) {
	options := newOptions(opts)
	key := options.Key
	if key == "" {
		key = uuid.New().String()
	}

	wsURL, err := endpoint(rpcAddr, "/channels/"+url.PathEscape(channel)+"/ws", true)
	if err != nil {
		return nil, err
	}
	wsURL.RawQuery = url.Values{"key": {key}}.Encode()

	header := http.Header{}
	if options.Token != "" {
		header.Set("Authorization", "Bearer "+options.Token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			return nil, decodeError(resp)
		}
		return nil, fmt.Errorf("dial %s: %w", wsURL.Redacted(), err)
	}

	c := &Channel{
		conn:     conn,
		channel:  channel,
		key:      key,
		logger:   options.Logger,
		events:   make(chan presence.Event, options.BufferSize),
		errs:     make(chan error, errorBufferSize),
		closing:  make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// Key returns the connection key of this channel.
func (c *Channel) Key() string {
	return c.key
}

// Events returns the presence events of the channel. It is closed when the
// connection ends.
func (c *Channel) Events() <-chan presence.Event {
	return c.events
}

// Errors returns the errors the server reported for frames of this channel.
// Errors are dropped when nobody receives them.
func (c *Channel) Errors() <-chan error {
	return c.errs
}

// Track publishes the given record as the presence of this connection.
func (c *Channel) Track(ctx context.Context, record presence.Record) error {
	return c.send(ctx, types.ClientFrame{Type: types.FrameTrack, Record: &record})
}

// Untrack removes the presence of this connection.
func (c *Channel) Untrack(ctx context.Context) error {
	return c.send(ctx, types.ClientFrame{Type: types.FrameUntrack})
}

// Close ends the subscription and waits for the reader to finish.
func (c *Channel) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closing)

		c.writeMu.Lock()
		writeErr := c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeTimeout),
		)
		c.writeMu.Unlock()

		if writeErr == nil {
			select {
			case <-c.readDone:
			case <-time.After(closeTimeout):
			}
		}

		if closeErr := c.conn.Close(); closeErr != nil && writeErr == nil {
			err = fmt.Errorf("close connection: %w", closeErr)
		}
		<-c.readDone
	})
	return err
}

func (c *Channel) send(ctx context.Context, frame types.ClientFrame) error {
	select {
	case <-c.closing:
		return ErrChannelClosed
	case <-c.readDone:
		return ErrChannelClosed
	default:
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("write %s frame: %w", frame.Type, err)
	}

	return nil
}

func (c *Channel) readLoop() {
	defer close(c.readDone)
	defer close(c.events)

	for {
		var frame types.ServerFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("read frame", zap.String("channel", c.channel), zap.Error(err))
			}
			return
		}

		if frame.Type == types.FrameError {
			err := errors.New(frame.Message, frame.Status).WithCode(frame.Code)
			c.logger.Debug("server error", zap.String("code", frame.Code), zap.String("message", frame.Message))
			select {
			case c.errs <- err:
			default:
			}
			continue
		}

		event, err := frame.Event()
		if err != nil {
			c.logger.Debug("skip frame", zap.Error(err))
			continue
		}

		select {
		case c.events <- event:
		case <-c.closing:
			return
		}
	}
}

// endpoint builds the URL of the given path on the server at rpcAddr. With
// websocket, the scheme is turned into ws or wss.
func endpoint(rpcAddr, path string, ws bool) (*url.URL, error) {
	if !strings.Contains(rpcAddr, "://") {
		rpcAddr = "http://" + rpcAddr
	}

	u, err := url.Parse(rpcAddr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rpcAddr, ErrInvalidAddr)
	}

	if ws {
		switch u.Scheme {
		case "http", "ws":
			u.Scheme = "ws"
		case "https", "wss":
			u.Scheme = "wss"
		default:
			return nil, fmt.Errorf("scheme %q: %w", u.Scheme, ErrInvalidAddr)
		}
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u, nil
}

// decodeError converts a failed HTTP response into a status error.
func decodeError(resp *http.Response) error {
	body := types.ErrorResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		body.Message = resp.Status
	}

	err := errors.New(body.Message, errors.StatusFromHTTP(resp.StatusCode))
	if body.Code != "" {
		return err.WithCode(body.Code)
	}
	return err
}
