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

package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ZeroCho/learn-supabase/pkg/errors"
)

var (
	// ErrBoardStarted is returned when starting a board that is running.
	ErrBoardStarted = errors.FailedPrecond("board is already started").WithCode("ErrBoardStarted")

	// ErrBoardNotStarted is returned when using a board that is not running.
	ErrBoardNotStarted = errors.FailedPrecond("board is not started").WithCode("ErrBoardNotStarted")

	// ErrChannelEnded is reported by Err when the transport ended the channel
	// while the board was running.
	ErrChannelEnded = errors.Unavailable("presence channel ended").WithCode("ErrChannelEnded")
)

// LeavePolicy decides which claims a leave event removes.
type LeavePolicy int

const (
	// LeaveUnconditional removes every claim named by the departed records.
	LeaveUnconditional LeavePolicy = iota

	// LeaveOwnerOnly removes a claim only if the departed user still holds it.
	LeaveOwnerOnly
)

// ChangeHandler is called with copies of both projections after they change.
// It must not call Stop.
type ChangeHandler func(roster Roster, editing EditingMap)

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the board.
type Options struct {
	// LeavePolicy is the policy applied to leave events.
	LeavePolicy LeavePolicy

	// OnChange is called after each change of the projections.
	OnChange ChangeHandler

	// Logger is the logger of the board.
	Logger *zap.SugaredLogger

	// Clock returns the current time. It stamps published records.
	Clock func() time.Time
}

// WithLeavePolicy configures the leave policy of the board.
func WithLeavePolicy(policy LeavePolicy) Option {
	return func(o *Options) { o.LeavePolicy = policy }
}

// WithChangeHandler configures the handler called after each change.
func WithChangeHandler(handler ChangeHandler) Option {
	return func(o *Options) { o.OnChange = handler }
}

// WithLogger configures the logger of the board.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithClock configures the clock of the board.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.Clock = clock }
}

// Board holds the presence projections of one user on one channel. It is
// started when the channel is subscribed and stopped when it is left; the
// projections live only in between.
type Board struct {
	userID string
	email  string
	opts   Options

	mu      sync.RWMutex
	channel Channel
	done    chan struct{}
	ended   bool
	self    Record
	roster  Roster
	editing EditingMap
}

// NewBoard creates a board for the given user.
func NewBoard(userID, email string, opts ...Option) *Board {
	options := Options{
		LeavePolicy: LeaveUnconditional,
		Logger:      zap.NewNop().Sugar(),
		Clock:       time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Board{
		userID: userID,
		email:  email,
		opts:   options,
	}
}

// Start starts consuming the events of the given channel and publishes the
// user's presence on it.
func (b *Board) Start(ctx context.Context, ch Channel) error {
	b.mu.Lock()
	if b.channel != nil {
		b.mu.Unlock()
		return ErrBoardStarted
	}

	b.channel = ch
	b.done = make(chan struct{})
	b.ended = false
	b.roster = Roster{}
	b.editing = EditingMap{}
	b.self = Record{
		UserID:   b.userID,
		OnlineAt: b.opts.Clock(),
		Email:    b.email,
	}
	self := b.self
	done := b.done
	b.mu.Unlock()

	go b.run(ch, done)

	if err := ch.Track(ctx, self); err != nil {
		if stopErr := b.Stop(); stopErr != nil {
			b.opts.Logger.Warnf("stop board: %v", stopErr)
		}
		return fmt.Errorf("track presence of %s: %w", b.userID, err)
	}

	return nil
}

// Stop closes the channel, waits for pending events to be consumed and
// discards the projections. Stopping a board that is not running is a no-op.
func (b *Board) Stop() error {
	b.mu.Lock()
	ch, done := b.channel, b.done
	if ch == nil {
		b.mu.Unlock()
		// a channel ended by the transport may still be tearing down
		if done != nil {
			<-done
		}
		return nil
	}
	b.channel = nil
	b.mu.Unlock()

	err := ch.Close()
	<-done

	b.mu.Lock()
	b.roster = nil
	b.editing = nil
	b.mu.Unlock()

	if err != nil {
		return fmt.Errorf("close channel: %w", err)
	}
	return nil
}

// Apply applies the given event to the projections. Events from the started
// channel are applied automatically.
func (b *Board) Apply(event Event) {
	b.mu.Lock()
	switch event.Type {
	case EventSync:
		b.roster, b.editing = ApplySync(event.State)
	case EventJoin:
		b.editing = ApplyJoin(event.Records, event.State)
	case EventLeave:
		if b.opts.LeavePolicy == LeaveOwnerOnly {
			b.editing = ApplyLeaveOwned(event.Records, b.editing)
		} else {
			b.editing = ApplyLeave(event.Records, b.editing)
		}
	default:
		b.mu.Unlock()
		b.opts.Logger.Warnf("unknown presence event: %q", event.Type)
		return
	}
	b.mu.Unlock()

	b.notify()
}

// StartEditing claims the given item for the user. The claim is reflected
// locally without waiting for the channel to echo it.
func (b *Board) StartEditing(ctx context.Context, itemID string) error {
	b.mu.RLock()
	ch := b.channel
	record := b.self
	b.mu.RUnlock()
	if ch == nil {
		return ErrBoardNotStarted
	}

	record.OnlineAt = b.opts.Clock()
	record.EditingItemID = itemID
	if err := ch.Track(ctx, record); err != nil {
		return fmt.Errorf("track editing of %s: %w", itemID, err)
	}

	b.mu.Lock()
	b.self = record
	if b.editing != nil {
		b.editing[itemID] = b.userID
	}
	b.mu.Unlock()

	b.notify()
	return nil
}

// StopEditing releases the user's claim on the given item. An empty itemID
// releases whatever the user holds; a claim on another item is kept.
func (b *Board) StopEditing(ctx context.Context, itemID string) error {
	b.mu.RLock()
	ch := b.channel
	record := b.self
	b.mu.RUnlock()
	if ch == nil {
		return ErrBoardNotStarted
	}

	if itemID == "" {
		itemID = record.EditingItemID
	}
	if record.EditingItemID != itemID {
		return nil
	}

	record.OnlineAt = b.opts.Clock()
	record.EditingItemID = ""
	if err := ch.Track(ctx, record); err != nil {
		return fmt.Errorf("track release of %s: %w", itemID, err)
	}

	b.mu.Lock()
	b.self = record
	if b.editing != nil && b.editing[itemID] == b.userID {
		delete(b.editing, itemID)
	}
	b.mu.Unlock()

	b.notify()
	return nil
}

// UserID returns the ID of the user of this board.
func (b *Board) UserID() string {
	return b.userID
}

// Self returns the record last published by this board.
func (b *Board) Self() Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.self
}

// Roster returns a copy of the online roster.
func (b *Board) Roster() Roster {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.roster.Clone()
}

// Editing returns a copy of the editing map.
func (b *Board) Editing() EditingMap {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.editing.Clone()
}

// EditorOf returns the user editing the given item.
func (b *Board) EditorOf(itemID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	userID, ok := b.editing[itemID]
	return userID, ok
}

// Done returns a channel that is closed when the board stops consuming its
// channel, either by Stop or because the transport ended the channel. It
// returns nil before the first Start.
func (b *Board) Done() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.done
}

// Err returns ErrChannelEnded if the transport ended the channel of the last
// run, and nil otherwise.
func (b *Board) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.ended {
		return ErrChannelEnded
	}
	return nil
}

func (b *Board) run(ch Channel, done chan struct{}) {
	defer close(done)

	for event := range ch.Events() {
		b.Apply(event)
	}

	// Stop detaches the channel before closing it, so a channel still
	// attached here was ended by the transport.
	b.mu.Lock()
	if b.channel != ch {
		b.mu.Unlock()
		return
	}
	b.channel = nil
	b.ended = true
	b.roster = nil
	b.editing = nil
	b.mu.Unlock()

	if err := ch.Close(); err != nil {
		b.opts.Logger.Warnf("close ended channel: %v", err)
	}
	b.opts.Logger.Infof("presence channel of %s ended", b.userID)
	b.notify()
}

func (b *Board) notify() {
	if b.opts.OnChange == nil {
		return
	}

	b.mu.RLock()
	roster, editing := b.roster.Clone(), b.editing.Clone()
	b.mu.RUnlock()

	b.opts.OnChange(roster, editing)
}
