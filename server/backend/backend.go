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

// Package backend assembles the presence storage, the pubsub and the metrics
// used by the RPC server.
package backend

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ZeroCho/learn-supabase/server/backend/database"
	memdb "github.com/ZeroCho/learn-supabase/server/backend/database/memory"
	"github.com/ZeroCho/learn-supabase/server/backend/database/redis"
	"github.com/ZeroCho/learn-supabase/server/backend/pubsub"
	"github.com/ZeroCho/learn-supabase/server/logging"
	"github.com/ZeroCho/learn-supabase/server/profiling/prometheus"
)

// Backend manages the presence storage and the pubsub of channels.
type Backend struct {
	Config *Config

	// PubSub is used to track presences and deliver their changes.
	PubSub *pubsub.PubSub

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics

	// DB is the database instance.
	DB database.Database

	// cancel stops the relay and the heartbeat of a shared database.
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new instance of Backend. If the Redis configuration is given,
// presences are stored in Redis. Otherwise, they are kept in memory. If
// metrics is nil, a new registry is created.
func New(
	conf *Config,
	redisConf *redis.Config,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	if conf.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}

	if metrics == nil {
		var err error
		if metrics, err = prometheus.NewMetrics(); err != nil {
			return nil, err
		}
	}

	options := pubsub.Options{
		SubscriptionLimit: conf.SubscriptionLimitPerChannel,
		BufferSize:        conf.SubscriptionBufferSize,
	}

	var db database.Database
	var redisClient *redis.Client
	var err error
	dbInfo := "memory"
	if redisConf != nil {
		if redisClient, err = redis.Dial(redisConf); err != nil {
			return nil, err
		}
		db = redisClient
		options.Broker = redisClient
		dbInfo = redisConf.Addr
	} else {
		if db, err = memdb.New(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	be := &Backend{
		Config:  conf,
		PubSub:  pubsub.New(db, metrics, options),
		Metrics: metrics,
		DB:      db,
		cancel:  cancel,
	}

	if redisClient != nil {
		if err := be.PubSub.Relay(ctx); err != nil {
			cancel()
			_ = db.Close()
			return nil, err
		}
		be.startHeartbeat(ctx, redisConf.ParseRecordTTL()/3)
	}

	logging.DefaultLogger().Infof("backend created: host: %s, db: %s", conf.Hostname, dbInfo)

	return be, nil
}

// startHeartbeat refreshes the records of this server at the given interval
// until ctx is done.
func (b *Backend) startHeartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := b.PubSub.Heartbeat(ctx); err != nil {
					logging.DefaultLogger().Warnf("heartbeat: %v", err)
				}
			}
		}
	}()
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	b.cancel()
	b.wg.Wait()

	if err := b.DB.Close(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
