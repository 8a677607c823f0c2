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
// Package server provides the presence server which is the main entry point
// of the system. The server is responsible for starting the RPC server and
// the profiling server on top of a shared backend.
package server

import (
	"fmt"
	gosync "sync"

	"github.com/ZeroCho/learn-supabase/server/backend"
	"github.com/ZeroCho/learn-supabase/server/logging"
	"github.com/ZeroCho/learn-supabase/server/profiling"
	"github.com/ZeroCho/learn-supabase/server/profiling/prometheus"
	"github.com/ZeroCho/learn-supabase/server/rpc"
	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

// Kanban is the presence server of kanban boards. It tracks who is looking at
// a board and which card each of them is editing, and broadcasts the changes
// to everyone watching the same board.
type Kanban struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	rpcServer       *rpc.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of Kanban.
func New(conf *Config) (*Kanban, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	if err := conf.Logging.Apply(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(conf.Backend, conf.Redis, metrics)
	if err != nil {
		return nil, err
	}

	rpcServer := rpc.NewServer(conf.RPC, be, auth.NewTokenManagerFromConfig(conf.Auth))

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &Kanban{
		conf:            conf,
		backend:         be,
		rpcServer:       rpcServer,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by opening the rpc port.
func (r *Kanban) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	if err := r.rpcServer.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof(
		"kanban server started: rpc: %d, auth: %t",
		r.rpcServer.Port(),
		r.conf.Auth.Enabled(),
	)
	return nil
}

// Shutdown shuts down this server.
func (r *Kanban) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	r.rpcServer.Shutdown(graceful)
	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		return err
	}

	close(r.shutdownCh)
	r.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *Kanban) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// RPCAddr returns the address of the RPC. It reflects the port actually
// bound once the server is started.
func (r *Kanban) RPCAddr() string {
	return fmt.Sprintf("localhost:%d", r.rpcServer.Port())
}

// ProfilingPort returns the port of the profiling server, or zero when it is
// disabled.
func (r *Kanban) ProfilingPort() int {
	if r.profilingServer == nil {
		return 0
	}
	return r.profilingServer.Port()
}
