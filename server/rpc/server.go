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

// Package rpc provides the HTTP and WebSocket endpoints of the presence
// server.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ZeroCho/learn-supabase/server/backend"
	"github.com/ZeroCho/learn-supabase/server/logging"
	"github.com/ZeroCho/learn-supabase/server/rpc/auth"
)

const readHeaderTimeout = 10 * time.Second

// Server serves the presence of channels over HTTP and WebSocket.
type Server struct {
	conf         *Config
	backend      *backend.Backend
	tokenManager *auth.TokenManager
	upgrader     websocket.Upgrader
	engine       *gin.Engine
	httpServer   *http.Server
	listener     net.Listener

	// serviceCtx is canceled on shutdown to end the open sessions.
	serviceCtx    context.Context
	serviceCancel context.CancelFunc

	// sessionsMu orders the registration of sessions before shutdown waits
	// for them.
	sessionsMu   sync.Mutex
	shuttingDown bool
	sessions     sync.WaitGroup
}

// NewServer creates a new instance of Server. A nil token manager disables
// authentication.
func NewServer(conf *Config, be *backend.Backend, tokenManager *auth.TokenManager) *Server {
	gin.SetMode(gin.ReleaseMode)

	serviceCtx, serviceCancel := context.WithCancel(context.Background())
	s := &Server{
		conf:          conf,
		backend:       be,
		tokenManager:  tokenManager,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.GET("/healthz", s.health)

	channels := engine.Group("/channels", s.authenticate())
	channels.GET("", s.listChannels)
	channels.GET("/:channel/presence", s.getPresence)
	channels.GET("/:channel/ws", s.watchPresence)

	s.engine = engine
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

// Handler returns the HTTP handler of this server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts this server by opening the rpc port.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.conf.Port))
	if err != nil {
		logging.DefaultLogger().Error(err)
		return fmt.Errorf("listen rpc on %d: %w", s.conf.Port, err)
	}
	s.listener = listener

	go func() {
		logging.DefaultLogger().Infof("serving RPC on %s", listener.Addr())

		var err error
		if s.conf.CertFile != "" && s.conf.KeyFile != "" {
			err = s.httpServer.ServeTLS(listener, s.conf.CertFile, s.conf.KeyFile)
		} else {
			err = s.httpServer.Serve(listener)
		}
		if !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Error(err)
		}
	}()

	return nil
}

// Port returns the port this server listens on, once started.
func (s *Server) Port() int {
	if s.listener == nil {
		return s.conf.Port
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Shutdown shuts down this server. Open sessions are closed, which removes
// their presences from the channels.
func (s *Server) Shutdown(graceful bool) {
	s.sessionsMu.Lock()
	s.shuttingDown = true
	s.sessionsMu.Unlock()

	s.serviceCancel()

	if graceful {
		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			logging.DefaultLogger().Errorf("HTTP server Shutdown: %v", err)
		}
		s.sessions.Wait()
		return
	}

	if err := s.httpServer.Close(); err != nil {
		logging.DefaultLogger().Errorf("HTTP server close: %v", err)
	}
}

// beginSession registers a session unless the server is shutting down. A
// registered session must call s.sessions.Done when it ends.
func (s *Server) beginSession() bool {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	if s.shuttingDown {
		return false
	}
	s.sessions.Add(1)
	return true
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.conf.AllowedOrigins) == 0 {
		return true
	}

	return slices.Contains(s.conf.AllowedOrigins, r.Header.Get("Origin"))
}
