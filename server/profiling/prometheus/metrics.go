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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ZeroCho/learn-supabase/internal/version"
)

const (
	namespace        = "kanban"
	channelLabel     = "channel"
	eventTypeLabel   = "event_type"
	methodLabel      = "method"
	routeLabel       = "route"
	statusCodeLabel  = "status_code"
	trackResultLabel = "result"
)

// Metrics manages the metric information of the presence server.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion        *prometheus.GaugeVec
	serverHandledCounter *prometheus.CounterVec

	presenceConnections  *prometheus.GaugeVec
	presenceEventsTotal  *prometheus.CounterVec
	presenceTracksTotal  *prometheus.CounterVec
	presenceDroppedTotal *prometheus.CounterVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		serverHandledCounter: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "server_handled_total",
			Help:      "Total number of HTTP requests completed on the server, regardless of success or failure.",
		}, []string{methodLabel, routeLabel, statusCodeLabel}),
		presenceConnections: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "connections",
			Help:      "The number of connections subscribed to a channel.",
		}, []string{channelLabel}),
		presenceEventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "events_total",
			Help:      "The total count of presence events delivered to subscribers.",
		}, []string{eventTypeLabel}),
		presenceTracksTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "tracks_total",
			Help:      "The total count of presence records published by connections.",
		}, []string{trackResultLabel}),
		presenceDroppedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "dropped_events_total",
			Help:      "The total count of presence events dropped for slow subscribers.",
		}, []string{eventTypeLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddServerHandledCounter adds the number of HTTP requests completed.
func (m *Metrics) AddServerHandledCounter(method, route, statusCode string) {
	m.serverHandledCounter.With(prometheus.Labels{
		methodLabel:     method,
		routeLabel:      route,
		statusCodeLabel: statusCode,
	}).Inc()
}

// AddPresenceConnections increases the connections of the given channel.
func (m *Metrics) AddPresenceConnections(channel string) {
	m.presenceConnections.With(prometheus.Labels{channelLabel: channel}).Inc()
}

// RemovePresenceConnections decreases the connections of the given channel.
func (m *Metrics) RemovePresenceConnections(channel string) {
	m.presenceConnections.With(prometheus.Labels{channelLabel: channel}).Dec()
}

// AddPresenceEvents adds the number of delivered events of the given type.
func (m *Metrics) AddPresenceEvents(eventType string, count int) {
	m.presenceEventsTotal.With(prometheus.Labels{eventTypeLabel: eventType}).Add(float64(count))
}

// AddDroppedPresenceEvents adds the number of events dropped for slow
// subscribers.
func (m *Metrics) AddDroppedPresenceEvents(eventType string, count int) {
	m.presenceDroppedTotal.With(prometheus.Labels{eventTypeLabel: eventType}).Add(float64(count))
}

// AddPresenceTrack counts a track request with the given result, "ok" or
// "error".
func (m *Metrics) AddPresenceTrack(result string) {
	m.presenceTracksTotal.With(prometheus.Labels{trackResultLabel: result}).Inc()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
