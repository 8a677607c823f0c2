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

package prometheus_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroCho/learn-supabase/server/profiling/prometheus"
)

func TestMetrics(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	metrics.AddPresenceConnections("board")
	metrics.AddPresenceConnections("board")
	metrics.RemovePresenceConnections("board")
	metrics.AddPresenceEvents("sync", 3)
	metrics.AddPresenceTrack("ok")
	metrics.AddServerHandledCounter("GET", "/healthz", "200")

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["kanban_presence_connections"])
	assert.True(t, names["kanban_presence_events_total"])
	assert.True(t, names["kanban_presence_tracks_total"])
	assert.True(t, names["kanban_http_server_handled_total"])
	assert.True(t, names["kanban_server_version"])

	count, err := testutil.GatherAndCount(metrics.Registry(), "kanban_presence_connections")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
