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

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ZeroCho/learn-supabase/api/types"
)

// GetPresence returns the roster and the editing state of the given channel.
func GetPresence(ctx context.Context, rpcAddr, channel string, opts ...Option) (*types.PresenceResponse, error) {
	resp := &types.PresenceResponse{}
	if err := get(ctx, rpcAddr, "/channels/"+url.PathEscape(channel)+"/presence", resp, opts); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListChannels returns the channels having presences.
func ListChannels(ctx context.Context, rpcAddr string, opts ...Option) ([]string, error) {
	var channels []string
	if err := get(ctx, rpcAddr, "/channels", &channels, opts); err != nil {
		return nil, err
	}
	return channels, nil
}

func get(ctx context.Context, rpcAddr, path string, out any, opts []Option) error {
	options := newOptions(opts)

	u, err := endpoint(rpcAddr, path, false)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if options.Token != "" {
		req.Header.Set("Authorization", "Bearer "+options.Token)
	}

	resp, err := options.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
