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
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZeroCho/learn-supabase/cmd/kanban/config"
)

func newCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("rpc-addr", config.DefaultRPCAddr, "")
	cmd.Flags().String("token", "", "")
	return cmd
}

func TestPreload(t *testing.T) {
	t.Run("config file test", func(t *testing.T) {
		viper.Reset()
		home := t.TempDir()
		t.Setenv("HOME", home)
		require.NoError(t, os.MkdirAll(config.Dir(), 0700))
		require.NoError(t, os.WriteFile(
			filepath.Join(config.Dir(), "config.yaml"),
			[]byte("token: from-file\n"),
			0600,
		))

		cmd := newCommand()
		assert.NoError(t, config.Preload(cmd, nil))
		assert.Equal(t, "from-file", viper.GetString("token"))
		assert.Equal(t, config.DefaultRPCAddr, viper.GetString("rpcAddr"))
	})

	t.Run("flag precedence test", func(t *testing.T) {
		viper.Reset()
		t.Setenv("HOME", t.TempDir())
		t.Setenv("KANBAN_TOKEN", "from-env")

		cmd := newCommand()
		require.NoError(t, cmd.Flags().Set("rpc-addr", "example.com:9090"))
		assert.NoError(t, config.Preload(cmd, nil))
		assert.Equal(t, "example.com:9090", viper.GetString("rpcAddr"))
		assert.Equal(t, "from-env", viper.GetString("token"))
	})
}

func TestValidateOutput(t *testing.T) {
	assert.NoError(t, config.ValidateOutput(""))
	assert.NoError(t, config.ValidateOutput("json"))
	assert.NoError(t, config.ValidateOutput("yaml"))
	assert.ErrorIs(t, config.ValidateOutput("xml"), config.ErrInvalidOutput)
}
