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
package logging

// Config is the configuration of the server loggers.
type Config struct {
	// Level is one of "debug", "info", "warn", "error", "panic" and "fatal".
	Level string `yaml:"Level"`

	// Format is either "console" or "json".
	Format string `yaml:"Format"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}

	switch c.Format {
	case "console", "json":
		return nil
	default:
		return ErrInvalidFormat
	}
}

// Apply sets the level and the format of loggers created afterwards.
func (c *Config) Apply() error {
	if err := SetLogLevel(c.Level); err != nil {
		return err
	}

	return SetFormat(c.Format)
}
