/*
 * Copyright 2025 Carver Automation Corporation.
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

package config

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/carverauto/wanwatch/pkg/logger"
)

// FileConfigLoader loads configuration from a local JSON file.
type FileConfigLoader struct{}

// Load implements ConfigLoader by reading and unmarshaling a JSON file.
func (*FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	err = json.Unmarshal(data, dst)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	return nil
}

// uciOption matches `option key 'value'` and `option key "value"` lines.
var uciOption = regexp.MustCompile(`^\s*option\s+(\w+)\s+(?:'([^']*)'|"([^"]*)")`)

// UCIConfigLoader loads the OpenWrt UCI file the router package installs.
// Only option lines are read; sections, lists and comments are ignored.
type UCIConfigLoader struct {
	logger logger.Logger
}

// Load implements ConfigLoader.
func (u *UCIConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	values := ParseUCI(data)

	if u.logger != nil {
		u.logger.Debug().Str("path", path).Int("options", len(values)).Msg("Parsed UCI configuration")
	}

	return applyValues(dst, values)
}

// ParseUCI extracts option key/value pairs. Later options override earlier ones.
func ParseUCI(data []byte) map[string]string {
	values := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := uciOption.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		value := m[2]
		if value == "" {
			value = m[3]
		}

		values[m[1]] = value
	}

	return values
}
