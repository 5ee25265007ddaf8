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
	"context"
	"os"
	"reflect"
	"strings"

	"github.com/carverauto/wanwatch/pkg/logger"
)

// EnvConfigLoader overrides configuration keys from environment variables.
// The variable name is the prefix plus the upper-cased key or alias, for
// example WANWATCH_ROUTER_IP or WANWATCH_HOST.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

// NewEnvConfigLoader creates a new environment variable config loader.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader by reading from environment variables.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	t := v.Elem().Type()
	if t.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	values := make(map[string]string)

	for i := 0; i < t.NumField(); i++ {
		fieldType := t.Field(i)

		for _, key := range fieldKeys(&fieldType) {
			envName := e.prefix + strings.ToUpper(key)

			value, ok := os.LookupEnv(envName)
			if !ok || value == "" {
				continue
			}

			if _, seen := values[key]; !seen {
				values[key] = value
			}

			if e.logger != nil {
				e.logger.Debug().
					Str("env", envName).
					Str("value", "[set]").
					Msg("Loaded value from environment variable")
			}
		}
	}

	return applyValues(dst, values)
}
