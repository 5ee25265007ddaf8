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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/rs/zerolog"
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errInvalidConfigPtr    = errors.New("config must be a non-nil pointer")
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// EnvPrefix prefixes every environment override, e.g. WANWATCH_PASSWORD.
	EnvPrefix = "WANWATCH_"
)

// ConfigLoader fills dst from the source identified by path.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configurations that can check themselves.
type Validator interface {
	Validate() error
}

// Loader holds the configuration loading dependencies.
type Loader struct {
	logger logger.Logger
}

// NewLoader initializes a Loader. If log is nil, a stderr warn-level logger is used.
func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = createBasicLogger()
	}

	return &Loader{logger: log}
}

// basicLogger implements a simple logger for config loading without circular imports
type basicLogger struct {
	logger zerolog.Logger
}

func createBasicLogger() logger.Logger {
	zlog := zerolog.New(os.Stderr).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Logger()

	return &basicLogger{logger: zlog}
}

func (b *basicLogger) Trace() *zerolog.Event { return b.logger.Trace() }
func (b *basicLogger) Debug() *zerolog.Event { return b.logger.Debug() }
func (b *basicLogger) Info() *zerolog.Event  { return b.logger.Info() }
func (b *basicLogger) Warn() *zerolog.Event  { return b.logger.Warn() }
func (b *basicLogger) Error() *zerolog.Event { return b.logger.Error() }
func (b *basicLogger) Fatal() *zerolog.Event { return b.logger.Fatal() }
func (b *basicLogger) With() zerolog.Context { return b.logger.With() }

func (b *basicLogger) WithComponent(component string) zerolog.Logger {
	return b.logger.With().Str("component", component).Logger()
}

func (b *basicLogger) SetLevel(level zerolog.Level) {
	b.logger = b.logger.Level(level)
}

func (b *basicLogger) SetDebug(debug bool) {
	if debug {
		b.SetLevel(zerolog.DebugLevel)
	} else {
		b.SetLevel(zerolog.InfoLevel)
	}
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// Load reads the wanwatch configuration at path on top of Default and applies
// WANWATCH_* environment overrides. Every failure wraps ErrConfig.
func Load(ctx context.Context, path string, log logger.Logger) (*Config, error) {
	cfg := Default()

	if err := NewLoader(log).LoadAndValidate(ctx, path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAndValidate loads a configuration from the selected source, applies
// environment overrides and validates it.
func (l *Loader) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	if cfg == nil {
		return fmt.Errorf("%w: %w", ErrConfig, errInvalidConfigPtr)
	}

	loader, err := l.loaderFor(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if err := loader.Load(ctx, path, cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if err := NewEnvConfigLoader(l.logger, EnvPrefix).Load(ctx, "", cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return nil
}

// loaderFor picks the loader from CONFIG_SOURCE and the file extension.
func (l *Loader) loaderFor(path string) (ConfigLoader, error) {
	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	switch source {
	case configSourceEnv:
		return noopLoader{}, nil
	case configSourceFile, "":
	default:
		return nil, fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return &FileConfigLoader{}, nil
	}

	return &UCIConfigLoader{logger: l.logger}, nil
}

// noopLoader leaves defaults in place so that only the environment applies.
type noopLoader struct{}

func (noopLoader) Load(context.Context, string, interface{}) error { return nil }
