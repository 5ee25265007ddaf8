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

package lifecycle

import (
	"os"
	"time"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/rs/zerolog"
)

// ComponentLogger is a logger.Logger bound to one wanwatch component. It does
// not touch the package-level logger, so the monitor and the bot can run with
// different levels in the same test binary.
type ComponentLogger struct {
	component string
	logger    zerolog.Logger
}

var _ logger.Logger = (*ComponentLogger)(nil)

// CreateComponentLogger builds a JSON logger from config whose entries carry
// the component name and the local hostname.
func CreateComponentLogger(component string, config *logger.Config) (logger.Logger, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	level, err := logger.ParseLevel(config)
	if err != nil {
		return nil, err
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	ctx := zerolog.New(logger.OutputFor(config)).
		Level(level).
		With().
		Timestamp().
		Str("component", component)

	if host, err := os.Hostname(); err == nil {
		ctx = ctx.Str("host", host)
	}

	return &ComponentLogger{component: component, logger: ctx.Logger()}, nil
}

// Component returns the name the logger was created for.
func (l *ComponentLogger) Component() string {
	return l.component
}

func (l *ComponentLogger) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *ComponentLogger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *ComponentLogger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *ComponentLogger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *ComponentLogger) Error() *zerolog.Event { return l.logger.Error() }
func (l *ComponentLogger) Fatal() *zerolog.Event { return l.logger.Fatal() }
func (l *ComponentLogger) With() zerolog.Context { return l.logger.With() }

// WithComponent derives a child logger for a sub-part, e.g. "monitor.rotation".
func (l *ComponentLogger) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", l.component+"."+component).Logger()
}

func (l *ComponentLogger) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *ComponentLogger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)

		return
	}

	l.SetLevel(zerolog.InfoLevel)
}
