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
	"context"
	"errors"
	"testing"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFunc func(ctx context.Context) error

func (f serviceFunc) Start(ctx context.Context) error { return f(ctx) }

func TestRunTreatsCancellationAsCleanShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	svc := serviceFunc(func(ctx context.Context) error {
		cancel()
		<-ctx.Done()

		return ctx.Err()
	})

	assert.NoError(t, Run(ctx, "test", svc, logger.NewTestLogger()))
}

func TestRunPropagatesServiceError(t *testing.T) {
	boom := errors.New("boom")

	svc := serviceFunc(func(context.Context) error { return boom })

	err := Run(context.Background(), "test", svc, logger.NewTestLogger())
	assert.ErrorIs(t, err, boom)
}

func TestCreateComponentLogger(t *testing.T) {
	l, err := CreateComponentLogger("monitor", &logger.Config{Level: "warn"})
	require.NoError(t, err)

	impl, ok := l.(*ComponentLogger)
	require.True(t, ok)
	assert.Equal(t, "monitor", impl.Component())
	assert.Equal(t, zerolog.WarnLevel, impl.logger.GetLevel())

	impl.SetDebug(true)
	assert.Equal(t, zerolog.DebugLevel, impl.logger.GetLevel())

	_, err = CreateComponentLogger("monitor", &logger.Config{Level: "loud"})
	assert.Error(t, err)
}
