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
	"os"
	"os/signal"
	"syscall"

	"github.com/carverauto/wanwatch/pkg/logger"
)

// Service is a long-running component that blocks in Start until ctx is done.
type Service interface {
	Start(ctx context.Context) error
}

// Run starts svc and cancels it on SIGINT or SIGTERM. A shutdown caused by a
// signal is not reported as an error.
func Run(ctx context.Context, name string, svc Service, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("service", name).Msg("Service starting")

	err := svc.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("service", name).Msg("Service stopped with error")

		return err
	}

	log.Info().Str("service", name).Msg("Service stopped")

	return nil
}
