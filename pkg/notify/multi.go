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

package notify

import (
	"context"
	"errors"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
)

// Multi fans an event out to every notifier; one failing channel does not
// stop the others.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, event models.AddressEvent) error {
	var errs []error

	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Logging writes every event to the log. It is always part of the fan-out so
// that each event leaves a trace even when no channel is configured.
type Logging struct {
	Logger logger.Logger
}

// Notify implements Notifier.
func (l Logging) Notify(_ context.Context, event models.AddressEvent) error {
	l.Logger.Info().
		Str("event", string(event.Type)).
		Str("device", event.DeviceName).
		Str("previous_address", event.PreviousAddress).
		Str("address", event.Address).
		Str("outcome", event.Outcome).
		Msg(Render(event))

	return nil
}
