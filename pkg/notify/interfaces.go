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

//go:generate mockgen -destination=mock_notify.go -package=notify github.com/carverauto/wanwatch/pkg/notify Notifier

// Package notify delivers wanwatch events to the operator channel.
package notify

import (
	"context"
	"errors"

	"github.com/carverauto/wanwatch/pkg/models"
)

// ErrNotify wraps every delivery failure. Callers log it and carry on.
var ErrNotify = errors.New("notification failed")

// Notifier delivers an event to a channel.
type Notifier interface {
	Notify(ctx context.Context, event models.AddressEvent) error
}
