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

//go:generate mockgen -destination=mock_device.go -package=device github.com/carverauto/wanwatch/pkg/device Client

// Package device talks to the gateway whose WAN address wanwatch tracks.
package device

import (
	"context"

	"github.com/carverauto/wanwatch/pkg/models"
)

// Client is a session with the gateway.
type Client interface {
	// Snapshot queries the current WAN address and device name. A session
	// failure is returned as an error wrapping ErrSession; incomplete data is
	// returned as a snapshot without an address.
	Snapshot(ctx context.Context) (models.DeviceSnapshot, error)

	// Rotate asks the gateway to re-attach and obtain a new WAN address. A nil
	// error means the request was accepted; the outcome is not guaranteed.
	Rotate(ctx context.Context) error

	// Close ends the session.
	Close() error
}
