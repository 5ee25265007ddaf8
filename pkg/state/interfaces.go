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

//go:generate mockgen -destination=mock_state.go -package=state github.com/carverauto/wanwatch/pkg/state Store

// Package state persists the single AddressRecord that the monitor and the
// controller use as their only rendezvous point.
package state

import (
	"context"

	"github.com/carverauto/wanwatch/pkg/models"
)

// Store is the durable single-record address store.
type Store interface {
	// Read returns the current record, or nil with a nil error when nothing
	// has been written yet. A reader never observes a partially written record.
	Read(ctx context.Context) (*models.AddressRecord, error)

	// Write atomically replaces the whole record.
	Write(ctx context.Context, record models.AddressRecord) error

	// Watch streams the record each time another writer replaces it. The
	// channel is closed when ctx is canceled or the store is closed.
	Watch(ctx context.Context) (<-chan models.AddressRecord, error)

	// Close releases any resources (e.g., connections).
	Close() error
}
