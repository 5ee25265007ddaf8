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

package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/carverauto/wanwatch/pkg/device"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/carverauto/wanwatch/pkg/state"
)

const (
	// DefaultRotationSettle is how long the gateway gets to re-attach before
	// the address is queried again.
	DefaultRotationSettle = 10 * time.Second
	// DefaultTriggerTimeout bounds the rotate request itself.
	DefaultTriggerTimeout = 10 * time.Second
)

// Rotator requests a rotation, waits for the gateway to settle and records
// the address it comes back with. The monitor's manual mode and the
// controller's change command both use it.
type Rotator struct {
	Device         device.Client
	Store          state.Store
	Clock          Clock
	Log            logger.Logger
	Settle         time.Duration
	TriggerTimeout time.Duration
	QueryTimeout   time.Duration
}

// Rotate runs one rotation starting from oldAddress. A refused or timed-out
// trigger returns a RotationRejected result together with the error. After an
// accepted trigger the error is non-nil only when ctx ends during the wait.
func (r *Rotator) Rotate(ctx context.Context, oldAddress, deviceName string) (models.RotationResult, error) {
	result := models.RotationResult{
		Outcome:    models.RotationRejected,
		DeviceName: deviceName,
		OldAddress: oldAddress,
	}

	if err := r.trigger(ctx); err != nil {
		return result, err
	}

	r.Log.Info().Dur("settle", r.Settle).Msg("Rotation accepted, waiting for the gateway to settle")

	select {
	case <-ctx.Done():
		return result, ctx.Err()
	case <-r.Clock.After(r.Settle):
	}

	snap, err := r.query(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		r.Log.Warn().Err(err).Msg("Re-query after rotation failed")
	}

	if snap.DeviceName != "" {
		result.DeviceName = snap.DeviceName
	}

	if snap.HasAddress() {
		result.NewAddress = snap.Address
	}

	result.Outcome = models.ClassifyRotation(oldAddress, result.NewAddress)

	if snap.HasAddress() {
		if err := r.record(ctx, snap.Address); err != nil {
			r.Log.Error().Err(err).Str("address", snap.Address).Msg("Failed to persist rotated address")
		} else {
			result.Persisted = true
		}
	}

	r.Log.Info().
		Str("outcome", string(result.Outcome)).
		Str("old_address", oldAddress).
		Str("new_address", result.NewAddress).
		Msg("Rotation finished")

	return result, nil
}

func (r *Rotator) trigger(ctx context.Context) error {
	tctx, cancel := context.WithTimeout(ctx, r.TriggerTimeout)
	defer cancel()

	if err := r.Device.Rotate(tctx); err != nil {
		return fmt.Errorf("rotation trigger: %w", err)
	}

	return nil
}

func (r *Rotator) query(ctx context.Context) (models.DeviceSnapshot, error) {
	qctx, cancel := context.WithTimeout(ctx, r.QueryTimeout)
	defer cancel()

	return r.Device.Snapshot(qctx)
}

// record writes addr unless the store already holds it, so that changed_at
// only moves when the address does.
func (r *Rotator) record(ctx context.Context, addr string) error {
	stored, err := r.Store.Read(ctx)
	if err == nil && stored != nil && stored.Address == addr {
		return nil
	}

	return r.Store.Write(ctx, models.NewAddressRecord(addr, r.Clock.Now()))
}
