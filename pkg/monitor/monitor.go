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

// Package monitor polls the gateway for its WAN address, records changes in
// the shared store and announces them.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/device"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/carverauto/wanwatch/pkg/notify"
	"github.com/carverauto/wanwatch/pkg/state"
)

const notifyTimeout = 15 * time.Second

// Monitor is the polling loop. Cycles never overlap.
type Monitor struct {
	hostname      string
	interval      time.Duration
	deviceTimeout time.Duration

	device   device.Client
	store    state.Store
	notifier notify.Notifier
	clock    Clock
	logger   logger.Logger
	rotator  *Rotator

	// last is the address most recently seen in the store or written by this
	// process; it is the fallback when the store cannot be read.
	last string
}

// New creates a monitor. A nil clock uses real time.
func New(
	cfg *config.Config,
	dev device.Client,
	store state.Store,
	notifier notify.Notifier,
	clock Clock,
	log logger.Logger,
) *Monitor {
	if clock == nil {
		clock = RealClock{}
	}

	timeout := time.Duration(cfg.DeviceTimeout)

	return &Monitor{
		hostname:      cfg.Hostname,
		interval:      time.Duration(cfg.PollInterval),
		deviceTimeout: timeout,
		device:        dev,
		store:         store,
		notifier:      notifier,
		clock:         clock,
		logger:        log,
		rotator: &Rotator{
			Device:         dev,
			Store:          store,
			Clock:          clock,
			Log:            log,
			Settle:         DefaultRotationSettle,
			TriggerTimeout: DefaultTriggerTimeout,
			QueryTimeout:   timeout,
		},
	}
}

// Start implements the lifecycle.Service interface. It seeds the store,
// announces itself and polls until ctx is canceled.
func (m *Monitor) Start(ctx context.Context) error {
	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	m.logger.Info().Dur("interval", m.interval).Msg("Starting WAN address monitor")

	m.seed(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			m.cycle(ctx)
		}
	}
}

func (m *Monitor) seed(ctx context.Context) {
	if stored, ok := m.readStore(ctx); ok && stored != nil {
		m.last = stored.Address
	}

	snap, err := m.query(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Initial device query failed")
		m.notify(ctx, models.AddressEvent{Type: models.EventError, Error: err.Error()})

		return
	}

	if snap.HasAddress() && snap.Address != m.last {
		m.write(ctx, snap.Address)
	}

	m.notify(ctx, models.AddressEvent{
		Type:       models.EventMonitorStarted,
		DeviceName: snap.DeviceName,
		Address:    snap.Address,
	})
}

func (m *Monitor) cycle(ctx context.Context) {
	snap, err := m.query(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Device query failed, skipping cycle")
		return
	}

	if !snap.HasAddress() {
		m.logger.Debug().Msg("Device returned no WAN address, skipping cycle")
		return
	}

	previous := m.last
	stored, ok := m.readStore(ctx)

	if stored != nil {
		previous = stored.Address
	}

	if snap.Address == previous {
		m.last = previous

		if ok && stored == nil {
			// record went missing under us; put it back without announcing
			m.write(ctx, snap.Address)
		}

		m.logger.Debug().Str("address", snap.Address).Msg("Address unchanged")

		return
	}

	if !m.write(ctx, snap.Address) {
		return
	}

	m.logger.Info().Str("previous_address", previous).Str("address", snap.Address).Msg("WAN address changed")

	m.notify(ctx, models.AddressEvent{
		Type:            models.EventAddressChanged,
		DeviceName:      snap.DeviceName,
		PreviousAddress: previous,
		Address:         snap.Address,
	})
}

// RunManualChange performs a single operator-requested rotation and
// announces its start and result. Only an unrecoverable device session error
// is returned; every other terminal outcome is reported in the result.
func (m *Monitor) RunManualChange(ctx context.Context) (models.RotationResult, error) {
	snap, err := m.query(ctx)
	if err != nil {
		m.notify(ctx, models.AddressEvent{Type: models.EventManualChangeFailed, Error: err.Error()})

		return models.RotationResult{Outcome: models.RotationRejected}, err
	}

	old := snap.Address
	if stored, ok := m.readStore(ctx); ok && stored != nil {
		old = stored.Address
	}

	m.notify(ctx, models.AddressEvent{
		Type:            models.EventManualChangeStarted,
		DeviceName:      snap.DeviceName,
		PreviousAddress: old,
	})

	result, err := m.rotator.Rotate(ctx, old, snap.DeviceName)
	if err != nil {
		m.logger.Error().Err(err).Msg("Manual rotation failed")
		m.notify(ctx, models.AddressEvent{
			Type:            models.EventManualChangeFailed,
			DeviceName:      snap.DeviceName,
			PreviousAddress: old,
			Error:           err.Error(),
		})

		if errors.Is(err, device.ErrSession) && !errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}

		return result, nil
	}

	if result.Persisted {
		m.last = result.NewAddress
	}

	m.notify(ctx, models.AddressEvent{
		Type:            models.EventManualChangeFinished,
		DeviceName:      result.DeviceName,
		PreviousAddress: result.OldAddress,
		Address:         result.NewAddress,
		Outcome:         string(result.Outcome),
	})

	return result, nil
}

func (m *Monitor) query(ctx context.Context) (models.DeviceSnapshot, error) {
	qctx, cancel := context.WithTimeout(ctx, m.deviceTimeout)
	defer cancel()

	snap, err := m.device.Snapshot(qctx)
	if err != nil {
		return snap, fmt.Errorf("query device: %w", err)
	}

	return snap, nil
}

func (m *Monitor) readStore(ctx context.Context) (*models.AddressRecord, bool) {
	rec, err := m.store.Read(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to read address record, using last known address")
		return nil, false
	}

	return rec, true
}

// write replaces the record with addr stamped now. A failed write is logged
// and reported as false so the change is retried next cycle.
func (m *Monitor) write(ctx context.Context, addr string) bool {
	if err := m.store.Write(ctx, models.NewAddressRecord(addr, m.clock.Now())); err != nil {
		m.logger.Error().Err(err).Str("address", addr).Msg("Failed to write address record")
		return false
	}

	m.last = addr

	return true
}

func (m *Monitor) notify(ctx context.Context, event models.AddressEvent) {
	event.Hostname = m.hostname
	event.Timestamp = m.clock.Now()

	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := m.notifier.Notify(nctx, event); err != nil {
		m.logger.Warn().Err(err).Str("event", string(event.Type)).Msg("Notification failed")
	}
}
