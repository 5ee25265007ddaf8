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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/device"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/carverauto/wanwatch/pkg/notify"
	"github.com/carverauto/wanwatch/pkg/state"
)

var errDeviceDown = errors.New("connection refused")

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.AddressEvent
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, event models.AddressEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return r.err
}

func (r *recordingNotifier) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}

	return out
}

type fixture struct {
	ctrl     *gomock.Controller
	device   *device.MockClient
	clock    *MockClock
	store    *state.FileStore
	notifier *recordingNotifier
	monitor  *Monitor
	now      time.Time
}

func newFixture(t *testing.T, log logger.Logger) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	store, err := state.NewFileStore(filepath.Join(t.TempDir(), "last_ip.txt"), logger.NewTestLogger())
	require.NoError(t, err)

	f := &fixture{
		ctrl:     ctrl,
		device:   device.NewMockClient(ctrl),
		clock:    NewMockClock(ctrl),
		store:    store,
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	// every reading of the clock moves it forward a minute
	f.clock.EXPECT().Now().DoAndReturn(func() time.Time {
		f.now = f.now.Add(time.Minute)
		return f.now
	}).AnyTimes()

	cfg := config.Default()
	cfg.Hostname = "gw-test"

	f.monitor = New(cfg, f.device, store, f.notifier, f.clock, log)

	return f
}

func (f *fixture) snapshots(snaps ...models.DeviceSnapshot) {
	i := 0

	f.device.EXPECT().Snapshot(gomock.Any()).DoAndReturn(func(context.Context) (models.DeviceSnapshot, error) {
		snap := snaps[i]
		i++

		return snap, nil
	}).Times(len(snaps))
}

func (f *fixture) settleImmediately() {
	f.clock.EXPECT().After(DefaultRotationSettle).DoAndReturn(func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- f.now

		return ch
	})
}

func (f *fixture) record(t *testing.T) *models.AddressRecord {
	t.Helper()

	rec, err := f.store.Read(context.Background())
	require.NoError(t, err)

	return rec
}

func snap(addr string) models.DeviceSnapshot {
	return models.DeviceSnapshot{Address: addr, DeviceName: "B311"}
}

func TestSeedWritesAndAnnounces(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	f.snapshots(snap("10.0.0.1"))

	f.monitor.seed(context.Background())

	rec := f.record(t)
	require.NotNil(t, rec)
	assert.Equal(t, "10.0.0.1", rec.Address)

	require.Len(t, f.notifier.events, 1)
	started := f.notifier.events[0]
	assert.Equal(t, models.EventMonitorStarted, started.Type)
	assert.Equal(t, "gw-test", started.Hostname)
	assert.Equal(t, "B311", started.DeviceName)
	assert.Equal(t, "10.0.0.1", started.Address)
}

func TestSeedKeepsChangedAtWhenAddressIsKnown(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())

	existing := models.NewAddressRecord("10.0.0.1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, f.store.Write(context.Background(), existing))

	f.snapshots(snap("10.0.0.1"))
	f.monitor.seed(context.Background())

	rec := f.record(t)
	require.NotNil(t, rec)
	assert.True(t, existing.Equal(*rec))
	assert.Equal(t, []models.EventType{models.EventMonitorStarted}, f.notifier.types())
}

func TestSeedQueryFailureReportsError(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	f.device.EXPECT().Snapshot(gomock.Any()).Return(models.DeviceSnapshot{}, errDeviceDown)

	f.monitor.seed(context.Background())

	assert.Nil(t, f.record(t))
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, models.EventError, f.notifier.events[0].Type)
	assert.Contains(t, f.notifier.events[0].Error, "connection refused")
}

func TestCycleKeepsChangedAtForNonIPv4Addresses(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	ctx := context.Background()

	f.snapshots(snap("fe80::1%wwan0"), snap("fe80::1%wwan0"), snap("fe80::1%wwan0"))

	f.monitor.cycle(ctx)

	first := f.record(t)
	require.NotNil(t, first)
	assert.Equal(t, "fe80::1%wwan0", first.Address)

	f.monitor.cycle(ctx)
	f.monitor.cycle(ctx)

	rec := f.record(t)
	require.NotNil(t, rec)
	assert.True(t, first.Equal(*rec), "changed_at moved without an address change")
	assert.Equal(t, []models.EventType{models.EventAddressChanged}, f.notifier.types())
}

func TestCycleIgnoresUnstorableAddress(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())

	f.snapshots(snap("10.0.0.1 (pending)"))
	f.monitor.cycle(context.Background())

	assert.Nil(t, f.record(t))
	assert.Empty(t, f.notifier.types())
}

func TestCycleSequence(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())

	seq := []string{"10.0.0.1", "10.0.0.1", "10.0.0.2", "10.0.0.2", "", "10.0.0.1", "10.0.0.3", "10.0.0.3"}

	snaps := make([]models.DeviceSnapshot, 0, len(seq))
	for _, addr := range seq {
		snaps = append(snaps, snap(addr))
	}

	f.snapshots(snaps...)
	f.monitor.seed(context.Background())

	previous := f.record(t)
	require.NotNil(t, previous)

	for _, addr := range seq[1:] {
		f.monitor.cycle(context.Background())

		rec := f.record(t)
		require.NotNil(t, rec)

		if addr == "" || addr == previous.Address {
			assert.True(t, previous.Equal(*rec), "record must not change for %q", addr)
		} else {
			assert.Equal(t, addr, rec.Address)
			assert.True(t, rec.ChangedAt.After(previous.ChangedAt))
		}

		previous = rec
	}

	assert.Equal(t, "10.0.0.3", previous.Address)
	assert.Equal(t, []models.EventType{
		models.EventMonitorStarted,
		models.EventAddressChanged,
		models.EventAddressChanged,
		models.EventAddressChanged,
	}, f.notifier.types())

	changes := f.notifier.events[1:]
	assert.Equal(t, "10.0.0.1", changes[0].PreviousAddress)
	assert.Equal(t, "10.0.0.2", changes[0].Address)
	assert.Equal(t, "10.0.0.2", changes[1].PreviousAddress)
	assert.Equal(t, "10.0.0.1", changes[1].Address)
	assert.Equal(t, "10.0.0.3", changes[2].Address)
}

func TestCycleFirstChangeWithoutPreviousAddress(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	f.snapshots(snap("10.0.0.9"))

	f.monitor.cycle(context.Background())

	require.Len(t, f.notifier.events, 1)
	assert.Empty(t, f.notifier.events[0].PreviousAddress)
	assert.Contains(t, notify.Render(f.notifier.events[0]), "Old: -")
}

func TestCycleSwallowsDeviceErrors(t *testing.T) {
	var buf bytes.Buffer

	f := newFixture(t, logger.NewWriterLogger(&buf))

	gomock.InOrder(
		f.device.EXPECT().Snapshot(gomock.Any()).Return(models.DeviceSnapshot{}, fmt.Errorf("%w: %w", device.ErrSession, errDeviceDown)),
		f.device.EXPECT().Snapshot(gomock.Any()).Return(snap("10.0.0.5"), nil),
	)

	f.monitor.cycle(context.Background())
	assert.Nil(t, f.record(t))
	assert.Empty(t, f.notifier.events)
	assert.Contains(t, buf.String(), "Device query failed")

	f.monitor.cycle(context.Background())
	rec := f.record(t)
	require.NotNil(t, rec)
	assert.Equal(t, "10.0.0.5", rec.Address)
}

func TestCycleNotifyFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer

	f := newFixture(t, logger.NewWriterLogger(&buf))
	f.notifier.err = fmt.Errorf("%w: telegram down", notify.ErrNotify)
	f.snapshots(snap("10.0.0.1"), snap("10.0.0.2"))

	f.monitor.cycle(context.Background())
	f.monitor.cycle(context.Background())

	rec := f.record(t)
	require.NotNil(t, rec)
	assert.Equal(t, "10.0.0.2", rec.Address)
	assert.Len(t, f.notifier.events, 2)
	assert.Contains(t, buf.String(), "Notification failed")
}

func TestCycleDoesNotReannounceControllerRotation(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	f.snapshots(snap("10.0.0.1"), snap("10.0.0.2"))

	f.monitor.seed(context.Background())

	// the controller rotated and recorded the new address first
	require.NoError(t, f.store.Write(context.Background(), models.NewAddressRecord("10.0.0.2", f.now)))

	f.monitor.cycle(context.Background())

	assert.Equal(t, []models.EventType{models.EventMonitorStarted}, f.notifier.types())
	assert.Equal(t, "10.0.0.2", f.monitor.last)
}

func TestCycleRestoresMissingRecordQuietly(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	f.snapshots(snap("10.0.0.1"), snap("10.0.0.1"))

	f.monitor.seed(context.Background())
	require.NoError(t, os.Remove(f.store.Path()))

	f.monitor.cycle(context.Background())

	rec := f.record(t)
	require.NotNil(t, rec)
	assert.Equal(t, "10.0.0.1", rec.Address)
	assert.Equal(t, []models.EventType{models.EventMonitorStarted}, f.notifier.types())
}

func TestStartStopsOnCancel(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	ticker := NewMockTicker(f.ctrl)
	ticks := make(chan time.Time)

	f.clock.EXPECT().Ticker(30 * time.Second).Return(ticker)
	ticker.EXPECT().Chan().Return(ticks).AnyTimes()
	ticker.EXPECT().Stop()

	f.snapshots(snap("10.0.0.1"), snap("10.0.0.2"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- f.monitor.Start(ctx) }()

	ticks <- time.Time{}

	require.Eventually(t, func() bool {
		return len(f.notifier.types()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestRunManualChangeChanged(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	require.NoError(t, f.store.Write(context.Background(), models.NewAddressRecord("10.0.0.1", f.now)))

	f.snapshots(snap("10.0.0.1"), snap("10.0.0.2"))
	f.device.EXPECT().Rotate(gomock.Any()).Return(nil)
	f.settleImmediately()

	result, err := f.monitor.RunManualChange(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RotationChanged, result.Outcome)
	assert.Equal(t, "10.0.0.1", result.OldAddress)
	assert.Equal(t, "10.0.0.2", result.NewAddress)
	assert.True(t, result.Persisted)
	assert.Equal(t, "10.0.0.2", f.record(t).Address)
	assert.Equal(t, []models.EventType{
		models.EventManualChangeStarted,
		models.EventManualChangeFinished,
	}, f.notifier.types())
	assert.Equal(t, "changed", f.notifier.events[1].Outcome)
}

func TestRunManualChangeUnverifiable(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	original := models.NewAddressRecord("10.0.0.1", f.now)
	require.NoError(t, f.store.Write(context.Background(), original))

	f.snapshots(snap("10.0.0.1"), models.DeviceSnapshot{})
	f.device.EXPECT().Rotate(gomock.Any()).Return(nil)
	f.settleImmediately()

	result, err := f.monitor.RunManualChange(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RotationUnverifiable, result.Outcome)
	assert.False(t, result.Persisted)
	assert.True(t, original.Equal(*f.record(t)))
	assert.Contains(t, notify.Render(f.notifier.events[1]), "not detected")
}

func TestRunManualChangeRejected(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	f.snapshots(snap("10.0.0.1"))
	f.device.EXPECT().Rotate(gomock.Any()).Return(fmt.Errorf("%w: busy", device.ErrRotationRejected))

	result, err := f.monitor.RunManualChange(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RotationRejected, result.Outcome)
	assert.Equal(t, []models.EventType{
		models.EventManualChangeStarted,
		models.EventManualChangeFailed,
	}, f.notifier.types())
}

func TestRunManualChangeSessionError(t *testing.T) {
	f := newFixture(t, logger.NewTestLogger())
	f.device.EXPECT().Snapshot(gomock.Any()).Return(models.DeviceSnapshot{}, fmt.Errorf("%w: login failed", device.ErrSession))

	_, err := f.monitor.RunManualChange(context.Background())
	require.ErrorIs(t, err, device.ErrSession)
	assert.Equal(t, []models.EventType{models.EventManualChangeFailed}, f.notifier.types())
}
