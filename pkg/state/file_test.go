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

package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "state", "last_ip.txt"), logger.NewTestLogger())
	require.NoError(t, err)

	return store
}

func TestFileStoreReadAbsent(t *testing.T) {
	store := newTestFileStore(t)

	record, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	want := models.AddressRecord{
		Address:   "100.64.12.34",
		ChangedAt: time.Date(2025, 6, 1, 12, 30, 15, 123456789, time.UTC),
	}

	require.NoError(t, store.Write(ctx, want))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "got %+v, want %+v", *got, want)
}

func TestFileStoreRoundTripsEveryStorableAddress(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 30, 15, 0, time.UTC)

	for _, addr := range []string{"10.0.0.1", "2001:db8::1", "fe80::1%eth0", "100.64.0.1/32"} {
		want := models.NewAddressRecord(addr, at)
		require.NoError(t, store.Write(ctx, want), addr)

		got, err := store.Read(ctx)
		require.NoError(t, err, addr)
		require.NotNil(t, got, "%s read back as absent", addr)
		assert.True(t, want.Equal(*got), "got %+v, want %+v", *got, want)
	}
}

func TestFileStoreIsHumanReadable(t *testing.T) {
	store := newTestFileStore(t)

	at := time.Date(2025, 6, 1, 12, 30, 15, 0, time.UTC)
	require.NoError(t, store.Write(context.Background(), models.NewAddressRecord("10.9.8.7", at)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "10.9.8.7\n2025-06-01T12:30:15Z\n", string(data))
}

func TestFileStoreRejectsInvalidRecords(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	assert.Error(t, store.Write(ctx, models.AddressRecord{}))
	assert.Error(t, store.Write(ctx, models.AddressRecord{Address: "10.0.0.1"}))
	assert.Error(t, store.Write(ctx, models.NewAddressRecord("10.0.0.1\n10.0.0.2", time.Now())))

	record, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestFileStoreReadsLegacyFormats(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(store.Path(), []byte("10.1.1.1\n"), 0o600))

	record, err := store.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "10.1.1.1", record.Address)
	assert.False(t, record.ChangedAt.IsZero(), "address-only files take the file mtime")

	require.NoError(t, os.WriteFile(store.Path(), []byte("10.1.1.2\n2025-01-02 03:04:05\n"), 0o600))

	record, err = store.Read(ctx)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "10.1.1.2", record.Address)
	assert.True(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local).Equal(record.ChangedAt))
}

func TestFileStoreTreatsGarbageAsAbsent(t *testing.T) {
	store := newTestFileStore(t)

	for _, content := range []string{"", "\n", "not an address\n2025-01-01T00:00:00Z\n"} {
		require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0o600))

		record, err := store.Read(context.Background())
		require.NoError(t, err)
		assert.Nil(t, record, "content %q", content)
	}
}

func TestFileStoreConcurrentReadersNeverSeeTornRecords(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	a := models.NewAddressRecord("10.0.0.1", time.Unix(1700000000, 0))
	b := models.NewAddressRecord("10.0.0.2", time.Unix(1700000100, 0))
	require.NoError(t, store.Write(ctx, a))

	var wg sync.WaitGroup

	stop := make(chan struct{})

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}

			next := a
			if i%2 == 0 {
				next = b
			}

			assert.NoError(t, store.Write(ctx, next))
		}
	}()

	for i := 0; i < 200; i++ {
		got, err := store.Read(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Equal(a) || got.Equal(b), "torn record %+v", *got)
	}

	close(stop)
	wg.Wait()
}

func TestFileStoreWatch(t *testing.T) {
	store := newTestFileStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := store.Watch(ctx)
	require.NoError(t, err)

	want := models.NewAddressRecord("10.2.3.4", time.Now())
	require.NoError(t, store.Write(ctx, want))

	select {
	case got := <-updates:
		assert.True(t, want.Equal(got))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch update")
	}

	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	_, err := NewFileStore("", logger.NewTestLogger())
	assert.ErrorIs(t, err, errPathRequired)
}
