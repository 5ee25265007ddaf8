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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// recordKey is the only key wanwatch keeps in its bucket.
const recordKey = "address"

// NatsStore keeps the record as JSON under a single key of a JetStream KV
// bucket. A KV put replaces the value atomically, so readers never see a
// partial record.
type NatsStore struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	logger logger.Logger
}

// NewNatsStore connects to natsURL and creates or binds the bucket.
func NewNatsStore(ctx context.Context, natsURL, bucket string, log logger.Logger) (*NatsStore, error) {
	nc, err := nats.Connect(natsURL, nats.Name("wanwatch-state"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "wanwatch last known WAN address",
		History:     1,
	})
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}

	return &NatsStore{nc: nc, kv: kv, logger: log}, nil
}

// Read implements Store.
func (n *NatsStore) Read(ctx context.Context) (*models.AddressRecord, error) {
	entry, err := n.kv.Get(ctx, recordKey)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", recordKey, err)
	}

	return n.decode(entry.Value()), nil
}

// Write implements Store.
func (n *NatsStore) Write(ctx context.Context, record models.AddressRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidRecord, err)
	}

	if record.IsZero() {
		return fmt.Errorf("%w: empty record", errInvalidRecord)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode address record: %w", err)
	}

	if _, err := n.kv.Put(ctx, recordKey, payload); err != nil {
		return fmt.Errorf("failed to put key %s: %w", recordKey, err)
	}

	return nil
}

// Watch implements Store.
func (n *NatsStore) Watch(ctx context.Context) (<-chan models.AddressRecord, error) {
	watcher, err := n.kv.Watch(ctx, recordKey)
	if err != nil {
		return nil, fmt.Errorf("failed to watch key %s: %w", recordKey, err)
	}

	ch := make(chan models.AddressRecord, 1)

	go n.handleWatchUpdates(ctx, watcher, ch)

	return ch, nil
}

// handleWatchUpdates forwards decoded puts. The nil entry that marks the end
// of the initial values and delete markers are skipped.
func (n *NatsStore) handleWatchUpdates(ctx context.Context, watcher jetstream.KeyWatcher, ch chan<- models.AddressRecord) {
	defer func() {
		if err := watcher.Stop(); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to stop KV watcher")
		}

		close(ch)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-watcher.Updates():
			if !ok {
				return
			}

			if update == nil || update.Operation() != jetstream.KeyValuePut {
				continue
			}

			record := n.decode(update.Value())
			if record == nil {
				continue
			}

			select {
			case ch <- *record:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (n *NatsStore) decode(value []byte) *models.AddressRecord {
	var record models.AddressRecord

	if err := json.Unmarshal(value, &record); err != nil || !models.ValidAddress(record.Address) {
		n.logger.Warn().Err(err).Msg("Ignoring unreadable address record in KV")

		return nil
	}

	return &record
}

// Close implements Store.
func (n *NatsStore) Close() error {
	n.nc.Close()

	return nil
}

var _ Store = (*NatsStore)(nil)
var _ Store = (*FileStore)(nil)
