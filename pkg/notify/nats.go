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
	"encoding/json"
	"fmt"
	"time"

	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	cloudEventSource = "wanwatch"
	cloudEventPrefix = "io.wanwatch."

	defaultFlushTimeout = 5 * time.Second
)

// NATSNotifier publishes events as CloudEvents on a subject so that other
// systems can react to address changes.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
}

// NewNATSNotifier connects to natsURL.
func NewNATSNotifier(natsURL, subject string) (*NATSNotifier, error) {
	nc, err := nats.Connect(natsURL, nats.Name("wanwatch-notify"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSNotifier{nc: nc, subject: subject}, nil
}

// Notify implements Notifier. It returns once the server has acknowledged the
// publish or ctx ends; without a deadline on ctx the wait is bounded by five
// seconds.
func (n *NATSNotifier) Notify(ctx context.Context, event models.AddressEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotify, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, defaultFlushTimeout)
		defer cancel()
	}

	at := event.Timestamp

	payload, err := json.Marshal(models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          cloudEventSource + "/" + event.Hostname,
		Type:            cloudEventPrefix + string(event.Type),
		DataContentType: "application/json",
		Subject:         n.subject,
		Time:            &at,
		Data:            event,
	})
	if err != nil {
		return fmt.Errorf("%w: encode event: %w", ErrNotify, err)
	}

	if err := n.nc.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("%w: nats publish: %w", ErrNotify, err)
	}

	if err := n.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%w: nats flush: %w", ErrNotify, err)
	}

	return nil
}

// Close drains the connection.
func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}
