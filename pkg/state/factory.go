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
	"fmt"

	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/logger"
)

// New opens the store selected by cfg.StateBackend.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, error) {
	switch cfg.StateBackend {
	case config.StateBackendFile, "":
		store, err := NewFileStore(cfg.StateFile, log)
		if err != nil {
			return nil, err
		}

		return store, nil
	case config.StateBackendNATS:
		store, err := NewNatsStore(ctx, cfg.NATSURL, cfg.NATSBucket, log)
		if err != nil {
			return nil, err
		}

		return store, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownBackend, cfg.StateBackend)
	}
}
