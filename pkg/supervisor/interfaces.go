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

//go:generate mockgen -destination=mock_supervisor.go -package=supervisor github.com/carverauto/wanwatch/pkg/supervisor Supervisor

// Package supervisor answers whether the monitor service is running and
// starts or stops it.
package supervisor

import (
	"context"
	"errors"
)

// ErrSupervisor wraps failures to start, stop or inspect the service.
var ErrSupervisor = errors.New("supervisor error")

// Supervisor controls the lifecycle of the monitor service.
type Supervisor interface {
	IsRunning(ctx context.Context) (bool, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
