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

package supervisor

import (
	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/logger"
)

// New returns the process supervisor described by cfg.
func New(cfg *config.Config, log logger.Logger) (*ProcessSupervisor, error) {
	return NewProcessSupervisor(ProcessConfig{
		Name:         cfg.ServiceName,
		StartCommand: cfg.StartCommand,
		StopCommand:  cfg.StopCommand,
	}, log)
}
