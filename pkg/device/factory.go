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

package device

import (
	"fmt"
	"time"

	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/logger"
)

// New builds the driver selected by cfg.DeviceDriver.
func New(cfg *config.Config, log logger.Logger) (Client, error) {
	timeout := time.Duration(cfg.DeviceTimeout)

	switch cfg.DeviceDriver {
	case config.DeviceDriverHuawei, "":
		client, err := NewHuaweiClient(HuaweiConfig{
			Host:     cfg.RouterHost,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  timeout,
		}, log)
		if err != nil {
			return nil, err
		}

		return client, nil
	case config.DeviceDriverSNMP:
		return NewSNMPClient(SNMPConfig{
			Host:       cfg.RouterHost,
			Port:       uint16(cfg.SNMPPort),
			Community:  cfg.SNMPCommunity,
			WANIfIndex: cfg.SNMPWANIfIndex,
			Timeout:    timeout,
		}, log), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownDriver, cfg.DeviceDriver)
	}
}
