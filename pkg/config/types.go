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

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
)

const (
	DefaultPath = "/etc/config/huawey"

	StateBackendFile = "file"
	StateBackendNATS = "nats"

	DeviceDriverHuawei = "huawei"
	DeviceDriverSNMP   = "snmp"

	defaultRouterHost    = "192.168.8.1"
	defaultCredential    = "admin"
	defaultPollInterval  = 30 * time.Second
	defaultDeviceTimeout = 10 * time.Second
	defaultStateFile     = "/tmp/last_ip.txt"
	defaultNATSBucket    = "wanwatch"
	defaultServiceName   = "huawei-monitor"
	defaultStartCommand  = "/usr/bin/huawei -r"
	defaultStopCommand   = "/usr/bin/huawei -s"
	defaultSNMPCommunity = "public"
	defaultSNMPPort      = 161
)

var (
	// ErrConfig marks every missing or malformed configuration problem. It is
	// fatal for all wanwatch processes.
	ErrConfig = errors.New("configuration error")

	errRouterHostRequired  = errors.New("router_ip is required")
	errPollIntervalInvalid = errors.New("poll_interval must be positive")
	errTimeoutInvalid      = errors.New("device_timeout must be positive")
	errUnknownBackend      = errors.New("unknown state_backend")
	errUnknownDriver       = errors.New("unknown device_driver")
	errNATSURLRequired     = errors.New("nats_url is required for the nats state backend")
	errStateFileRequired   = errors.New("state_file is required for the file state backend")
	errTokenRequired       = errors.New("telegram_token is required")
	errPrincipalRequired   = errors.New("chat_id is required")
	errThreadIDInvalid     = errors.New("message_thread_id must be numeric")
)

// Config is the shared key/value configuration read by every wanwatch binary.
// The json tag is the canonical key; the uci tag lists accepted aliases.
type Config struct {
	RouterHost string `json:"router_ip" uci:"host"`
	Username   string `json:"username"`
	Password   string `json:"password" sensitive:"true"`

	NotifierToken   string `json:"telegram_token" uci:"notifier_token" sensitive:"true"`
	PrincipalID     string `json:"chat_id" uci:"principal_id"`
	MessageThreadID string `json:"message_thread_id"`
	NATSSubject     string `json:"nats_subject"`

	DeviceDriver   string          `json:"device_driver"`
	DeviceTimeout  models.Duration `json:"device_timeout"`
	SNMPCommunity  string          `json:"snmp_community" sensitive:"true"`
	SNMPPort       int             `json:"snmp_port"`
	SNMPWANIfIndex int             `json:"snmp_wan_ifindex"`

	PollInterval models.Duration `json:"poll_interval"`

	StateBackend string `json:"state_backend"`
	StateFile    string `json:"state_file"`
	NATSURL      string `json:"nats_url"`
	NATSBucket   string `json:"nats_bucket"`

	ServiceName  string `json:"service_name"`
	StartCommand string `json:"start_command"`
	StopCommand  string `json:"stop_command"`

	Hostname string `json:"hostname"`
	LogLevel string `json:"log_level"`
}

// Default returns the configuration used for any key the file leaves out.
func Default() *Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return &Config{
		RouterHost:    defaultRouterHost,
		Username:      defaultCredential,
		Password:      defaultCredential,
		DeviceDriver:  DeviceDriverHuawei,
		DeviceTimeout: models.Duration(defaultDeviceTimeout),
		SNMPCommunity: defaultSNMPCommunity,
		SNMPPort:      defaultSNMPPort,
		PollInterval:  models.Duration(defaultPollInterval),
		StateBackend:  StateBackendFile,
		StateFile:     defaultStateFile,
		NATSBucket:    defaultNATSBucket,
		ServiceName:   defaultServiceName,
		StartCommand:  defaultStartCommand,
		StopCommand:   defaultStopCommand,
		Hostname:      hostname,
		LogLevel:      "info",
	}
}

// Validate implements Validator.
func (c *Config) Validate() error {
	if c.RouterHost == "" {
		return errRouterHostRequired
	}

	if c.PollInterval <= 0 {
		return errPollIntervalInvalid
	}

	if c.DeviceTimeout <= 0 {
		return errTimeoutInvalid
	}

	switch c.StateBackend {
	case StateBackendFile:
		if c.StateFile == "" {
			return errStateFileRequired
		}
	case StateBackendNATS:
		if c.NATSURL == "" {
			return errNATSURLRequired
		}
	default:
		return fmt.Errorf("%w %q", errUnknownBackend, c.StateBackend)
	}

	switch c.DeviceDriver {
	case DeviceDriverHuawei, DeviceDriverSNMP:
	default:
		return fmt.Errorf("%w %q", errUnknownDriver, c.DeviceDriver)
	}

	if c.MessageThreadID != "" {
		if _, err := strconv.ParseInt(c.MessageThreadID, 10, 64); err != nil {
			return errThreadIDInvalid
		}
	}

	return nil
}

// ValidateController adds the checks that only the controller binaries need.
func (c *Config) ValidateController(requireToken bool) error {
	if requireToken && c.NotifierToken == "" {
		return fmt.Errorf("%w: %w", ErrConfig, errTokenRequired)
	}

	if c.PrincipalID == "" {
		return fmt.Errorf("%w: %w", ErrConfig, errPrincipalRequired)
	}

	return nil
}

// Principal returns the identity allowed to drive the controller.
func (c *Config) Principal() models.Principal {
	return models.Principal(c.PrincipalID)
}

// ThreadID returns the optional notification sub-channel, zero when unset.
func (c *Config) ThreadID() int64 {
	id, _ := strconv.ParseInt(c.MessageThreadID, 10, 64)

	return id
}

// Logging returns the logger configuration for the wanwatch binaries.
func (c *Config) Logging() *logger.Config {
	return &logger.Config{
		Level:  c.LogLevel,
		Output: "stdout",
	}
}
