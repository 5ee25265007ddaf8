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
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/gosnmp/gosnmp"
)

const (
	oidSysName        = ".1.3.6.1.2.1.1.5.0"
	oidIpAdEntIfIndex = ".1.3.6.1.2.1.4.20.1.2"
	oidIfAdminStatus  = ".1.3.6.1.2.1.2.2.1.7"

	ifAdminUp   = 1
	ifAdminDown = 2

	defaultBounceDelay = 2 * time.Second
)

// SNMPConfig holds the v2c parameters of an SNMP-managed gateway.
type SNMPConfig struct {
	Host       string
	Port       uint16
	Community  string
	WANIfIndex int
	Timeout    time.Duration
}

// SNMPClient reads the WAN address from the gateway's ipAddrTable and
// rotates it by bouncing ifAdminStatus on the WAN interface.
type SNMPClient struct {
	cfg         SNMPConfig
	logger      logger.Logger
	bounceDelay time.Duration
}

// NewSNMPClient creates an SNMP driver. Connections are opened per call.
func NewSNMPClient(cfg SNMPConfig, log logger.Logger) *SNMPClient {
	if cfg.Port == 0 {
		cfg.Port = 161
	}

	return &SNMPClient{cfg: cfg, logger: log, bounceDelay: defaultBounceDelay}
}

func (s *SNMPClient) connect(ctx context.Context) (*gosnmp.GoSNMP, error) {
	client := &gosnmp.GoSNMP{
		Context:            ctx,
		Target:             s.cfg.Host,
		Port:               s.cfg.Port,
		Community:          s.cfg.Community,
		Version:            gosnmp.Version2c,
		Timeout:            s.cfg.Timeout,
		Retries:            1,
		MaxOids:            gosnmp.MaxOids,
		MaxRepetitions:     10,
		ExponentialTimeout: true,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("%w: snmp connect %s: %w", ErrSession, s.cfg.Host, err)
	}

	return client, nil
}

// Snapshot implements Client.
func (s *SNMPClient) Snapshot(ctx context.Context) (models.DeviceSnapshot, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return models.DeviceSnapshot{}, err
	}
	defer client.Conn.Close()

	var snapshot models.DeviceSnapshot

	result, err := client.Get([]string{oidSysName})
	if err != nil {
		return snapshot, fmt.Errorf("%w: snmp get sysName: %w", ErrSession, err)
	}

	for _, v := range result.Variables {
		if v.Name == oidSysName && v.Type == gosnmp.OctetString {
			snapshot.DeviceName = string(v.Value.([]byte))
		}
	}

	var entries []gosnmp.SnmpPDU

	err = client.BulkWalk(oidIpAdEntIfIndex, func(pdu gosnmp.SnmpPDU) error {
		entries = append(entries, pdu)
		return nil
	})
	if err != nil {
		return snapshot, fmt.Errorf("%w: snmp walk ipAddrTable: %w", ErrSession, err)
	}

	snapshot.Address = selectWANAddress(entries, s.cfg.WANIfIndex)

	return snapshot, nil
}

// Rotate implements Client. The interface is taken down and brought back up;
// a device that refuses the SET rejects the rotation.
func (s *SNMPClient) Rotate(ctx context.Context) error {
	if s.cfg.WANIfIndex <= 0 {
		return fmt.Errorf("%w: %w", ErrRotationRejected, errNoWANInterface)
	}

	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Conn.Close()

	oid := fmt.Sprintf("%s.%d", oidIfAdminStatus, s.cfg.WANIfIndex)

	if err := setInteger(client, oid, ifAdminDown); err != nil {
		return err
	}

	s.logger.Info().Int("if_index", s.cfg.WANIfIndex).Msg("WAN interface set down for rotation")

	select {
	case <-ctx.Done():
	case <-time.After(s.bounceDelay):
	}

	// Bring the link back even if ctx expired while waiting.
	client.Context = context.Background()

	return setInteger(client, oid, ifAdminUp)
}

// Close implements Client.
func (*SNMPClient) Close() error {
	return nil
}

func setInteger(client *gosnmp.GoSNMP, oid string, value int) error {
	result, err := client.Set([]gosnmp.SnmpPDU{{Name: oid, Type: gosnmp.Integer, Value: value}})
	if err != nil {
		return fmt.Errorf("%w: snmp set %s: %w", ErrSession, oid, err)
	}

	if result.Error != gosnmp.NoError {
		return fmt.Errorf("%w: snmp set %s: %s", ErrRotationRejected, oid, result.Error)
	}

	return nil
}

// selectWANAddress picks the address bound to wanIfIndex from ipAdEntIfIndex
// rows (.1.3.6.1.2.1.4.20.1.2.A.B.C.D = ifIndex). Without an index the first
// non-loopback, non-private address wins.
func selectWANAddress(entries []gosnmp.SnmpPDU, wanIfIndex int) string {
	for _, pdu := range entries {
		if !strings.HasPrefix(pdu.Name, oidIpAdEntIfIndex+".") {
			continue
		}

		ip := net.ParseIP(strings.TrimPrefix(pdu.Name, oidIpAdEntIfIndex+"."))
		if ip == nil {
			continue
		}

		if wanIfIndex > 0 {
			if ifIndex, ok := pdu.Value.(int); ok && ifIndex == wanIfIndex {
				return ip.String()
			}

			continue
		}

		if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsLinkLocalUnicast() && !ip.IsUnspecified() {
			return ip.String()
		}
	}

	return ""
}

var _ Client = (*SNMPClient)(nil)
