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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressRecordValidate(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name    string
		record  AddressRecord
		wantErr bool
	}{
		{name: "empty", record: AddressRecord{}},
		{name: "complete", record: NewAddressRecord("10.1.2.3", now)},
		{name: "address only", record: AddressRecord{Address: "10.1.2.3"}, wantErr: true},
		{name: "timestamp only", record: AddressRecord{ChangedAt: now}, wantErr: true},
		{name: "zoned ipv6", record: NewAddressRecord("fe80::1%eth0", now)},
		{name: "prefix", record: NewAddressRecord("100.64.0.1/32", now)},
		{name: "embedded newline", record: NewAddressRecord("10.0.0.1\n10.0.0.2", now), wantErr: true},
		{name: "padded", record: NewAddressRecord(" 10.0.0.1", now), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewAddressRecordTruncatesToSeconds(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 999, time.UTC)
	record := NewAddressRecord("10.1.2.3", at)

	assert.Equal(t, 0, record.ChangedAt.Nanosecond())
	assert.False(t, record.IsZero())
	assert.True(t, AddressRecord{}.IsZero())
}

func TestDeviceSnapshotHasAddress(t *testing.T) {
	assert.False(t, DeviceSnapshot{DeviceName: "B535"}.HasAddress())
	assert.True(t, DeviceSnapshot{Address: "10.0.0.1"}.HasAddress())
	assert.False(t, DeviceSnapshot{Address: "10.0.0.1 pending"}.HasAddress())
}

func TestPrincipalIsSet(t *testing.T) {
	assert.False(t, Principal("").IsSet())
	assert.True(t, Principal("12345").IsSet())
}

func TestDurationUnmarshalJSON(t *testing.T) {
	var cfg struct {
		Interval Duration `json:"interval"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"interval":"45s"}`), &cfg))
	assert.Equal(t, 45*time.Second, time.Duration(cfg.Interval))

	require.NoError(t, json.Unmarshal([]byte(`{"interval":1000000000}`), &cfg))
	assert.Equal(t, time.Second, time.Duration(cfg.Interval))

	assert.Error(t, json.Unmarshal([]byte(`{"interval":true}`), &cfg))
}

func TestDurationSet(t *testing.T) {
	var d Duration

	require.NoError(t, d.Set("30"))
	assert.Equal(t, 30*time.Second, time.Duration(d))

	require.NoError(t, d.Set("2m"))
	assert.Equal(t, 2*time.Minute, time.Duration(d))

	assert.Error(t, d.Set("soon"))
}

func TestClassifyRotation(t *testing.T) {
	assert.Equal(t, RotationChanged, ClassifyRotation("1.2.3.4", "5.6.7.8"))
	assert.Equal(t, RotationChanged, ClassifyRotation("", "5.6.7.8"))
	assert.Equal(t, RotationUnchanged, ClassifyRotation("1.2.3.4", "1.2.3.4"))
	assert.Equal(t, RotationUnverifiable, ClassifyRotation("1.2.3.4", ""))
}
