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

// Package models holds the records exchanged between the wanwatch monitor,
// controller and their backing stores.
package models

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

var (
	errAddressWithoutTimestamp = errors.New("address record has an address but no changed_at")
	errTimestampWithoutAddress = errors.New("address record has changed_at but no address")
	errMalformedAddress        = errors.New("address record address contains whitespace")
)

// AddressRecord is the single persisted "last known WAN address" record shared
// by the monitor and the controller. It is always replaced as a whole.
type AddressRecord struct {
	Address   string    `json:"address"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewAddressRecord stamps address with at. Timestamps are truncated to whole
// seconds so that every backend round-trips the same value.
func NewAddressRecord(address string, at time.Time) AddressRecord {
	return AddressRecord{Address: address, ChangedAt: at.Truncate(time.Second)}
}

// IsZero reports whether the record carries no observation.
func (r AddressRecord) IsZero() bool {
	return r.Address == "" && r.ChangedAt.IsZero()
}

// ValidAddress reports whether s can be stored as an address. Stores do not
// interpret the address beyond this, so whatever the device reports and
// passes here reads back unchanged.
func ValidAddress(s string) bool {
	return s != "" && strings.IndexFunc(s, unicode.IsSpace) < 0
}

// Validate enforces that ChangedAt is set if and only if Address is set, and
// that a set Address is storable.
func (r AddressRecord) Validate() error {
	switch {
	case r.Address != "" && !ValidAddress(r.Address):
		return errMalformedAddress
	case r.Address != "" && r.ChangedAt.IsZero():
		return errAddressWithoutTimestamp
	case r.Address == "" && !r.ChangedAt.IsZero():
		return errTimestampWithoutAddress
	default:
		return nil
	}
}

// Equal compares two records by value.
func (r AddressRecord) Equal(other AddressRecord) bool {
	return r.Address == other.Address && r.ChangedAt.Equal(other.ChangedAt)
}

// DeviceSnapshot is the result of a single device query. An empty Address
// means the session failed or returned incomplete data.
type DeviceSnapshot struct {
	Address    string `json:"address,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
}

// HasAddress reports whether the snapshot may be used to update state. An
// address no store could hold counts as missing.
func (s DeviceSnapshot) HasAddress() bool {
	return ValidAddress(s.Address)
}

// Principal is the single identity allowed to issue control commands.
type Principal string

// IsSet reports whether a principal has been configured.
func (p Principal) IsSet() bool {
	return p != ""
}
