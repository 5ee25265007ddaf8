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
	"errors"
	"fmt"
)

var (
	// ErrSession marks a failure to open or use the device session.
	ErrSession = errors.New("device session error")
	// ErrRotationRejected marks a rotate request the device refused.
	ErrRotationRejected = errors.New("rotation request rejected")

	errUnexpectedStatusCode = errors.New("unexpected status code")
	errLoginFailed          = errors.New("login failed")
	errNoSessionToken       = errors.New("device returned no session token")
	errNoWANInterface       = errors.New("snmp_wan_ifindex is required for rotation")
	errUnknownDriver        = errors.New("unknown device driver")
)

// APIError is an <error> document returned by the HiLink API.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("hilink error %d: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("hilink error %d", e.Code)
}

// sessionExpired reports codes after which a fresh login is worth trying.
func (e *APIError) sessionExpired() bool {
	switch e.Code {
	case 100003, 125002, 125003:
		return true
	default:
		return false
	}
}
