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

// RotationOutcome classifies what a rotation request achieved.
type RotationOutcome string

const (
	RotationChanged      RotationOutcome = "changed"
	RotationUnchanged    RotationOutcome = "unchanged"
	RotationUnverifiable RotationOutcome = "unverifiable"
	RotationRejected     RotationOutcome = "rejected"
)

// RotationResult is the verified result of one rotation request.
type RotationResult struct {
	Outcome    RotationOutcome `json:"outcome"`
	DeviceName string          `json:"device_name,omitempty"`
	OldAddress string          `json:"old_address,omitempty"`
	NewAddress string          `json:"new_address,omitempty"`
	// Persisted is false when the re-queried address could not be written.
	Persisted bool `json:"persisted"`
}

// ClassifyRotation compares the address seen before a rotation with the one
// re-queried after the settle delay. An empty newAddress is unverifiable.
func ClassifyRotation(oldAddress, newAddress string) RotationOutcome {
	switch {
	case newAddress == "":
		return RotationUnverifiable
	case newAddress == oldAddress:
		return RotationUnchanged
	default:
		return RotationChanged
	}
}
