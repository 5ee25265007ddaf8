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

import "time"

// EventType names an operator-facing wanwatch event.
type EventType string

const (
	EventMonitorStarted       EventType = "monitor.started"
	EventAddressChanged       EventType = "address.changed"
	EventManualChangeStarted  EventType = "manual_change.started"
	EventManualChangeFinished EventType = "manual_change.finished"
	EventManualChangeFailed   EventType = "manual_change.failed"
	EventError                EventType = "error"
)

// AddressEvent describes something the operator channel should hear about.
type AddressEvent struct {
	Type            EventType `json:"type"`
	Hostname        string    `json:"hostname"`
	DeviceName      string    `json:"device_name,omitempty"`
	PreviousAddress string    `json:"previous_address,omitempty"`
	Address         string    `json:"address,omitempty"`
	Outcome         string    `json:"outcome,omitempty"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// CloudEvent represents a CloudEvents 1.0 envelope.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}
