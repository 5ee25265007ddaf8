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

package notify

import (
	"fmt"
	"strings"

	"github.com/carverauto/wanwatch/pkg/models"
)

const (
	separator = "========================="

	// NoneAddress stands in for an address that was never observed.
	NoneAddress = "-"
)

func orNone(s string) string {
	if s == "" {
		return NoneAddress
	}

	return s
}

// Render formats an event as the plain-text operator message.
func Render(event models.AddressEvent) string {
	var b strings.Builder

	switch event.Type {
	case models.EventMonitorStarted:
		fmt.Fprintf(&b, "🚀 Monitoring started on %s\n%s\n", event.Hostname, separator)
		fmt.Fprintf(&b, "📡 Modem: %s\n🌐 Initial IP: %s\n", orNone(event.DeviceName), orNone(event.Address))
	case models.EventAddressChanged:
		fmt.Fprintf(&b, "🔄 WAN IP changed - %s\n%s\n", event.Hostname, separator)
		fmt.Fprintf(&b, "📡 Modem: %s\n🌐 Old: %s\n🆕 New: %s\n",
			orNone(event.DeviceName), orNone(event.PreviousAddress), orNone(event.Address))
	case models.EventManualChangeStarted:
		fmt.Fprintf(&b, "🔧 Manual IP change started on %s\n%s\n", event.Hostname, separator)
		fmt.Fprintf(&b, "📡 Modem: %s\n🌐 Current IP: %s\n", orNone(event.DeviceName), orNone(event.PreviousAddress))
	case models.EventManualChangeFinished:
		fmt.Fprintf(&b, "✅ Manual IP change %s - %s\n%s\n", orNone(event.Outcome), event.Hostname, separator)
		fmt.Fprintf(&b, "📡 Modem: %s\n🌐 Old IP: %s\n🆕 New IP: %s\n",
			orNone(event.DeviceName), orNone(event.PreviousAddress), orDefault(event.Address, "not detected"))
	case models.EventManualChangeFailed:
		fmt.Fprintf(&b, "❌ Manual IP change failed on %s\n", event.Hostname)

		if event.Error != "" {
			fmt.Fprintf(&b, "%s\n", event.Error)
		}
	default:
		fmt.Fprintf(&b, "❌ Error on %s: %s\n", event.Hostname, orNone(event.Error))

		return b.String()
	}

	b.WriteString(separator)
	b.WriteString("\n")

	return b.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}
