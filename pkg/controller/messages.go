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

package controller

import (
	"fmt"
	"strings"

	"github.com/carverauto/wanwatch/pkg/models"
)

const (
	rule = "═══════════════════════════"

	timeLayout = "2006-01-02 15:04:05"

	msgUnauthorized   = "⛔ You are not allowed to use this bot."
	msgAlreadyStopped = "ℹ️ The monitor service is already stopped."
	msgStopping       = "⏳ Stopping the monitor service..."
	msgRestarting     = "⏳ Restarting the monitor service..."
	msgStarting       = "⏳ Starting the monitor service..."
	msgStopFailed     = "⚠️ Failed to stop the monitor service. Try again later."
	msgStartFailed    = "⚠️ Failed to start the monitor service. Try again later."
	msgChangeTimeout  = "⚠️ Timeout! The IP change took too long."
	msgQueued         = "⏳ Another command is still running, yours will start when it finishes."
	msgNotStarted     = "⚠️ Gave up waiting for the previous command. Nothing was done, try again."
	msgUnavailable    = "unavailable"
	msgNotAvailable   = "N/A"
)

var commandList = []string{
	"/start - current IP",
	"/status - service status",
	"/stop - stop the monitor service",
	"/restart - start the monitor service",
	"/change - change the IP now",
}

func addressOr(rec *models.AddressRecord, placeholder string) (addr, changedAt string) {
	if rec == nil || rec.Address == "" {
		return placeholder, placeholder
	}

	return rec.Address, rec.ChangedAt.Local().Format(timeLayout)
}

func infoMessage(rec *models.AddressRecord) string {
	addr, changedAt := addressOr(rec, msgUnavailable)

	var b strings.Builder

	fmt.Fprintf(&b, "🛰️ WAN Address Monitor\n%s\n\n", rule)
	fmt.Fprintf(&b, "📡 Current IP: %s\n⏰ Last changed: %s\n\n%s\n", addr, changedAt, rule)
	b.WriteString("📋 Commands:\n")

	for _, c := range commandList {
		fmt.Fprintf(&b, "• %s\n", c)
	}

	return b.String()
}

// running is nil when the supervisor could not tell.
func statusMessage(running *bool, rec *models.AddressRecord) string {
	addr, changedAt := addressOr(rec, msgNotAvailable)

	state := "⚪ Status: Unknown"

	if running != nil {
		if *running {
			state = "🟢 Status: Running"
		} else {
			state = "🔴 Status: Stopped"
		}
	}

	return fmt.Sprintf("📊 Service Status\n%s\n\n%s\n📡 Current IP: %s\n⏰ Last changed: %s\n\n%s\n",
		rule, state, addr, changedAt, rule)
}

func stoppedMessage() string {
	return fmt.Sprintf("✅ Service Stopped\n%s\n\n🔴 Monitoring is disabled.\nUse /restart to enable it again.\n", rule)
}

func startedMessage(wasRunning bool) string {
	action := "Started"
	if wasRunning {
		action = "Restarted"
	}

	return fmt.Sprintf("✅ Service %s\n%s\n\n🟢 Monitoring is active.\nThe IP is watched automatically.\n", action, rule)
}

func changeAckMessage(old string) string {
	return fmt.Sprintf("🔄 Changing IP...\nCurrent IP: %s\n\n⏳ Please wait, this takes a while...", orNA(old))
}

func changeResultMessage(result models.RotationResult, at string) string {
	var msg string

	switch result.Outcome {
	case models.RotationChanged:
		msg = fmt.Sprintf("✅ IP Changed\n%s\n\n🌐 Old IP: %s\n🆕 New IP: %s\n⏰ Time: %s\n",
			rule, orNA(result.OldAddress), result.NewAddress, at)
	case models.RotationUnchanged:
		msg = fmt.Sprintf("ℹ️ IP Unchanged\n%s\n\n📡 IP: %s\n\nThe address may already be the newest one or\nthe provider did not hand out a new one.\n",
			rule, result.NewAddress)
	default:
		msg = fmt.Sprintf("⚠️ IP Change Unverified\n%s\n\nThe new IP could not be read.\nCheck the connection to the gateway.\n", rule)
	}

	if result.NewAddress != "" && !result.Persisted {
		msg += "⚠️ The new address could not be saved.\n"
	}

	return msg
}

func changeFailedMessage(err error) string {
	return fmt.Sprintf("❌ IP change failed: %v", err)
}

func errorMessage(err error) string {
	return fmt.Sprintf("❌ Error: %v", err)
}

func orNA(s string) string {
	if s == "" {
		return msgNotAvailable
	}

	return s
}
