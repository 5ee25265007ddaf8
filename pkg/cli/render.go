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

package cli

import (
	"strings"
	"time"

	"github.com/carverauto/wanwatch/pkg/models"
)

// renderReply colors a controller reply by the marker it starts with.
func renderReply(styles logStyles, text string) string {
	text = strings.TrimRight(text, "\n")
	if styles.plain {
		return text
	}

	style := styles.info

	switch {
	case strings.HasPrefix(text, "✅"), strings.HasPrefix(text, "🟢"):
		style = styles.success
	case strings.HasPrefix(text, "⚠️"), strings.HasPrefix(text, "ℹ️"), strings.HasPrefix(text, "⏳"):
		style = styles.warning
	case strings.HasPrefix(text, "❌"), strings.HasPrefix(text, "⛔"):
		style = styles.error
	}

	if strings.Contains(text, "\n") {
		return styles.box.Render(style.Render(text))
	}

	return style.Render(text)
}

// renderRecord formats one line of watch output.
func renderRecord(styles logStyles, rec models.AddressRecord) string {
	at := rec.ChangedAt.Local().Format(time.DateTime)
	if styles.plain {
		return at + " " + rec.Address
	}

	return styles.muted.Render(at) + " " + styles.success.Render(rec.Address)
}
