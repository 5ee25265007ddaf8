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

// Package guard decides whether a requester may drive the controller.
package guard

import "github.com/carverauto/wanwatch/pkg/models"

// Authorized reports whether requester is the configured principal. An unset
// principal authorizes nobody.
func Authorized(requester string, principal models.Principal) bool {
	if !principal.IsSet() {
		return false
	}

	return requester == string(principal)
}
