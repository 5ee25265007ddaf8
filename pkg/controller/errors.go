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

import "errors"

var (
	// ErrUnauthorized is returned after the requester was told it may not use
	// the controller.
	ErrUnauthorized = errors.New("requester is not authorized")
	// ErrUnknownCommand is returned for a command outside the command set.
	ErrUnknownCommand = errors.New("unknown command")

	errStopFailed  = errors.New("service is still running after stop")
	errStartFailed = errors.New("service is not running after start")
)
