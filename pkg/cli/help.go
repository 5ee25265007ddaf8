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
	"fmt"
	"io"
)

func printHelp(out io.Writer) {
	_, _ = fmt.Fprint(out, `Usage: wanwatch [options] <command>

Commands:
  info, start   show the current WAN address and when it last changed
  status        show whether the monitor service is running
  stop          stop the monitor service
  restart       start the monitor service, stopping it first if it runs
  change        rotate the WAN address now and report the result
  watch         print the address record every time it is replaced
  version       print the version

Options:
  -config string   path to the wanwatch config (default "/etc/config/huawey")
  -plain           disable colors and borders
  -help            show this help message

Examples:
  wanwatch status
  wanwatch -config /etc/wanwatch.json change
  WANWATCH_STATE_BACKEND=nats WANWATCH_NATS_URL=nats://127.0.0.1:4222 wanwatch watch
`)
}
