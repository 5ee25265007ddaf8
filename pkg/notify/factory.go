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
	"errors"

	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/telegram"
)

// New builds the fan-out for cfg. The log channel is always present; Telegram
// needs both a token and a chat, NATS needs a URL and a subject. The returned
// close func releases channel connections.
func New(cfg *config.Config, log logger.Logger, opts ...telegram.Option) (Multi, func() error, error) {
	out := Multi{Logging{Logger: log}}

	var closers []func() error

	closeAll := func() error {
		var errs []error

		for _, c := range closers {
			errs = append(errs, c())
		}

		return errors.Join(errs...)
	}

	if cfg.NotifierToken != "" && cfg.PrincipalID != "" {
		client, err := telegram.NewClient(cfg.NotifierToken, log, opts...)
		if err != nil {
			return nil, closeAll, err
		}

		out = append(out, NewTelegramNotifier(client, cfg.PrincipalID, cfg.ThreadID()))
	} else {
		log.Warn().Msg("Telegram token or chat id not configured, operator notifications go to the log only")
	}

	if cfg.NATSURL != "" && cfg.NATSSubject != "" {
		n, err := NewNATSNotifier(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, closeAll, err
		}

		out = append(out, n)
		closers = append(closers, n.Close)
	}

	return out, closeAll, nil
}
