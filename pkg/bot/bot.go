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

// Package bot serves controller commands over Telegram.
package bot

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/carverauto/wanwatch/pkg/controller"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/telegram"
)

// CommandHandler runs one operator command.
type CommandHandler interface {
	Handle(ctx context.Context, req controller.Request, reply controller.ReplyFunc) error
}

// API is the part of the Telegram client the bot uses.
type API interface {
	Listen(ctx context.Context, fn telegram.MessageHandler) error
	SendMessage(ctx context.Context, msg telegram.OutgoingMessage) error
}

// Bot turns incoming messages into controller requests. Each command runs
// on its own goroutine, so a slow change never delays a status request.
type Bot struct {
	api     API
	handler CommandHandler
	logger  logger.Logger

	wg sync.WaitGroup
}

// New creates a bot that serves handler.
func New(api API, handler CommandHandler, log logger.Logger) *Bot {
	return &Bot{
		api:     api,
		handler: handler,
		logger:  log,
	}
}

// Start implements the lifecycle.Service interface. It returns once ctx is
// canceled and every in-flight command has finished.
func (b *Bot) Start(ctx context.Context) error {
	defer b.wg.Wait()

	b.logger.Info().Msg("Telegram bot is ready for commands")

	return b.api.Listen(ctx, b.dispatch)
}

func (b *Bot) dispatch(ctx context.Context, msg telegram.IncomingMessage) {
	command, ok := ParseCommand(msg.Text)
	if !ok {
		return
	}

	req := controller.Request{
		Command:   command,
		Requester: strconv.FormatInt(msg.ChatID, 10),
	}

	reply := func(ctx context.Context, text string) error {
		return b.api.SendMessage(ctx, telegram.OutgoingMessage{
			ChatID:          req.Requester,
			MessageThreadID: msg.MessageThreadID,
			Text:            text,
		})
	}

	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		if err := b.handler.Handle(ctx, req, reply); err != nil {
			b.logger.Debug().Err(err).Str("command", command).Msg("Command ended with an error")
		}
	}()
}

// ParseCommand extracts the command name from "/name", "/name@bot" or
// "/name args". Text that is not a command returns false.
func ParseCommand(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}

	if name == "" {
		return "", false
	}

	return strings.ToLower(name), true
}
