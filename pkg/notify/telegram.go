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
	"context"
	"fmt"

	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/carverauto/wanwatch/pkg/telegram"
)

// MessageSender is the part of the Telegram client the notifier needs.
type MessageSender interface {
	SendMessage(ctx context.Context, msg telegram.OutgoingMessage) error
}

// TelegramNotifier posts rendered events to a chat, optionally inside a
// forum topic.
type TelegramNotifier struct {
	sender   MessageSender
	chatID   string
	threadID int64
}

// NewTelegramNotifier creates a notifier for chatID.
func NewTelegramNotifier(sender MessageSender, chatID string, threadID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, threadID: threadID}
}

// Notify implements Notifier.
func (t *TelegramNotifier) Notify(ctx context.Context, event models.AddressEvent) error {
	err := t.sender.SendMessage(ctx, telegram.OutgoingMessage{
		ChatID:          t.chatID,
		MessageThreadID: t.threadID,
		Text:            Render(event),
	})
	if err != nil {
		return fmt.Errorf("%w: telegram: %w", ErrNotify, err)
	}

	return nil
}
