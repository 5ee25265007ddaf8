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

// Package telegram wraps the Bot API client used both to push notifications
// and to receive operator commands by long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/version"
)

const (
	DefaultAPIURL = "https://api.telegram.org"

	defaultPollTimeout    = time.Minute
	defaultRequestTimeout = 10 * time.Second
)

var errTokenRequired = errors.New("bot token is required")

// OutgoingMessage is a sendMessage request. A zero MessageThreadID posts to
// the chat itself rather than a forum topic.
type OutgoingMessage struct {
	ChatID          string
	MessageThreadID int64
	Text            string
}

// IncomingMessage is a text message received by the bot.
type IncomingMessage struct {
	ChatID          int64
	MessageThreadID int64
	Text            string
}

// MessageHandler receives incoming text messages. It runs on the polling
// goroutine and should return quickly.
type MessageHandler func(ctx context.Context, msg IncomingMessage)

// Client is a Bot API client for a single bot token.
type Client struct {
	token  string
	api    *tgbot.Bot
	logger logger.Logger

	mu        sync.RWMutex
	onMessage MessageHandler
}

type options struct {
	serverURL   string
	httpClient  *http.Client
	pollTimeout time.Duration
}

// Option customizes a Client.
type Option func(*options)

// WithBaseURL points the client at another API endpoint (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.serverURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout must exceed the long
// poll timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// userAgentClient stamps every Bot API request with the wanwatch User-Agent.
type userAgentClient struct {
	next *http.Client
}

func (u userAgentClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", version.UserAgent())

	return u.next.Do(req)
}

// NewClient creates a Bot API client. It does not contact the API; use
// Identity to verify the token.
func NewClient(token string, log logger.Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errTokenRequired
	}

	o := options{
		serverURL:   DefaultAPIURL,
		pollTimeout: defaultPollTimeout,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.pollTimeout + defaultRequestTimeout}
	}

	c := &Client{token: token, logger: log}

	api, err := tgbot.New(token,
		tgbot.WithServerURL(o.serverURL),
		tgbot.WithHTTPClient(o.pollTimeout, userAgentClient{next: o.httpClient}),
		tgbot.WithSkipGetMe(),
		tgbot.WithDefaultHandler(c.handleUpdate),
		tgbot.WithErrorsHandler(c.handleError),
	)
	if err != nil {
		return nil, fmt.Errorf("telegram client: %w", c.redact(err))
	}

	c.api = api

	return c, nil
}

// Identity returns the bot's username, failing when the token is rejected.
func (c *Client) Identity(ctx context.Context) (string, error) {
	me, err := c.api.GetMe(ctx)
	if err != nil {
		return "", c.wrap(ctx, "getMe", err)
	}

	return me.Username, nil
}

// SendMessage delivers text to a chat. Requests without a deadline get a
// ten second one.
func (c *Client) SendMessage(ctx context.Context, msg OutgoingMessage) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, defaultRequestTimeout)
		defer cancel()
	}

	_, err := c.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:          msg.ChatID,
		MessageThreadID: int(msg.MessageThreadID),
		Text:            msg.Text,
	})
	if err != nil {
		return c.wrap(ctx, "sendMessage", err)
	}

	return nil
}

// Listen long-polls for updates and passes text messages to fn until ctx is
// canceled. It always returns ctx.Err().
func (c *Client) Listen(ctx context.Context, fn MessageHandler) error {
	c.mu.Lock()
	c.onMessage = fn
	c.mu.Unlock()

	c.api.Start(ctx)

	return ctx.Err()
}

func (c *Client) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *tgmodels.Update) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return
	}

	c.mu.RLock()
	fn := c.onMessage
	c.mu.RUnlock()

	if fn == nil {
		return
	}

	msg := update.Message

	fn(ctx, IncomingMessage{
		ChatID:          msg.Chat.ID,
		MessageThreadID: int64(msg.MessageThreadID),
		Text:            msg.Text,
	})
}

func (c *Client) handleError(err error) {
	c.logger.Warn().Str("error", c.redact(err).Error()).Msg("Telegram polling error")
}

func (c *Client) wrap(ctx context.Context, method string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", method, ctxErr)
	}

	return fmt.Errorf("%s: %w", method, c.redact(err))
}

// redact hides the token in every error leaving this package. Errors from
// the form encoder and response decoder are not scrubbed by the library.
func (c *Client) redact(err error) error {
	return &redactedError{err: err, token: c.token}
}

type redactedError struct {
	err   error
	token string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.token, "<token>")
}

func (e *redactedError) Unwrap() error {
	return e.err
}
