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

package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/wanwatch/pkg/controller"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/telegram"
)

type fakeAPI struct {
	mu       sync.Mutex
	incoming []telegram.IncomingMessage
	sent     []telegram.OutgoingMessage
}

func (f *fakeAPI) Listen(ctx context.Context, fn telegram.MessageHandler) error {
	for _, msg := range f.incoming {
		fn(ctx, msg)
	}

	<-ctx.Done()

	return ctx.Err()
}

func (f *fakeAPI) SendMessage(_ context.Context, msg telegram.OutgoingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, msg)

	return nil
}

func (f *fakeAPI) sentMessages() []telegram.OutgoingMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]telegram.OutgoingMessage(nil), f.sent...)
}

type echoHandler struct {
	mu   sync.Mutex
	reqs []controller.Request
}

func (e *echoHandler) Handle(ctx context.Context, req controller.Request, reply controller.ReplyFunc) error {
	e.mu.Lock()
	e.reqs = append(e.reqs, req)
	e.mu.Unlock()

	return reply(ctx, "ok "+req.Command)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{text: "/status", want: "status", ok: true},
		{text: "/Change@wanwatch_bot", want: "change", ok: true},
		{text: "  /stop now", want: "stop", ok: true},
		{text: "status", ok: false},
		{text: "/", ok: false},
		{text: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseCommand(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestBotDispatchesCommands(t *testing.T) {
	api := &fakeAPI{
		incoming: []telegram.IncomingMessage{
			{ChatID: -100, MessageThreadID: 9, Text: "/status"},
			{ChatID: 42, Text: "hello"},
		},
	}
	handler := &echoHandler{}

	b := New(api, handler, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- b.Start(ctx) }()

	require.Eventually(t, func() bool {
		return len(api.sentMessages()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop")
	}

	sent := api.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, telegram.OutgoingMessage{ChatID: "-100", MessageThreadID: 9, Text: "ok status"}, sent[0])

	require.Len(t, handler.reqs, 1)
	assert.Equal(t, controller.Request{Command: "status", Requester: "-100"}, handler.reqs[0])
}

type blockingHandler struct {
	release chan struct{}
	done    chan struct{}
}

func (h *blockingHandler) Handle(ctx context.Context, _ controller.Request, reply controller.ReplyFunc) error {
	<-h.release
	defer close(h.done)

	return reply(ctx, "finished")
}

func TestBotWaitsForInFlightCommands(t *testing.T) {
	api := &fakeAPI{incoming: []telegram.IncomingMessage{{ChatID: 1, Text: "/change"}}}
	handler := &blockingHandler{release: make(chan struct{}), done: make(chan struct{})}

	b := New(api, handler, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- b.Start(ctx) }()

	cancel()

	select {
	case <-done:
		t.Fatal("bot returned while a command was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(handler.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop")
	}

	<-handler.done
}
