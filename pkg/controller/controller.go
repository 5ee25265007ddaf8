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

// Package controller executes operator commands against the monitor service,
// the gateway and the shared address record.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/device"
	"github.com/carverauto/wanwatch/pkg/guard"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/models"
	"github.com/carverauto/wanwatch/pkg/monitor"
	"github.com/carverauto/wanwatch/pkg/state"
	"github.com/carverauto/wanwatch/pkg/supervisor"
)

// Command names accepted by Handle.
const (
	CommandStart   = "start"
	CommandInfo    = "info"
	CommandStatus  = "status"
	CommandStop    = "stop"
	CommandRestart = "restart"
	CommandChange  = "change"
)

const (
	StopSettle    = 2 * time.Second
	StartSettle   = 3 * time.Second
	ChangeTimeout = 120 * time.Second

	replyGrace = 5 * time.Second
)

// Request is one operator command. Requester is the identity the transport
// vouches for, e.g. the Telegram chat id.
type Request struct {
	Command   string
	Requester string
}

// ReplyFunc delivers one reply to the requester. A command may reply more
// than once.
type ReplyFunc func(ctx context.Context, text string) error

// Controller serves the command set. Mutating commands run one at a time;
// info and status never wait for them.
type Controller struct {
	principal     models.Principal
	deviceTimeout time.Duration

	device     device.Client
	store      state.Store
	supervisor supervisor.Supervisor
	clock      monitor.Clock
	rotator    *monitor.Rotator
	logger     logger.Logger

	mutating chan struct{}
}

// New creates a controller. A nil clock uses real time.
func New(
	cfg *config.Config,
	dev device.Client,
	store state.Store,
	sup supervisor.Supervisor,
	clock monitor.Clock,
	log logger.Logger,
) *Controller {
	if clock == nil {
		clock = monitor.RealClock{}
	}

	timeout := time.Duration(cfg.DeviceTimeout)

	return &Controller{
		principal:     cfg.Principal(),
		deviceTimeout: timeout,
		device:        dev,
		store:         store,
		supervisor:    sup,
		clock:         clock,
		logger:        log,
		mutating:      make(chan struct{}, 1),
		rotator: &monitor.Rotator{
			Device:         dev,
			Store:          store,
			Clock:          clock,
			Log:            log,
			Settle:         monitor.DefaultRotationSettle,
			TriggerTimeout: monitor.DefaultTriggerTimeout,
			QueryTimeout:   timeout,
		},
	}
}

// Handle authorizes req and runs its command, pushing replies through reply
// as the command progresses. Every failure has already been replied to and
// logged when it is returned.
func (c *Controller) Handle(ctx context.Context, req Request, reply ReplyFunc) error {
	send := func(text string) {
		rctx := ctx

		if ctx.Err() != nil {
			// the request is over but its requester still gets the last word
			var cancel context.CancelFunc

			rctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), replyGrace)
			defer cancel()
		}

		if err := reply(rctx, text); err != nil {
			c.logger.Warn().Err(err).Str("command", req.Command).Msg("Failed to deliver reply")
		}
	}

	if !guard.Authorized(req.Requester, c.principal) {
		c.logger.Warn().Str("command", req.Command).Msg("Rejected command from unauthorized requester")
		send(msgUnauthorized)

		return ErrUnauthorized
	}

	cmd := strings.ToLower(strings.TrimSpace(req.Command))

	c.logger.Info().Str("command", cmd).Msg("Handling command")

	var err error

	switch cmd {
	case CommandStart, CommandInfo:
		c.info(ctx, send)
	case CommandStatus:
		c.status(ctx, send)
	case CommandStop:
		err = c.exclusive(ctx, send, func() error { return c.stop(ctx, send) })
	case CommandRestart:
		err = c.exclusive(ctx, send, func() error { return c.restart(ctx, send) })
	case CommandChange:
		err = c.exclusive(ctx, send, func() error { return c.change(ctx, send) })
	default:
		err = fmt.Errorf("%w %q", ErrUnknownCommand, req.Command)
		send(errorMessage(err))
	}

	if err != nil {
		c.logger.Error().Err(err).Str("command", cmd).Msg("Command failed")
	}

	return err
}

// exclusive runs fn once no other mutating command is running. A request
// that has to wait is told so at once, and again if it never gets to run.
func (c *Controller) exclusive(ctx context.Context, send func(string), fn func() error) error {
	select {
	case c.mutating <- struct{}{}:
	default:
		send(msgQueued)

		select {
		case c.mutating <- struct{}{}:
		case <-ctx.Done():
			send(msgNotStarted)
			return ctx.Err()
		}
	}

	defer func() { <-c.mutating }()

	return fn()
}

func (c *Controller) info(ctx context.Context, send func(string)) {
	send(infoMessage(c.readRecord(ctx)))
}

func (c *Controller) status(ctx context.Context, send func(string)) {
	var running *bool

	if ok, err := c.supervisor.IsRunning(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Liveness check failed")
	} else {
		running = &ok
	}

	send(statusMessage(running, c.readRecord(ctx)))
}

func (c *Controller) stop(ctx context.Context, send func(string)) error {
	running, err := c.supervisor.IsRunning(ctx)
	if err != nil {
		send(errorMessage(err))
		return err
	}

	if !running {
		send(msgAlreadyStopped)
		return nil
	}

	send(msgStopping)

	if err := c.supervisor.Stop(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Stop returned an error, re-checking liveness")
	}

	if err := c.settle(ctx, StopSettle); err != nil {
		return err
	}

	running, err = c.recheck(ctx)
	if err != nil {
		send(errorMessage(err))
		return err
	}

	if running {
		send(msgStopFailed)
		return errStopFailed
	}

	send(stoppedMessage())

	return nil
}

func (c *Controller) restart(ctx context.Context, send func(string)) error {
	wasRunning, err := c.supervisor.IsRunning(ctx)
	if err != nil {
		send(errorMessage(err))
		return err
	}

	if wasRunning {
		send(msgRestarting)

		if err := c.supervisor.Stop(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Stop returned an error, starting anyway")
		}

		if err := c.settle(ctx, StopSettle); err != nil {
			return err
		}
	} else {
		send(msgStarting)
	}

	if err := c.supervisor.Start(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Start returned an error, re-checking liveness")
	}

	if err := c.settle(ctx, StartSettle); err != nil {
		return err
	}

	running, err := c.recheck(ctx)
	if err != nil {
		send(errorMessage(err))
		return err
	}

	if !running {
		send(msgStartFailed)
		return errStartFailed
	}

	send(startedMessage(wasRunning))

	return nil
}

func (c *Controller) change(ctx context.Context, send func(string)) error {
	ctx, cancel := context.WithTimeout(ctx, ChangeTimeout)
	defer cancel()

	var old, deviceName string

	if rec := c.readRecord(ctx); rec != nil {
		old = rec.Address
	} else {
		snap, err := c.query(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("No stored address and the device query failed")
		}

		old, deviceName = snap.Address, snap.DeviceName
	}

	send(changeAckMessage(old))

	result, err := c.rotator.Rotate(ctx, old, deviceName)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			send(msgChangeTimeout)
		} else {
			send(changeFailedMessage(err))
		}

		return err
	}

	send(changeResultMessage(result, c.clock.Now().Local().Format(timeLayout)))

	return nil
}

// readRecord never fails; an unreadable record is shown as unavailable.
func (c *Controller) readRecord(ctx context.Context) *models.AddressRecord {
	rec, err := c.store.Read(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read address record")
		return nil
	}

	return rec
}

// recheck is the post-settle liveness check that decides the reply.
func (c *Controller) recheck(ctx context.Context) (bool, error) {
	running, err := c.supervisor.IsRunning(ctx)
	if err != nil {
		return false, fmt.Errorf("liveness re-check: %w", err)
	}

	return running, nil
}

func (c *Controller) query(ctx context.Context) (models.DeviceSnapshot, error) {
	qctx, cancel := context.WithTimeout(ctx, c.deviceTimeout)
	defer cancel()

	return c.device.Snapshot(qctx)
}

func (c *Controller) settle(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}
