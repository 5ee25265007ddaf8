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
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/controller"
	"github.com/carverauto/wanwatch/pkg/device"
	"github.com/carverauto/wanwatch/pkg/lifecycle"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/state"
	"github.com/carverauto/wanwatch/pkg/supervisor"
	"github.com/carverauto/wanwatch/pkg/version"
)

const (
	subCmdWatch   = "watch"
	subCmdVersion = "version"
	subCmdHelp    = "help"
)

var errMissingCommand = errors.New("no command given")

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*CmdConfig, error) {
	fs := flag.NewFlagSet("wanwatch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", config.DefaultPath, "path to the wanwatch config")
	plain := fs.Bool("plain", false, "disable colors and borders")
	help := fs.Bool("help", false, "show help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &CmdConfig{
		ConfigPath: *configPath,
		Plain:      *plain,
		Help:       *help,
		Args:       fs.Args(),
	}

	if len(cfg.Args) > 0 {
		cfg.SubCmd = cfg.Args[0]
	}

	if !cfg.Help && cfg.SubCmd == "" {
		return cfg, errMissingCommand
	}

	return cfg, nil
}

// Run executes the parsed command, writing replies to out. Controller commands
// act as the configured principal.
func Run(ctx context.Context, cmd *CmdConfig, out io.Writer) error {
	switch {
	case cmd.Help || cmd.SubCmd == subCmdHelp:
		printHelp(out)
		return nil
	case cmd.SubCmd == subCmdVersion:
		_, err := fmt.Fprintln(out, version.GetFullVersion())
		return err
	}

	cfg, err := config.Load(ctx, cmd.ConfigPath, nil)
	if err != nil {
		return err
	}

	logCfg := cfg.Logging()
	logCfg.Output = "stderr"

	log, err := lifecycle.CreateComponentLogger("cli", logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := state.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	styles := newLogStyles(cmd.Plain)

	if cmd.SubCmd == subCmdWatch {
		return watch(ctx, store, out, styles)
	}

	if err := cfg.ValidateController(false); err != nil {
		return err
	}

	return runController(ctx, cfg, store, cmd.SubCmd, out, styles, log)
}

func runController(
	ctx context.Context,
	cfg *config.Config,
	store state.Store,
	command string,
	out io.Writer,
	styles logStyles,
	log logger.Logger,
) error {
	dev, err := device.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = dev.Close() }()

	sup, err := supervisor.New(cfg, log)
	if err != nil {
		return err
	}

	ctrl := controller.New(cfg, dev, store, sup, nil, log)

	return ctrl.Handle(ctx, controller.Request{
		Command:   command,
		Requester: cfg.PrincipalID,
	}, printReply(out, styles))
}

func printReply(out io.Writer, styles logStyles) controller.ReplyFunc {
	return func(_ context.Context, text string) error {
		_, err := fmt.Fprintln(out, renderReply(styles, text))
		return err
	}
}

// watch prints the current record and then every replacement until ctx ends.
func watch(ctx context.Context, store state.Store, out io.Writer, styles logStyles) error {
	updates, err := store.Watch(ctx)
	if err != nil {
		return err
	}

	rec, err := store.Read(ctx)
	if err != nil {
		return err
	}

	if rec != nil {
		_, _ = fmt.Fprintln(out, renderRecord(styles, *rec))
	} else {
		_, _ = fmt.Fprintln(out, renderReply(styles, "ℹ️ No address recorded yet"))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-updates:
			if !ok {
				return nil
			}

			_, _ = fmt.Fprintln(out, renderRecord(styles, rec))
		}
	}
}
