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

// Command wanwatch-bot serves the controller commands over Telegram.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/carverauto/wanwatch/pkg/bot"
	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/controller"
	"github.com/carverauto/wanwatch/pkg/device"
	"github.com/carverauto/wanwatch/pkg/lifecycle"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/state"
	"github.com/carverauto/wanwatch/pkg/supervisor"
	"github.com/carverauto/wanwatch/pkg/telegram"
	"github.com/carverauto/wanwatch/pkg/version"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath, "Path to the wanwatch config file")
	apiURL := flag.String("api-url", telegram.DefaultAPIURL, "Telegram Bot API base URL")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return nil
	}

	ctx := context.Background()

	cfg, err := config.Load(ctx, *configPath, nil)
	if err != nil {
		return err
	}

	if err := cfg.ValidateController(true); err != nil {
		return err
	}

	// Library code that logs through zerolog's global logger follows the same settings.
	if err := logger.Init(cfg.Logging()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	botLogger, err := lifecycle.CreateComponentLogger("bot", cfg.Logging())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	botLogger.Info().Str("chat_id", cfg.PrincipalID).Msg("Authorized chat configured")

	store, err := state.New(ctx, cfg, botLogger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	dev, err := device.New(cfg, botLogger)
	if err != nil {
		return err
	}
	defer func() { _ = dev.Close() }()

	sup, err := supervisor.New(cfg, botLogger)
	if err != nil {
		return err
	}

	client, err := telegram.NewClient(cfg.NotifierToken, botLogger, telegram.WithBaseURL(*apiURL))
	if err != nil {
		return err
	}

	identity, err := client.Identity(ctx)
	if err != nil {
		return fmt.Errorf("telegram token rejected: %w", err)
	}

	botLogger.Info().Str("username", identity).Msg("Connected to the Telegram Bot API")

	ctrl := controller.New(cfg, dev, store, sup, nil, botLogger)

	return lifecycle.Run(ctx, "wanwatch-bot", bot.New(client, ctrl, botLogger), botLogger)
}
