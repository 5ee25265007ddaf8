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

// Command wanwatch-monitor polls the gateway's WAN address and announces
// changes. With -change it performs one manual rotation and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/carverauto/wanwatch/pkg/config"
	"github.com/carverauto/wanwatch/pkg/device"
	"github.com/carverauto/wanwatch/pkg/lifecycle"
	"github.com/carverauto/wanwatch/pkg/logger"
	"github.com/carverauto/wanwatch/pkg/monitor"
	"github.com/carverauto/wanwatch/pkg/notify"
	"github.com/carverauto/wanwatch/pkg/state"
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
	change := flag.Bool("change", false, "Rotate the WAN address once and exit")
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

	// Library code that logs through zerolog's global logger follows the same settings.
	if err := logger.Init(cfg.Logging()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	monitorLogger, err := lifecycle.CreateComponentLogger("monitor", cfg.Logging())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := state.New(ctx, cfg, monitorLogger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	dev, err := device.New(cfg, monitorLogger)
	if err != nil {
		return err
	}
	defer func() { _ = dev.Close() }()

	notifier, closeNotifier, err := notify.New(cfg, monitorLogger)
	if err != nil {
		return err
	}
	defer func() { _ = closeNotifier() }()

	m := monitor.New(cfg, dev, store, notifier, nil, monitorLogger)

	if !*change {
		return lifecycle.Run(ctx, "wanwatch-monitor", m, monitorLogger)
	}

	result, err := m.RunManualChange(ctx)
	if err != nil {
		return fmt.Errorf("manual change aborted: %w", err)
	}

	fmt.Printf("%s: %s -> %s\n", result.Outcome, orNone(result.OldAddress), orNone(result.NewAddress))

	return nil
}

func orNone(s string) string {
	if s == "" {
		return notify.NoneAddress
	}

	return s
}
