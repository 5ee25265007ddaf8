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

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/carverauto/wanwatch/pkg/logger"
)

const maxServiceNameLength = 256

var (
	validServiceName = regexp.MustCompile(`^[a-zA-Z0-9\-_.]+$`)

	errInvalidServiceName = errors.New("invalid service name")
	errNoStartCommand     = errors.New("start_command is not configured")
)

type runningProcess interface {
	CmdlineWithContext(ctx context.Context) (string, error)
	TerminateWithContext(ctx context.Context) error
}

// ProcessConfig describes how to find and drive the service.
type ProcessConfig struct {
	// Name must appear in the command line of the service process, e.g. the
	// screen session name it runs under.
	Name         string
	StartCommand string
	StopCommand  string
}

// ProcessSupervisor finds the service in the process table and drives it
// with the configured shell-free commands.
type ProcessSupervisor struct {
	name  string
	start []string
	stop  []string
	log   logger.Logger

	listProcesses func(ctx context.Context) ([]runningProcess, error)
	runCommand    func(ctx context.Context, argv []string) ([]byte, error)
	spawnCommand  func(argv []string) error
}

// NewProcessSupervisor validates cfg and returns a supervisor.
func NewProcessSupervisor(cfg ProcessConfig, log logger.Logger) (*ProcessSupervisor, error) {
	if len(cfg.Name) > maxServiceNameLength || !validServiceName.MatchString(cfg.Name) {
		return nil, fmt.Errorf("%w: %w %q", ErrSupervisor, errInvalidServiceName, cfg.Name)
	}

	return &ProcessSupervisor{
		name:          cfg.Name,
		start:         strings.Fields(cfg.StartCommand),
		stop:          strings.Fields(cfg.StopCommand),
		log:           log,
		listProcesses: listSystemProcesses,
		runCommand:    runCommand,
		spawnCommand:  spawnCommand,
	}, nil
}

// IsRunning implements Supervisor.
func (s *ProcessSupervisor) IsRunning(ctx context.Context) (bool, error) {
	procs, err := s.matching(ctx)
	if err != nil {
		return false, err
	}

	return len(procs) > 0, nil
}

// Start implements Supervisor. The service is launched detached; callers
// confirm it came up with IsRunning.
func (s *ProcessSupervisor) Start(_ context.Context) error {
	if len(s.start) == 0 {
		return fmt.Errorf("%w: %w", ErrSupervisor, errNoStartCommand)
	}

	s.log.Info().Strs("command", s.start).Str("service", s.name).Msg("Starting service")

	if err := s.spawnCommand(s.start); err != nil {
		return fmt.Errorf("%w: start %s: %w", ErrSupervisor, s.name, err)
	}

	return nil
}

// Stop implements Supervisor. Without a stop command, or when it fails, the
// matching processes are sent SIGTERM.
func (s *ProcessSupervisor) Stop(ctx context.Context) error {
	if len(s.stop) > 0 {
		s.log.Info().Strs("command", s.stop).Str("service", s.name).Msg("Stopping service")

		out, err := s.runCommand(ctx, s.stop)
		if err == nil {
			return nil
		}

		s.log.Warn().Err(err).Str("output", strings.TrimSpace(string(out))).
			Msg("Stop command failed, terminating processes directly")
	}

	procs, err := s.matching(ctx)
	if err != nil {
		return err
	}

	var errs []error

	for _, p := range procs {
		if err := p.TerminateWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: terminate %s: %w", ErrSupervisor, s.name, err)
	}

	return nil
}

func (s *ProcessSupervisor) matching(ctx context.Context) ([]runningProcess, error) {
	procs, err := s.listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list processes: %w", ErrSupervisor, err)
	}

	var out []runningProcess

	for _, p := range procs {
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil {
			// exited between listing and inspection
			continue
		}

		if strings.Contains(cmdline, s.name) {
			out = append(out, p)
		}
	}

	return out, nil
}

func listSystemProcesses(ctx context.Context) ([]runningProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	self := int32(os.Getpid())
	out := make([]runningProcess, 0, len(procs))

	for _, p := range procs {
		if p.Pid == self {
			continue
		}

		out = append(out, p)
	}

	return out, nil
}

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	return exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput() //nolint:gosec // operator-configured command
}

func spawnCommand(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // operator-configured command
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() { _ = cmd.Wait() }()

	return nil
}
