// go-tagreport
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-tagreport.
//
// go-tagreport is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-tagreport is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-tagreport; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package wifi keeps a Linux wireless interface associated. Interface
// implements tagreport.Associator.
package wifi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ZaparooProject/go-tagreport"
)

// Backend selects the tool that drives association.
type Backend string

const (
	// BackendWPA uses wpa_cli; credentials live in wpa_supplicant.conf.
	BackendWPA Backend = "wpa_cli"
	// BackendNM uses nmcli with the configured SSID and passphrase.
	BackendNM Backend = "nmcli"
	// BackendNone only observes link state and never reassociates.
	BackendNone Backend = "none"
)

// ErrReassociating is returned while a previous reassociation is running.
var ErrReassociating = errors.New("reassociation already in progress")

// DefaultCommandTimeout bounds each external command.
const DefaultCommandTimeout = 2 * time.Second

// Config holds interface options.
type Config struct {
	Interface      string
	Backend        Backend
	SSID           string
	Passphrase     string
	CommandTimeout time.Duration
}

// DefaultConfig returns default wifi configuration
func DefaultConfig() *Config {
	return &Config{
		Interface:      "wlan0",
		Backend:        BackendWPA,
		CommandTimeout: DefaultCommandTimeout,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Interface) == "" {
		return fmt.Errorf("%w: wifi interface is required", tagreport.ErrInvalidConfig)
	}
	switch c.Backend {
	case BackendWPA, BackendNM, BackendNone:
	default:
		return fmt.Errorf("%w: unknown wifi backend %q", tagreport.ErrInvalidConfig, c.Backend)
	}
	if c.Passphrase != "" && c.SSID == "" {
		return fmt.Errorf("%w: wifi passphrase set without ssid", tagreport.ErrInvalidConfig)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("%w: wifi command timeout must be positive", tagreport.ErrInvalidConfig)
	}
	return nil
}

// Runner runs an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Option configures an Interface.
type Option func(*Interface)

// WithRunner replaces the command runner.
func WithRunner(run Runner) Option {
	return func(i *Interface) {
		if run != nil {
			i.run = run
		}
	}
}

// WithLogger sets the interface's logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interface) {
		if l != nil {
			i.log = l
		}
	}
}

// Interface observes and re-establishes association of one interface.
type Interface struct {
	config  *Config
	run     Runner
	flags   func(name string) (uint16, error)
	log     *slog.Logger
	pending chan struct{}
	lastErr error
	mu      sync.Mutex
}

var _ tagreport.Associator = (*Interface)(nil)

// New creates an Interface. A nil config selects DefaultConfig.
func New(config *Config, opts ...Option) (*Interface, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	i := &Interface{
		config: config,
		run:    ExecRunner,
		flags:  readFlags,
		log:    slog.Default().With("component", "wifi", "interface", config.Interface),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Connected reports whether the interface is up with carrier. On platforms
// without interface flags it always reports true.
func (i *Interface) Connected() bool {
	flags, err := i.flags(i.config.Interface)
	if err != nil {
		if errors.Is(err, tagreport.ErrNotSupported) {
			return true
		}
		i.log.Debug("read interface flags", "error", err)
		return false
	}
	return flags&flagUp != 0 && flags&flagRunning != 0
}

// Reassociate starts a disconnect-then-associate sequence in the background
// and returns without waiting for it. Only one sequence runs at a time;
// ErrReassociating is returned while one is still in flight. Wait collects
// the outcome.
func (i *Interface) Reassociate(ctx context.Context) error {
	if !supported {
		return tagreport.ErrNotSupported
	}

	disconnect, connect := i.commands()
	if connect == nil {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.pending != nil {
		select {
		case <-i.pending:
		default:
			return ErrReassociating
		}
	}
	done := make(chan struct{})
	i.pending = done
	i.lastErr = nil

	go i.reassociate(ctx, disconnect, connect, done)
	return nil
}

// Wait blocks until the reassociation in flight, if any, has finished and
// returns the error of the most recent one.
func (i *Interface) Wait() error {
	i.mu.Lock()
	done := i.pending
	i.mu.Unlock()

	if done != nil {
		<-done
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastErr
}

func (i *Interface) reassociate(ctx context.Context, disconnect, connect []string, done chan struct{}) {
	defer close(done)

	// already disconnected is the usual case
	if err := i.exec(ctx, disconnect); err != nil {
		i.log.Debug("disconnect", "error", err)
	}
	err := i.exec(ctx, connect)
	if err != nil {
		i.log.Warn("reassociate failed", "error", err)
	}

	i.mu.Lock()
	i.lastErr = err
	i.mu.Unlock()
}

// commands returns the backend's disconnect and connect argv. nmcli is told
// not to wait for activation.
func (i *Interface) commands() (disconnect, connect []string) {
	switch i.config.Backend {
	case BackendWPA:
		disconnect = []string{"wpa_cli", "-i", i.config.Interface, "disconnect"}
		connect = []string{"wpa_cli", "-i", i.config.Interface, "reconnect"}
	case BackendNM:
		disconnect = []string{"nmcli", "--wait", "0", "device", "disconnect", i.config.Interface}
		if i.config.SSID != "" {
			connect = []string{"nmcli", "--wait", "0", "device", "wifi", "connect", i.config.SSID, "ifname", i.config.Interface}
			if i.config.Passphrase != "" {
				connect = append(connect, "password", i.config.Passphrase)
			}
		} else {
			connect = []string{"nmcli", "--wait", "0", "device", "connect", i.config.Interface}
		}
	}
	return disconnect, connect
}

func (i *Interface) exec(ctx context.Context, argv []string) error {
	ctx, cancel := context.WithTimeout(ctx, i.config.CommandTimeout)
	defer cancel()

	out, err := i.run(ctx, argv[0], argv[1:]...)
	if err != nil {
		// argv may carry the passphrase, so only the tool is named
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
