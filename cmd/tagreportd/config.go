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

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/polling"
	"github.com/ZaparooProject/go-tagreport/wifi"
	"gopkg.in/yaml.v3"
)

// Reader kinds
const (
	readerPN532   = "pn532"
	readerMFRC522 = "mfrc522"
	deviceAuto    = "auto"
)

type readerConfig struct {
	Type        string        `yaml:"type"`
	Transport   string        `yaml:"transport"`
	Device      string        `yaml:"device"`
	ResetPin    string        `yaml:"reset_pin"`
	IRQPin      string        `yaml:"irq_pin"`
	IgnorePaths []string      `yaml:"ignore_paths"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
	Strict      bool          `yaml:"strict"`
}

type wifiConfig struct {
	// Interface is the wireless interface to keep associated. Empty leaves
	// networking to the host.
	Interface         string        `yaml:"interface"`
	Backend           string        `yaml:"backend"`
	SSID              string        `yaml:"ssid"`
	Passphrase        string        `yaml:"passphrase"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	CommandTimeout    time.Duration `yaml:"command_timeout"`
}

type buzzerConfig struct {
	Pin           string        `yaml:"pin"`
	PulseDuration time.Duration `yaml:"pulse_duration"`
}

type config struct {
	DeviceID     string        `yaml:"device_id"`
	ServerURL    string        `yaml:"server_url"`
	MetricsAddr  string        `yaml:"metrics_addr"`
	LogLevel     string        `yaml:"log_level"`
	Buzzer       buzzerConfig  `yaml:"buzzer"`
	WiFi         wifiConfig    `yaml:"wifi"`
	Reader       readerConfig  `yaml:"reader"`
	SendDelay    time.Duration `yaml:"send_delay"`
	SendTimeout  time.Duration `yaml:"send_timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

func defaultConfig() *config {
	loop := polling.DefaultConfig()
	return &config{
		DeviceID:     "device-id",
		ServerURL:    "http://localhost:8000/api/data/",
		LogLevel:     "info",
		SendDelay:    loop.SendDelay,
		SendTimeout:  tagreport.DefaultSendTimeout,
		PollInterval: loop.PollInterval,
		Reader: readerConfig{
			Type:        readerPN532,
			Transport:   "i2c",
			Device:      "/dev/i2c-1",
			ResetPin:    "GPIO25",
			IRQPin:      "GPIO24",
			PollTimeout: tagreport.DefaultPollTimeout,
		},
		WiFi: wifiConfig{
			Backend:           string(wifi.BackendWPA),
			ReconnectInterval: tagreport.DefaultReconnectInterval,
			CommandTimeout:    wifi.DefaultCommandTimeout,
		},
		Buzzer: buzzerConfig{
			PulseDuration: loop.PulseDuration,
		},
	}
}

// loadConfig applies defaults, then the YAML file named by -config, then
// the remaining flags.
func loadConfig(args []string, stderr io.Writer) (*config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("tagreportd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	deviceID := fs.String("device-id", "", "Device identifier appended to the server URL")
	serverURL := fs.String("server", "", "Base URL reports are posted to")
	readerType := fs.String("reader", "", "Reader chip: pn532 or mfrc522")
	transport := fs.String("transport", "", "PN532 transport: i2c, spi or uart")
	device := fs.String("device", "", "Bus, port or serial device path; \"auto\" to detect")
	strict := fs.Bool("strict", false, "Exit if the reader does not answer at startup")
	metricsAddr := fs.String("metrics", "", "Address to serve /metrics on, e.g. :9100")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	buzzerPin := fs.String("buzzer", "", "GPIO pin driving the buzzer, e.g. GPIO25")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configPath != "" {
		if err := cfg.readFile(*configPath); err != nil {
			return nil, err
		}
	}

	// flags win over the file only when given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device-id":
			cfg.DeviceID = *deviceID
		case "server":
			cfg.ServerURL = *serverURL
		case "reader":
			cfg.Reader.Type = *readerType
		case "transport":
			cfg.Reader.Transport = *transport
		case "device":
			cfg.Reader.Device = *device
		case "strict":
			cfg.Reader.Strict = *strict
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "buzzer":
			cfg.Buzzer.Pin = *buzzerPin
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *config) readFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %w", tagreport.ErrInvalidConfig, path, err)
	}
	return nil
}

func (c *config) validate() error {
	if _, err := tagreport.ReportURL(c.ServerURL, c.DeviceID); err != nil {
		return err
	}
	if c.SendTimeout < 0 {
		return fmt.Errorf("%w: send_timeout must not be negative", tagreport.ErrInvalidConfig)
	}
	if err := c.loopConfig().Validate(); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}

	switch c.Reader.Type {
	case readerPN532:
		switch c.Reader.Transport {
		case "i2c", "spi", "uart":
		default:
			return fmt.Errorf("%w: unknown transport %q", tagreport.ErrInvalidConfig, c.Reader.Transport)
		}
		if c.Reader.Device == deviceAuto && c.Reader.Transport == "spi" {
			return fmt.Errorf("%w: spi devices cannot be detected", tagreport.ErrInvalidConfig)
		}
	case readerMFRC522:
		if c.Reader.Device == deviceAuto {
			return fmt.Errorf("%w: mfrc522 devices cannot be detected", tagreport.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown reader %q", tagreport.ErrInvalidConfig, c.Reader.Type)
	}
	if strings.TrimSpace(c.Reader.Device) == "" {
		return fmt.Errorf("%w: reader device is required", tagreport.ErrInvalidConfig)
	}
	if c.Reader.PollTimeout <= 0 {
		return fmt.Errorf("%w: poll_timeout must be positive", tagreport.ErrInvalidConfig)
	}

	// no interface means networking is managed elsewhere
	if c.WiFi.Interface == "" {
		return nil
	}
	return c.wifiConfig().Validate()
}

func (c *config) loopConfig() *polling.Config {
	return &polling.Config{
		SendDelay:     c.SendDelay,
		PollInterval:  c.PollInterval,
		PulseDuration: c.Buzzer.PulseDuration,
	}
}

func (c *config) wifiConfig() *wifi.Config {
	return &wifi.Config{
		Interface:      c.WiFi.Interface,
		Backend:        wifi.Backend(c.WiFi.Backend),
		SSID:           c.WiFi.SSID,
		Passphrase:     c.WiFi.Passphrase,
		CommandTimeout: c.WiFi.CommandTimeout,
	}
}

func (c *config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, errors.Join(tagreport.ErrInvalidConfig, err)
	}
	return level, nil
}
