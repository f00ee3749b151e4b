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

// Command tagreportd polls an RFID reader and posts every accepted scan to
// a server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/buzzer"
	"github.com/ZaparooProject/go-tagreport/detection"
	"github.com/ZaparooProject/go-tagreport/internal/metrics"
	"github.com/ZaparooProject/go-tagreport/polling"
	"github.com/ZaparooProject/go-tagreport/reader/mfrc522"
	"github.com/ZaparooProject/go-tagreport/reader/pn532"
	"github.com/ZaparooProject/go-tagreport/transport/i2c"
	"github.com/ZaparooProject/go-tagreport/transport/spi"
	"github.com/ZaparooProject/go-tagreport/transport/uart"
	"github.com/ZaparooProject/go-tagreport/wifi"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const linkCheckInterval = 500 * time.Millisecond

// dialTransport is replaced in tests
var dialTransport = openTransport

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := loadConfig(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "tagreportd: %v\n", err)
		return 2
	}

	level, _ := cfg.level()
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.StampMilli,
	}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.Error("exiting", "error", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg *config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		stopMetrics := serveMetrics(cfg.MetricsAddr, reg, log)
		defer stopMetrics()
	}

	assoc, err := newAssociator(cfg, log)
	if err != nil {
		return err
	}
	if iface, ok := assoc.(*wifi.Interface); ok {
		// reap a reassociation still running at shutdown
		defer func() { _ = iface.Wait() }()
	}
	link := tagreport.NewLink(assoc, cfg.WiFi.ReconnectInterval,
		tagreport.WithLinkLogger(log.With("component", "link")))

	log.Info("waiting for network")
	if err := link.WaitConnected(ctx, linkCheckInterval); err != nil {
		// interrupted before the network came up
		log.Info("shutting down", "reason", err)
		return nil
	}
	log.Info("network connected")

	reader, closer, err := openReader(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn("close reader", "error", err)
		}
	}()
	log.Info("RFID ready")

	var feedback tagreport.Feedback = tagreport.NopFeedback{}
	if cfg.Buzzer.Pin != "" {
		bz, err := buzzer.Open(cfg.Buzzer.Pin, buzzer.WithLogger(log.With("component", "buzzer")))
		if err != nil {
			return err
		}
		defer func() { _ = bz.Close() }()
		bz.Startup()
		feedback = bz
	}

	reporter, err := tagreport.NewReporter(cfg.ServerURL, cfg.DeviceID, link,
		tagreport.WithSendTimeout(cfg.SendTimeout),
		tagreport.WithReporterLogger(log.With("component", "reporter")))
	if err != nil {
		return err
	}

	loop, err := polling.NewLoop(reader, link, reporter,
		polling.WithConfig(cfg.loopConfig()),
		polling.WithLogger(log),
		polling.WithFeedback(feedback),
		polling.WithMetrics(m))
	if err != nil {
		return err
	}

	log.Info("reporting scans", "url", reporter.URL())
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutting down")
	return nil
}

func newAssociator(cfg *config, log *slog.Logger) (tagreport.Associator, error) {
	if cfg.WiFi.Interface == "" {
		return tagreport.AlwaysConnected{}, nil
	}
	iface, err := wifi.New(cfg.wifiConfig(), wifi.WithLogger(log.With("component", "wifi")))
	if err != nil {
		return nil, err
	}
	return iface, nil
}

// openReader opens and initializes the configured reader. A PN532 that
// does not answer is fatal only in strict mode.
func openReader(ctx context.Context, cfg *config, log *slog.Logger) (tagreport.TagReader, io.Closer, error) {
	rc := cfg.Reader

	if rc.Type == readerMFRC522 {
		r, err := mfrc522.Open(rc.Device, rc.ResetPin, rc.IRQPin,
			mfrc522.WithTimeout(rc.PollTimeout),
			mfrc522.WithLogger(log.With("component", "mfrc522")))
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	}

	path := rc.Device
	if path == deviceAuto {
		c, err := detection.First(ctx, rc.Transport, &detection.Options{
			IgnorePaths: rc.IgnorePaths,
			Blocklist:   detection.DefaultBlocklist(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to detect %s reader: %w", rc.Transport, err)
		}
		log.Info("detected reader", "device", c.String())
		path = c.Path
	}

	transport, err := dialTransport(rc.Transport, path)
	if err != nil {
		return nil, nil, err
	}

	r, err := pn532.New(transport,
		pn532.WithConfig(&pn532.Config{
			PassiveRetries: pn532.DefaultConfig().PassiveRetries,
			Timeout:        rc.PollTimeout,
		}),
		pn532.WithLogger(log.With("component", "pn532")))
	if err != nil {
		_ = transport.Close()
		return nil, nil, err
	}

	if err := r.Init(ctx); err != nil {
		if rc.Strict {
			_ = r.Close()
			return nil, nil, fmt.Errorf("reader did not answer: %w", err)
		}
		log.Warn("reader did not answer, polling anyway", "error", err)
	} else if fw := r.Firmware(); fw != nil {
		log.Info("reader firmware", "version", fw.String())
	}
	return r, r, nil
}

func openTransport(kind, path string) (pn532.Transport, error) {
	switch kind {
	case "i2c":
		return i2c.New(path)
	case "spi":
		return spi.New(path)
	case "uart":
		return uart.New(path)
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", tagreport.ErrInvalidConfig, kind)
	}
}

// serveMetrics starts the /metrics listener and returns its shutdown
func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
