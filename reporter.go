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

package tagreport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultSendTimeout bounds a report's send and response wait.
const DefaultSendTimeout = 200 * time.Millisecond

// maxDrain is how much of a response body is read before it is discarded.
const maxDrain = 4 << 10

// Report is one accepted scan. DeviceID travels in the URL path, so only
// the identifier is serialized.
type Report struct {
	DeviceID string `json:"-"`
	RFID     string `json:"rfid"`
}

// ReportStatus is the outcome of a send.
type ReportStatus int

const (
	// ReportSkipped means the link was down and no request was made.
	ReportSkipped ReportStatus = iota
	// ReportSent means the server answered, whatever the status code.
	ReportSent
	// ReportFailed means the request failed locally or timed out.
	ReportFailed
)

func (s ReportStatus) String() string {
	switch s {
	case ReportSkipped:
		return "skipped"
	case ReportSent:
		return "sent"
	case ReportFailed:
		return "failed"
	default:
		return fmt.Sprintf("ReportStatus(%d)", int(s))
	}
}

// Result describes what happened to a report. Callers are free to ignore
// it: delivery is best effort and no failure is retried.
type Result struct {
	Err        error
	Status     ReportStatus
	StatusCode int
	Duration   time.Duration
}

// Connectivity reports whether the network is usable. *Link implements it.
type Connectivity interface {
	IsConnected() bool
}

// Reporter posts accepted scans to the server.
type Reporter struct {
	client *http.Client
	link   Connectivity
	log    *slog.Logger
	url    string
	device string
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithSendTimeout bounds each send. Zero disables the bound.
func WithSendTimeout(timeout time.Duration) ReporterOption {
	return func(r *Reporter) {
		r.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout is used as is.
func WithHTTPClient(client *http.Client) ReporterOption {
	return func(r *Reporter) {
		if client != nil {
			r.client = client
		}
	}
}

// WithReporterLogger sets the logger used for send outcomes.
func WithReporterLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		r.log = l
	}
}

// ReportURL joins the server base URL and the device id into the endpoint a
// device posts to, e.g. "http://host/api/data" + "door-1" gives
// "http://host/api/data/door-1".
func ReportURL(baseURL, deviceID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: server url: %w", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: server url scheme %q", ErrInvalidConfig, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: server url has no host", ErrInvalidConfig)
	}
	if strings.TrimSpace(deviceID) == "" {
		return "", fmt.Errorf("%w: device id is required", ErrInvalidConfig)
	}

	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(deviceID), nil
}

// NewReporter creates a Reporter for the given endpoint. link may be nil,
// in which case the network is assumed usable.
func NewReporter(baseURL, deviceID string, link Connectivity, opts ...ReporterOption) (*Reporter, error) {
	endpoint, err := ReportURL(baseURL, deviceID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		link = AlwaysConnected{}
	}

	r := &Reporter{
		client: &http.Client{Timeout: DefaultSendTimeout},
		link:   link,
		log:    slog.Default().With("component", "reporter"),
		url:    endpoint,
		device: deviceID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// URL returns the endpoint reports are posted to.
func (r *Reporter) URL() string {
	return r.url
}

// Send posts {"rfid": identifier} once. It never retries and never blocks
// longer than the configured send timeout. The response body is discarded.
func (r *Reporter) Send(ctx context.Context, identifier string) Result {
	if !r.link.IsConnected() {
		return Result{Status: ReportSkipped}
	}

	start := time.Now()
	res := r.post(ctx, Report{DeviceID: r.device, RFID: identifier})
	res.Duration = time.Since(start)

	if res.Err != nil {
		r.log.Debug("report dropped", "rfid", identifier, "error", res.Err)
	}
	return res
}

func (r *Reporter) post(ctx context.Context, report Report) Result {
	body, err := json.Marshal(report)
	if err != nil {
		return Result{Status: ReportFailed, Err: fmt.Errorf("failed to encode report: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Result{Status: ReportFailed, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{Status: ReportFailed, Err: fmt.Errorf("post failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	return Result{Status: ReportSent, StatusCode: resp.StatusCode}
}
